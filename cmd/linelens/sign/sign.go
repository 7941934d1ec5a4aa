package signcmder

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const signLongDesc string = `Compute the X-Line-Signature header for a webhook body.

Reads the body from the given file, or stdin when the file is "-"
or omitted, and prints the base64 HMAC-SHA256 signature keyed by
the channel secret. Useful for calling /callback by hand.

Examples:
  linelens sign --secret s3cr3t event.json
  cat event.json | linelens sign
  curl -H "X-Line-Signature: $(linelens sign event.json)" \
       -d @event.json localhost:3000/callback`

const signShortDesc string = "Sign a webhook body with the channel secret"

type signCommander struct {
	secret string
}

func NewSignCmd() *cobra.Command {
	cmder := &signCommander{}

	cmd := &cobra.Command{
		Use:   "sign [body-file]",
		Short: signShortDesc,
		Long:  signLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return cmder.run(cmd, path)
		},
	}

	cmd.Flags().StringVar(&cmder.secret, "secret", "", "Channel secret (default: $CHANNEL_SECRET)")

	return cmd
}

func (c *signCommander) run(cmd *cobra.Command, path string) error {
	secret := c.secret
	if secret == "" {
		secret = os.Getenv("CHANNEL_SECRET")
	}
	if secret == "" {
		return errors.New("channel secret is required: pass --secret or set CHANNEL_SECRET")
	}

	var body []byte
	var err error
	if path == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("could not read body: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), Signature(secret, body))
	return nil
}

// Signature returns the base64 HMAC-SHA256 of body keyed by secret.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
