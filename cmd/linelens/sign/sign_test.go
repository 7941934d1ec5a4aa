package signcmder

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

var _ = Describe("Sign Command", func() {
	const body = `{"destination":"U0","events":[]}`

	var (
		tmpDir   string
		bodyPath string
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		bodyPath = filepath.Join(tmpDir, "event.json")
		Expect(os.WriteFile(bodyPath, []byte(body), 0o600)).To(Succeed())
		GinkgoT().Setenv("CHANNEL_SECRET", "")
	})

	run := func(stdin string, args ...string) (string, error) {
		cmd := NewSignCmd()
		out := &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader(stdin))
		cmd.SetArgs(args)
		err := cmd.Execute()
		return strings.TrimSpace(out.String()), err
	}

	It("produces a signature the webhook parser accepts", func() {
		sig, err := run("", "--secret", "s3cr3t", bodyPath)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest("POST", "/callback", strings.NewReader(body))
		req.Header.Set("X-Line-Signature", sig)
		cb, err := webhook.ParseRequest("s3cr3t", req)
		Expect(err).NotTo(HaveOccurred())
		Expect(cb.Destination).To(Equal("U0"))
	})

	It("reads the body from stdin", func() {
		sig, err := run(body, "--secret", "s3cr3t")
		Expect(err).NotTo(HaveOccurred())
		Expect(sig).To(Equal(Signature("s3cr3t", []byte(body))))
	})

	It("falls back to CHANNEL_SECRET", func() {
		GinkgoT().Setenv("CHANNEL_SECRET", "from-env")

		sig, err := run("", bodyPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(sig).To(Equal(Signature("from-env", []byte(body))))
	})

	It("fails without a secret", func() {
		_, err := run("", bodyPath)
		Expect(err).To(MatchError(ContainSubstring("channel secret is required")))
	})

	It("fails on a missing body file", func() {
		_, err := run("", "--secret", "s3cr3t", filepath.Join(tmpDir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("could not read body")))
	})

	It("rejects bodies signed with another secret", func() {
		req := httptest.NewRequest("POST", "/callback", strings.NewReader(body))
		req.Header.Set("X-Line-Signature", Signature("wrong", []byte(body)))
		_, err := webhook.ParseRequest("s3cr3t", req)
		Expect(err).To(MatchError(webhook.ErrInvalidSignature))
	})
})
