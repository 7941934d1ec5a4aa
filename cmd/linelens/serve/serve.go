package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/linelens/pkg/config"
	"github.com/papercomputeco/linelens/pkg/content"
	"github.com/papercomputeco/linelens/pkg/logger"
	"github.com/papercomputeco/linelens/pkg/messaging"
	"github.com/papercomputeco/linelens/pkg/vision"
	"github.com/papercomputeco/linelens/relay"
)

const serveLongDesc string = `Run the webhook relay server.

Listens for LINE webhook calls on POST /callback. Text messages are
echoed back; image messages are proofread by a Gemini vision model
and the analysis is sent as the reply.

Credentials are read from the environment (CHANNEL_ACCESS_TOKEN,
CHANNEL_SECRET, GEMINI_API_KEY), an optional .env file, or an
optional TOML config file.

Examples:
  linelens serve
  linelens serve --port 8080 --debug
  linelens serve --config /etc/linelens.toml`

const serveShortDesc string = "Run the webhook relay server"

type serveCommander struct {
	configPath string
	envFile    string
	port       int
	debug      bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVar(&cmder.envFile, "env-file", ".env", "Path to dotenv file (ignored if missing)")
	cmd.Flags().IntVarP(&cmder.port, "port", "p", 0, "Port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("port") {
		cfg.Port = c.port
	}
	if c.debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.Debug, cfg.LogFormat)
	defer log.Sync()

	log.Info("linelens starting",
		zap.String("listen", cfg.ListenAddr()),
		zap.String("model", cfg.GeminiModel),
		zap.Bool("debug", cfg.Debug),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := c.buildServer(ctx, cfg, log)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down relay server")
		return srv.Shutdown()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("relay server failed: %w", err)
		}
		return nil
	}
}

func (c *serveCommander) buildServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*relay.Server, error) {
	clients, err := messaging.NewClients(cfg.ChannelAccessToken)
	if err != nil {
		return nil, err
	}

	analyzer, err := vision.NewGeminiClient(ctx, vision.Config{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		MIMEType: cfg.ImageMIMEType,
		BaseURL:  cfg.GeminiBaseURL,
	}, log)
	if err != nil {
		return nil, err
	}

	dispatcher := relay.NewDispatcher(
		messaging.NewLINEReplier(clients.Messaging),
		content.NewLINEFetcher(clients.Blob, cfg.MaxImageBytes),
		analyzer,
		log,
	)

	return relay.New(relay.Config{
		ListenAddr:    cfg.ListenAddr(),
		ChannelSecret: cfg.ChannelSecret,
	}, dispatcher, log)
}
