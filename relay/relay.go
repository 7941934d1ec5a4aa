// Package relay provides the webhook server that relays chat events to their
// reply paths: text is echoed back and images are proofread by a vision model.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/linelens/pkg/event"
	"github.com/papercomputeco/linelens/pkg/messaging"
)

// ErrorResponse is the JSON body of a rejected webhook call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the webhook relay. It keeps no state between calls: every webhook
// call is verified, fanned out and answered on its own.
type Server struct {
	config     Config
	dispatcher *Dispatcher
	logger     *zap.Logger
	server     *fiber.App
}

// New creates a new Server.
func New(config Config, dispatcher *Dispatcher, logger *zap.Logger) (*Server, error) {
	if config.ChannelSecret == "" {
		return nil, errors.New("channel secret is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:     config,
		dispatcher: dispatcher,
		logger:     logger,
		server:     app,
	}

	app.Use(fiberrecover.New())

	app.Post("/callback", adaptor.HTTPHandlerFunc(s.handleCallback))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return s, nil
}

// Run starts the server on the configured listening address
func (s *Server) Run() error {
	s.logger.Info("starting relay server", zap.String("listen", s.config.ListenAddr))

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting relay server", zap.String("listen", ln.Addr().String()))

	return s.server.Listener(ln)
}

// Shutdown stops the server, waiting for in-flight webhook calls to finish.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// handleCallback verifies a webhook call, dispatches all of its events
// concurrently and responds once every event has settled.
//
// The response body holds one slot per event in input order: the delivery
// result of its reply, or null for ignored events. If any event fails with a
// fault its handler could not recover from the whole call answers 500.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	cb, err := webhook.ParseRequest(s.config.ChannelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			s.logger.Warn("rejected webhook call with invalid signature",
				zap.String("remote", r.RemoteAddr),
			)
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid signature"})
			return
		}
		s.logger.Error("failed to parse webhook call", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	events := event.FromCallback(cb)

	s.logger.Debug("received webhook call",
		zap.String("destination", cb.Destination),
		zap.Int("event_count", len(events)),
	)

	results, err := s.dispatchAll(r.Context(), events)
	if err != nil {
		s.logger.Error("failed to handle webhook events",
			zap.Int("event_count", len(events)),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.logger.Info("webhook call handled",
		zap.Int("event_count", len(events)),
		zap.Duration("duration", time.Since(startTime)),
	)

	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// dispatchAll runs every event on its own goroutine and waits for all of them.
// Each goroutine owns exactly one slot of the result slice. A failing event
// does not cancel the others.
func (s *Server) dispatchAll(ctx context.Context, events []event.Event) ([]*messaging.Result, error) {
	results := make([]*messaging.Result, len(events))

	var g errgroup.Group
	for i, ev := range events {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("panic while handling event",
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
					err = fmt.Errorf("event %d: panic: %v", i, r)
				}
			}()

			result, err := s.dispatcher.Dispatch(ctx, ev)
			if err != nil {
				return fmt.Errorf("event %d (%s): %w", i, ev.Kind, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// truncate shortens s to at most maxLen runes for log previews.
func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
