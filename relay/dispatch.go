package relay

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/linelens/pkg/content"
	"github.com/papercomputeco/linelens/pkg/event"
	"github.com/papercomputeco/linelens/pkg/messaging"
	"github.com/papercomputeco/linelens/pkg/vision"
)

// FailureReplyPrefix starts the reply sent when image analysis fails.
const FailureReplyPrefix = "image analysis failed: "

// Dispatcher routes classified events to their reply path. It holds only
// shared, read-only clients and is safe for concurrent use.
type Dispatcher struct {
	replier  messaging.Replier
	fetcher  content.Fetcher
	analyzer vision.Analyzer
	logger   *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(replier messaging.Replier, fetcher content.Fetcher, analyzer vision.Analyzer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		replier:  replier,
		fetcher:  fetcher,
		analyzer: analyzer,
		logger:   logger,
	}
}

// Dispatch handles one event. Ignored events resolve to a nil result. Only
// reply delivery faults are returned as errors; image analysis failures are
// reported to the user instead.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event) (*messaging.Result, error) {
	d.logger.Debug("dispatching event",
		zap.String("webhook_event_id", ev.WebhookEventID),
		zap.Stringer("kind", ev.Kind),
	)

	switch ev.Kind {
	case event.KindIgnore:
		d.logger.Debug("ignoring event",
			zap.String("webhook_event_id", ev.WebhookEventID),
			zap.String("source", ev.Source),
		)
		return nil, nil
	case event.KindEcho:
		return d.reply(ctx, ev.ReplyToken, ev.Text)
	case event.KindAnalyzeImage:
		return d.analyzeImage(ctx, ev)
	default:
		return nil, fmt.Errorf("unhandled event kind %s", ev.Kind)
	}
}

// analyzeImage fetches the image, runs it through the analyzer and replies
// with the result. Any fetch or analysis failure becomes a failure reply on
// the same token, so the token is always consumed exactly once.
func (d *Dispatcher) analyzeImage(ctx context.Context, ev event.Event) (*messaging.Result, error) {
	text, err := d.analysis(ctx, ev.MessageID)
	if err != nil {
		d.logger.Error("image analysis failed",
			zap.String("webhook_event_id", ev.WebhookEventID),
			zap.String("message_id", ev.MessageID),
			zap.Error(err),
		)
		return d.reply(ctx, ev.ReplyToken, FailureReplyPrefix+err.Error())
	}

	return d.reply(ctx, ev.ReplyToken, text)
}

func (d *Dispatcher) analysis(ctx context.Context, messageID string) (string, error) {
	image, err := d.fetcher.Fetch(ctx, messageID)
	if err != nil {
		return "", err
	}

	d.logger.Debug("fetched image content",
		zap.String("message_id", messageID),
		zap.Int("bytes", len(image)),
	)

	return d.analyzer.Analyze(ctx, image)
}

func (d *Dispatcher) reply(ctx context.Context, replyToken, text string) (*messaging.Result, error) {
	result, err := d.replier.Reply(ctx, replyToken, text)
	if err != nil {
		return nil, fmt.Errorf("reply to %s: %w", truncate(replyToken, 8), err)
	}

	d.logger.Debug("reply sent",
		zap.String("reply_token", truncate(replyToken, 8)),
		zap.String("text_preview", truncate(text, 50)),
	)

	return result, nil
}
