// Package event classifies inbound webhook events into the actions the relay
// takes for them.
package event

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// Kind is the action resolved for one inbound event.
type Kind int

const (
	// KindIgnore events produce no reply.
	KindIgnore Kind = iota
	// KindEcho replies with the message text unchanged.
	KindEcho
	// KindAnalyzeImage downloads the image and replies with the model analysis.
	KindAnalyzeImage
)

func (k Kind) String() string {
	switch k {
	case KindIgnore:
		return "ignore"
	case KindEcho:
		return "echo"
	case KindAnalyzeImage:
		return "analyze_image"
	default:
		return "unknown"
	}
}

// Event is one classified inbound event. It lives only for the duration of a
// single webhook call.
type Event struct {
	Kind Kind

	// Source is the platform event type, e.g. "message" or "follow"
	Source string

	// ReplyToken addresses exactly one reply. Empty for KindIgnore.
	ReplyToken string

	// MessageID addresses the binary content of an image message.
	MessageID string

	// Text is the body of a text message.
	Text string

	WebhookEventID string
}

// Echo builds a text message event.
func Echo(replyToken, text string) Event {
	return Event{Kind: KindEcho, Source: "message", ReplyToken: replyToken, Text: text}
}

// AnalyzeImage builds an image message event.
func AnalyzeImage(replyToken, messageID string) Event {
	return Event{Kind: KindAnalyzeImage, Source: "message", ReplyToken: replyToken, MessageID: messageID}
}

// FromWebhook classifies a single platform event.
func FromWebhook(e webhook.EventInterface) Event {
	if e == nil {
		return Event{Kind: KindIgnore}
	}

	msg, ok := e.(webhook.MessageEvent)
	if !ok {
		return Event{Kind: KindIgnore, Source: e.GetType()}
	}

	var ev Event
	switch m := msg.Message.(type) {
	case webhook.TextMessageContent:
		ev = Echo(msg.ReplyToken, m.Text)
	case webhook.ImageMessageContent:
		ev = AnalyzeImage(msg.ReplyToken, m.Id)
	default:
		ev = Event{Kind: KindIgnore, Source: "message"}
	}
	ev.WebhookEventID = msg.WebhookEventId

	return ev
}

// FromCallback classifies every event of a webhook call, preserving order.
func FromCallback(cb *webhook.CallbackRequest) []Event {
	if cb == nil {
		return nil
	}

	events := make([]Event, len(cb.Events))
	for i, e := range cb.Events {
		events[i] = FromWebhook(e)
	}
	return events
}
