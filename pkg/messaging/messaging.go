// Package messaging sends replies through the LINE Messaging API.
package messaging

import (
	"context"
	"fmt"
	"unicode/utf16"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// MaxTextLength is the longest text message the platform accepts, counted in
// UTF-16 code units.
const MaxTextLength = 5000

// clampSuffix marks a reply that was cut to MaxTextLength.
const clampSuffix = "…"

// ClampText cuts text so it fits in one text message. Cuts happen on rune
// boundaries and end with clampSuffix.
func ClampText(text string) string {
	if utf16Len(text) <= MaxTextLength {
		return text
	}

	limit := MaxTextLength - utf16Len(clampSuffix)
	units := 0
	for i, r := range text {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > limit {
			return text[:i] + clampSuffix
		}
		units += n
	}
	return text
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// SentMessage identifies one delivered message.
type SentMessage struct {
	ID         string `json:"id"`
	QuoteToken string `json:"quoteToken,omitempty"`
}

// Result is the delivery outcome of one reply.
type Result struct {
	SentMessages []SentMessage `json:"sentMessages"`
}

// Replier sends a single text reply addressed by a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) (*Result, error)
}

// Clients holds the process-wide LINE SDK clients.
type Clients struct {
	Messaging *messaging_api.MessagingApiAPI
	Blob      *messaging_api.MessagingApiBlobAPI
}

// NewClients builds the LINE messaging and blob clients for a channel.
func NewClients(channelToken string) (*Clients, error) {
	bot, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("creating messaging client: %w", err)
	}

	blob, err := messaging_api.NewMessagingApiBlobAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}

	return &Clients{Messaging: bot, Blob: blob}, nil
}

// replyFunc sends a reply request.
type replyFunc func(ctx context.Context, req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)

// LINEReplier is a Replier backed by the LINE reply API.
type LINEReplier struct {
	send replyFunc
}

// NewLINEReplier creates a Replier on top of a LINE messaging client.
func NewLINEReplier(bot *messaging_api.MessagingApiAPI) *LINEReplier {
	return &LINEReplier{
		send: func(ctx context.Context, req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error) {
			return bot.WithContext(ctx).ReplyMessage(req)
		},
	}
}

// Reply implements Replier. Text longer than MaxTextLength is clamped so a
// long analysis still consumes the reply token.
func (r *LINEReplier) Reply(ctx context.Context, replyToken, text string) (*Result, error) {
	resp, err := r.send(ctx, &messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: ClampText(text)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reply message: %w", err)
	}

	result := &Result{SentMessages: []SentMessage{}}
	if resp != nil {
		for _, m := range resp.SentMessages {
			result.SentMessages = append(result.SentMessages, SentMessage{
				ID:         m.Id,
				QuoteToken: m.QuoteToken,
			})
		}
	}

	return result, nil
}
