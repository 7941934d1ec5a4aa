package content

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Fetcher retrieves the complete binary content of a message.
type Fetcher interface {
	Fetch(ctx context.Context, messageID string) ([]byte, error)
}

// getContentFunc issues the content request for a message ID.
type getContentFunc func(ctx context.Context, messageID string) (*http.Response, error)

// LINEFetcher downloads message content through the LINE blob API.
type LINEFetcher struct {
	get      getContentFunc
	maxBytes int64
}

// NewLINEFetcher creates a Fetcher on top of a LINE blob client.
// maxBytes caps the accumulated payload, 0 means unbounded.
func NewLINEFetcher(blob *messaging_api.MessagingApiBlobAPI, maxBytes int64) *LINEFetcher {
	return &LINEFetcher{
		get: func(ctx context.Context, messageID string) (*http.Response, error) {
			return blob.WithContext(ctx).GetMessageContent(messageID)
		},
		maxBytes: maxBytes,
	}
}

// Fetch implements Fetcher.
func (f *LINEFetcher) Fetch(ctx context.Context, messageID string) ([]byte, error) {
	if messageID == "" {
		return nil, ErrEmptyMessageID
	}

	resp, err := f.get(ctx, messageID)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("get message content %s: %w", messageID, err)
	}

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("get message content %s: platform returned %d: %s", messageID, resp.StatusCode, string(body))
	}

	data, err := Accumulate(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("get message content %s: %w", messageID, err)
	}

	return data, nil
}
