// Package vision submits images to a Gemini vision model for text extraction
// and proofreading.
package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultMIMEType = "image/jpeg"
)

var (
	ErrEmptyImage      = errors.New("image is empty")
	ErrUnsupportedMIME = errors.New("unsupported mime type")
	ErrEmptyResponse   = errors.New("model returned empty text")
	ErrMissingAPIKey   = errors.New("gemini api key is required")
)

// Analyzer turns an image into the model's textual analysis.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (string, error)
}

// Config is the Gemini client configuration. It is fixed at startup.
type Config struct {
	APIKey string

	// Model name, defaults to DefaultModel
	Model string

	// MIMEType sent alongside the image bytes, defaults to DefaultMIMEType
	MIMEType string

	// BaseURL overrides the Gemini API endpoint. Empty uses the SDK default.
	BaseURL string
}

// GeminiClient is an Analyzer backed by the Gemini API.
type GeminiClient struct {
	client   *genai.Client
	model    string
	mimeType string
	logger   *zap.Logger
}

// NewGeminiClient creates a GeminiClient. The underlying SDK client is safe for
// concurrent use and is meant to be shared for the process lifetime.
func NewGeminiClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MIMEType == "" {
		cfg.MIMEType = DefaultMIMEType
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:   client,
		model:    cfg.Model,
		mimeType: cfg.MIMEType,
		logger:   logger,
	}, nil
}

// EncodeImage wraps the image bytes as an inline data part. The SDK carries
// the bytes base64 encoded on the wire.
func EncodeImage(image []byte, mimeType string) (*genai.Part, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMIME, mimeType)
	}
	return genai.NewPartFromBytes(image, mimeType), nil
}

// Analyze implements Analyzer. The returned text is the model output verbatim.
func (g *GeminiClient) Analyze(ctx context.Context, image []byte) (string, error) {
	imagePart, err := EncodeImage(image, g.mimeType)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(AnalysisPrompt),
			imagePart,
		}, genai.RoleUser),
	}

	g.logger.Debug("sending image to gemini",
		zap.String("model", g.model),
		zap.Int("image_bytes", len(image)),
	)

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
