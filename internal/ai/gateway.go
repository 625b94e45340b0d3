package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mistakebook/internal/model"
	"mistakebook/internal/store"
)

var (
	ErrMissingGeminiKey     = errors.New("gemini API key is not configured")
	ErrMissingOpenRouterKey = errors.New("openRouter API key is not configured")
	ErrUnreadableImage      = errors.New("the image could not be read for analysis")
)

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Gateway is the stateless request/response wrapper over the two external
// text/vision generation APIs. Provider selection follows the model name: a
// gemini-* model with a Gemini key goes through the official SDK with the
// image inlined as bytes; everything else goes through an OpenRouter-style
// chat/completions endpoint, which accepts image URLs directly.
type Gateway struct {
	httpClient *http.Client
}

func NewGateway() *Gateway {
	return &Gateway{
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Analyze generates the three-section explanation for a mistake. Failures are
// never fatal to the session; the caller surfaces them per action.
func (g *Gateway) Analyze(ctx context.Context, m *model.Mistake, s model.AppSettings) (string, error) {
	prompt := buildPrompt(m.Subject, m.QuestionText)

	useGemini := strings.HasPrefix(strings.ToLower(s.AIModel), "gemini") && s.GeminiAPIKey != ""
	if useGemini {
		return g.analyzeWithGemini(ctx, s.GeminiAPIKey, s.AIModel, prompt, m.ImageURL)
	}

	if s.OpenRouterAPIKey == "" {
		if strings.HasPrefix(strings.ToLower(s.AIModel), "gemini") {
			return "", ErrMissingGeminiKey
		}
		return "", ErrMissingOpenRouterKey
	}
	return g.analyzeWithOpenRouter(ctx, s.OpenRouterAPIKey, baseURL(s), s.AIModel, prompt, m.ImageURL)
}

func baseURL(s model.AppSettings) string {
	if s.OpenRouterBaseURL != "" {
		return s.OpenRouterBaseURL
	}
	return defaultOpenRouterBaseURL
}

// fetchImage turns an image value into inline bytes: a data: URI is decoded
// in place, a hosted URL is downloaded.
func (g *Gateway) fetchImage(ctx context.Context, imageURL string) (*store.InlineImage, error) {
	if store.IsInline(imageURL) {
		img, err := store.ParseInline(imageURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
		}
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetch returned status %d", ErrUnreadableImage, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}

	return &store.InlineImage{MIMEType: mimeType, Data: data}, nil
}
