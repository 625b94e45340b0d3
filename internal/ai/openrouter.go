package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mistakebook/internal/model"
)

type chatContentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *chatImagePart `json:"image_url,omitempty"`
}

type chatImagePart struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string            `json:"role"`
	Content []chatContentPart `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

// analyzeWithOpenRouter calls any OpenAI-compatible chat/completions endpoint.
// The image is passed by URL; OpenRouter fetches it itself.
func (g *Gateway) analyzeWithOpenRouter(ctx context.Context, apiKey, base, modelName, prompt, imageURL string) (string, error) {
	endpoint := completionsEndpoint(base)

	parts := []chatContentPart{
		{Type: "text", Text: systemInstruction + "\n" + prompt},
	}
	if imageURL != "" {
		parts = append(parts, chatContentPart{
			Type:     "image_url",
			ImageURL: &chatImagePart{URL: imageURL},
		})
	}

	body, err := json.Marshal(chatRequest{
		Model:    modelName,
		Messages: []chatMessage{{Role: "user", Content: parts}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read chat response: %w", err)
	}

	var parsed chatResponse
	if resp.StatusCode != http.StatusOK {
		// Try to surface the provider's own message before falling back to
		// the status code.
		if json.Unmarshal(raw, &parsed) == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("analysis failed: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("analysis request returned status %d", resp.StatusCode)
	}

	err = json.Unmarshal(raw, &parsed)
	if err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("provider returned no content")
	}
	return parsed.Choices[0].Message.Content, nil
}

// completionsEndpoint derives the chat endpoint from a base URL, tolerating a
// base that already points at chat/completions.
func completionsEndpoint(base string) string {
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return strings.TrimRight(base, "/") + "/chat/completions"
}

type modelList struct {
	Data []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		ContextLength int    `json:"context_length"`
		Architecture  struct {
			Modality string `json:"modality"`
		} `json:"architecture"`
	} `json:"data"`
}

// ListModels fetches the OpenRouter model catalog so users can pick a custom
// model in the settings screen.
func (g *Gateway) ListModels(ctx context.Context, apiKey, base string) ([]model.AIModel, error) {
	if apiKey == "" {
		return nil, ErrMissingOpenRouterKey
	}
	if base == "" {
		base = defaultOpenRouterBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create models request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("models request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("models request returned status %d", resp.StatusCode)
	}

	var parsed modelList
	err = json.NewDecoder(resp.Body).Decode(&parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	models := make([]model.AIModel, 0, len(parsed.Data))
	for _, m := range parsed.Data {
		name := m.Name
		if name == "" {
			name = m.ID
		}
		models = append(models, model.AIModel{
			ID:            m.ID,
			Name:          name,
			Description:   m.Description,
			ContextLength: m.ContextLength,
			IsMultimodal:  strings.Contains(m.Architecture.Modality, "image"),
		})
	}
	return models, nil
}
