package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// analyzeWithGemini calls the Gemini API through the official SDK. The image,
// whether hosted or inline, always travels as inline bytes.
func (g *Gateway) analyzeWithGemini(ctx context.Context, apiKey, modelName, prompt, imageURL string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	var parts []*genai.Part
	if imageURL != "" {
		img, err := g.fetchImage(ctx, imageURL)
		if err != nil {
			return "", err
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("gemini analysis failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty analysis")
	}
	return text, nil
}
