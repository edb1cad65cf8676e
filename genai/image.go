package genai

import (
	"context"
	"encoding/base64"
	"fmt"
)

const imageModel = "gemini-2.5-flash-image"

type imageRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig imageGenerateCfg `json:"generationConfig"`
}

type imageGenerateCfg struct {
	ImageConfig imageConfig `json:"imageConfig"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio"`
}

// GeneratedImage is one inline image payload from the model.
type GeneratedImage struct {
	MimeType string
	Data     []byte
}

// GenerateImage renders a prompt to a single image. The first inline-data
// part of the response wins; a response with no image part is a content
// failure.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) (*GeneratedImage, error) {
	req := imageRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: imageGenerateCfg{
			ImageConfig: imageConfig{AspectRatio: aspectRatio},
		},
	}

	var resp generateResponse
	if err := c.postJSON(ctx, "/models/"+imageModel+":generateContent", req, &resp); err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("failed to decode image payload: %w", err)
				}
				return &GeneratedImage{MimeType: p.InlineData.MimeType, Data: raw}, nil
			}
		}
	}
	return nil, ErrNoImage
}
