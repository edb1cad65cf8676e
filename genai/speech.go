package genai

import (
	"context"
	"encoding/base64"
	"fmt"
)

const speechModel = "gemini-2.5-flash-preview-tts"

// Speech output format of the TTS model: 16-bit little-endian PCM, mono.
const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1
	SpeechBitDepth   = 16
)

type speechRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig speechGenerateCfg `json:"generationConfig"`
}

type speechGenerateCfg struct {
	ResponseModalities []string     `json:"responseModalities"`
	SpeechConfig       speechConfig `json:"speechConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

// GenerateSpeech synthesizes text with one of the prebuilt voices and
// returns the raw decoded PCM samples. Encoding to a downloadable container
// is the caller's job.
func (c *Client) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	req := speechRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf("Read this text clearly: %q", text)}}}},
		GenerationConfig: speechGenerateCfg{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voiceID},
				},
			},
		},
	}

	var resp generateResponse
	if err := c.postJSON(ctx, "/models/"+speechModel+":generateContent", req, &resp); err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				pcm, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("failed to decode audio payload: %w", err)
				}
				return pcm, nil
			}
		}
	}
	return nil, ErrNoAudio
}
