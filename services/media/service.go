// Package media wraps the OpenAI image and speech endpoints used by the
// exercise generators. Every failure here is recoverable: callers ship the
// exercise without the media instead of failing the request.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Service struct {
	client     *openai.Client
	httpClient *http.Client
}

func NewService(apiKey string) *Service {
	return &Service{
		client:     openai.NewClient(apiKey),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// GenerateWordImage renders a simple cartoon illustration of a single
// object and returns both the hosted URL and a base64 copy for embedding.
func (s *Service) GenerateWordImage(ctx context.Context, word string) (url, imageBase64 string, err error) {
	prompt := fmt.Sprintf("A simple, friendly kindergarten cartoon illustration of a %s (a single, clear object, not a scene or multiple objects). Style: simple children's book art, bright primary colors, very simple shapes with thick black outlines, minimalist design perfect for young children, white background, centered composition. The %s should be the main and only focus of the image.", word, word)

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Model:   openai.CreateImageModelDallE3,
		Prompt:  prompt,
		Size:    openai.CreateImageSize1024x1024,
		Quality: openai.CreateImageQualityStandard,
		N:       1,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", "", fmt.Errorf("image response contained no data")
	}
	url = resp.Data[0].URL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return url, "", fmt.Errorf("failed to build image download request: %w", err)
	}
	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return url, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return url, "", fmt.Errorf("failed to read image body: %w", err)
	}

	return url, base64.StdEncoding.EncodeToString(data), nil
}

var speakerLine = regexp.MustCompile(`^(María|Juan):\s*(.+)$`)

// SynthesizeDialogue turns a two-speaker conversation into one MP3,
// synthesizing each turn with a voice per speaker and concatenating the
// segments. Returns the audio as base64.
func (s *Service) SynthesizeDialogue(ctx context.Context, conversation string) (string, error) {
	voices := map[string]openai.SpeechVoice{
		"María": openai.VoiceNova,
		"Juan":  openai.VoiceOnyx,
	}

	var audio []byte
	turns := 0
	for _, line := range strings.Split(conversation, "\n") {
		line = strings.TrimSpace(line)
		m := speakerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		speaker, utterance := m[1], m[2]

		resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          openai.TTSModel1,
			Input:          utterance,
			Voice:          voices[speaker],
			ResponseFormat: openai.SpeechResponseFormatMp3,
		})
		if err != nil {
			return "", fmt.Errorf("failed to synthesize turn %d: %w", turns+1, err)
		}
		segment, err := io.ReadAll(resp)
		resp.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read audio for turn %d: %w", turns+1, err)
		}
		audio = append(audio, segment...)
		turns++
	}

	if turns == 0 {
		return "", fmt.Errorf("no speaker turns found in conversation")
	}

	log.Printf("[INFO] Synthesized dialogue audio: %d bytes, %d turns", len(audio), turns)
	return base64.StdEncoding.EncodeToString(audio), nil
}
