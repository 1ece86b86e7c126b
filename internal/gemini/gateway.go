package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

var (
	// ErrNotInitialized means Generate was called with no bound client. The
	// session controller checks binding first, so hitting this is a
	// programming error, but the gateway still guards it.
	ErrNotInitialized = errors.New("generation client is not initialized")
	// ErrCredentialRejected means the remote service refused the bound key
	// mid-generation.
	ErrCredentialRejected = errors.New("the API key is no longer valid")
	// ErrGenerationFailed covers every other remote failure.
	ErrGenerationFailed = errors.New("image generation failed")
)

const echoInstruction = `Reimagine the attached photo as a stylized "echo" of itself:
keep the subject and composition recognizable, but render it in a strikingly
different artistic treatment of your choosing. Return the reimagined image.
Also return, as plain text, the exact image-generation prompt you used, and
nothing else.`

// Result is what a successful generation produces: where the echo image can
// be loaded from and the prompt that made it.
type Result struct {
	Locator string `json:"locator"`
	Prompt  string `json:"prompt"`
}

// BlobStore persists a generated image and hands back a URL for it.
type BlobStore interface {
	Save(data []byte, mediaType string) (url string, err error)
}

// Gateway issues exactly one generation call per invocation against the
// holder's bound client. No retries; every retry is a fresh user action.
type Gateway struct {
	holder *Holder
	model  string
	store  BlobStore
}

func NewGateway(holder *Holder, model string, store BlobStore) *Gateway {
	return &Gateway{
		holder: holder,
		model:  model,
		store:  store,
	}
}

// Generate sends the base64 payload to the image model and returns the stored
// result image's locator plus the synthesized prompt.
func (g *Gateway) Generate(ctx context.Context, payload, mediaType string) (*Result, error) {
	client := g.holder.current()
	if client == nil {
		return nil, ErrNotInitialized
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload: %v", ErrGenerationFailed, err)
	}

	model := client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx,
		genai.ImageData(imageFormat(mediaType), data),
		genai.Text(echoInstruction),
	)
	if err != nil {
		return nil, classify(err)
	}

	imageBytes, imageType, prompt, err := extractEcho(resp)
	if err != nil {
		return nil, err
	}

	locator, err := g.store.Save(imageBytes, imageType)
	if err != nil {
		return nil, fmt.Errorf("%w: could not store result: %v", ErrGenerationFailed, err)
	}

	slog.Info("Generation complete", "model", g.model, "result", locator, "prompt_len", len(prompt))
	return &Result{Locator: locator, Prompt: prompt}, nil
}

// extractEcho pulls the first image part and the concatenated text parts out
// of a generation response.
func extractEcho(resp *genai.GenerateContentResponse) (imageBytes []byte, imageType, prompt string, err error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", "", fmt.Errorf("%w: empty response from model", ErrGenerationFailed)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if imageBytes == nil && strings.HasPrefix(p.MIMEType, "image/") {
				imageBytes = p.Data
				imageType = p.MIMEType
			}
		case genai.Text:
			text.WriteString(string(p))
		}
	}

	if imageBytes == nil {
		return nil, "", "", fmt.Errorf("%w: model returned no image", ErrGenerationFailed)
	}
	return imageBytes, imageType, strings.TrimSpace(text.String()), nil
}

// imageFormat maps a media type to the bare format name the SDK wants,
// e.g. "image/jpeg" -> "jpeg".
func imageFormat(mediaType string) string {
	if format, ok := strings.CutPrefix(mediaType, "image/"); ok && format != "" {
		return format
	}
	return "png"
}
