// Package gemini implements the ai services on top of the Gemini API.
package gemini

import (
	"context"
	"math"
	"os"

	"pixed/internal/ai"
	"pixed/internal/config"
	"pixed/internal/errors"
	"pixed/internal/log"

	"google.golang.org/genai"
)

// models is the part of genai.Models the client calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client removes backgrounds with an image-editing model and fills
// selections with an image-generation model.
type Client struct {
	models models
	cfg    config.AI
	log    *log.Logger
}

// aspectRatios are the ratios the image model accepts.
var aspectRatios = []struct {
	name  string
	ratio float64
}{
	{"1:1", 1},
	{"3:4", 3.0 / 4.0},
	{"4:3", 4.0 / 3.0},
	{"9:16", 9.0 / 16.0},
	{"16:9", 16.0 / 9.0},
}

// New connects to the Gemini API with apiKey. An empty key falls back to
// the environment variable named in cfg.
func New(ctx context.Context, apiKey string, cfg config.AI) (*Client, error) {
	if apiKey == "" && cfg.APIKeyEnv != "" {
		apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	if apiKey == "" {
		return nil, errors.NewConfigError("no API key configured", "ai.api_key_env", errors.InvalidConfig, nil)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewServiceError("failed to create Gemini client", "connect", errors.ServiceFailed, err)
	}
	return newClient(client.Models, cfg), nil
}

func newClient(m models, cfg config.AI) *Client {
	return &Client{
		models: m,
		cfg:    cfg,
		log:    log.LogWithFields(log.F("component", "gemini")),
	}
}

// RemoveBackground sends img with the removal instruction and returns the
// first image in the reply.
func (c *Client) RemoveBackground(ctx context.Context, img ai.Image) (*ai.Image, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(img.Data, img.MIMEType),
		genai.NewPartFromText(c.cfg.RemovalInstruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	c.log.With(log.F("model", c.cfg.BackgroundModel), log.F("bytes", len(img.Data))).Debug("Requesting background removal")
	resp, err := c.models.GenerateContent(ctx, c.cfg.BackgroundModel, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, errors.NewServiceError("background removal request failed", ai.KindRemoveBackground.String(), errors.ServiceFailed, err).
			WithContext("model", c.cfg.BackgroundModel)
	}
	return firstInline(resp), nil
}

// Generate asks the image model for one picture at the aspect ratio
// closest to width x height.
func (c *Client) Generate(ctx context.Context, prompt string, width, height int) (*ai.Image, error) {
	ratio := AspectRatio(width, height)
	c.log.With(log.F("model", c.cfg.FillModel), log.F("aspect", ratio)).Debug("Requesting generated image")

	resp, err := c.models.GenerateImages(ctx, c.cfg.FillModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    ratio,
		OutputMIMEType: c.cfg.FillMIMEType,
	})
	if err != nil {
		return nil, errors.NewServiceError("image generation request failed", ai.KindGenerativeFill.String(), errors.ServiceFailed, err).
			WithContext("model", c.cfg.FillModel).
			WithContext("aspect", ratio)
	}
	return firstGenerated(resp, c.cfg.FillMIMEType), nil
}

// AspectRatio returns the supported ratio nearest to width x height,
// compared on a log scale so 2:1 and 1:2 are equally far from square.
func AspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return aspectRatios[0].name
	}
	want := math.Log(float64(width) / float64(height))
	best, dist := aspectRatios[0].name, math.Inf(1)
	for _, ar := range aspectRatios {
		if d := math.Abs(math.Log(ar.ratio) - want); d < dist {
			best, dist = ar.name, d
		}
	}
	return best
}

func firstInline(resp *genai.GenerateContentResponse) *ai.Image {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ai.Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}
			}
		}
	}
	return nil
}

func firstGenerated(resp *genai.GenerateImagesResponse, fallbackMIME string) *ai.Image {
	if resp == nil {
		return nil
	}
	for _, gen := range resp.GeneratedImages {
		if gen == nil || gen.Image == nil || len(gen.Image.ImageBytes) == 0 {
			continue
		}
		mime := gen.Image.MIMEType
		if mime == "" {
			mime = fallbackMIME
		}
		return &ai.Image{MIMEType: mime, Data: gen.Image.ImageBytes}
	}
	return nil
}
