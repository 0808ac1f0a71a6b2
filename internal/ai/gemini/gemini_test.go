package gemini

import (
	"context"
	"fmt"
	"testing"

	"pixed/internal/ai"
	"pixed/internal/config"
	"pixed/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeModels struct {
	content *genai.GenerateContentResponse
	images  *genai.GenerateImagesResponse
	err     error

	model    string
	prompt   string
	contents []*genai.Content
	imgCfg   *genai.GenerateImagesConfig
	textCfg  *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model, f.contents, f.textCfg = model, contents, cfg
	return f.content, f.err
}

func (f *fakeModels) GenerateImages(_ context.Context, model, prompt string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	f.model, f.prompt, f.imgCfg = model, prompt, cfg
	return f.images, f.err
}

func testConfig() config.AI {
	return config.New().AI
}

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		w, h int
		want string
	}{
		{100, 100, "1:1"},
		{1920, 1080, "16:9"},
		{1080, 1920, "9:16"},
		{400, 300, "4:3"},
		{300, 400, "3:4"},
		{1000, 100, "16:9"},
		{100, 1000, "9:16"},
		{110, 100, "1:1"},
		{0, 50, "1:1"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.w, tt.h), func(t *testing.T) {
			assert.Equal(t, tt.want, AspectRatio(tt.w, tt.h))
		})
	}
}

func TestRemoveBackground(t *testing.T) {
	cfg := testConfig()
	fake := &fakeModels{content: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "here you go"},
				{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte{1, 2, 3}}},
			}},
		}},
	}}
	c := newClient(fake, cfg)

	out, err := c.RemoveBackground(context.Background(), ai.Image{MIMEType: "image/png", Data: []byte{9}})
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "image/png", out.MIMEType)
	assert.Equal(t, []byte{1, 2, 3}, out.Data)

	assert.Equal(t, cfg.BackgroundModel, fake.model)
	require.Len(t, fake.contents, 1)
	parts := fake.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, []byte{9}, parts[0].InlineData.Data)
	assert.Equal(t, cfg.RemovalInstruction, parts[1].Text)
	assert.Equal(t, []string{"IMAGE", "TEXT"}, fake.textCfg.ResponseModalities)
}

func TestRemoveBackgroundTextOnly(t *testing.T) {
	fake := &fakeModels{content: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "no"}}}}},
	}}
	out, err := newClient(fake, testConfig()).RemoveBackground(context.Background(), ai.Image{})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRemoveBackgroundError(t *testing.T) {
	fake := &fakeModels{err: fmt.Errorf("quota exceeded")}
	_, err := newClient(fake, testConfig()).RemoveBackground(context.Background(), ai.Image{})
	require.Error(t, err)
	assert.True(t, errors.IsServiceError(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate(t *testing.T) {
	cfg := testConfig()
	fake := &fakeModels{images: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			{RAIFilteredReason: "filtered"},
			{Image: &genai.Image{ImageBytes: []byte{7, 7}}},
		},
	}}
	c := newClient(fake, cfg)

	out, err := c.Generate(context.Background(), "a red balloon", 1600, 900)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, []byte{7, 7}, out.Data)
	assert.Equal(t, cfg.FillMIMEType, out.MIMEType)

	assert.Equal(t, cfg.FillModel, fake.model)
	assert.Equal(t, "a red balloon", fake.prompt)
	assert.Equal(t, int32(1), fake.imgCfg.NumberOfImages)
	assert.Equal(t, "16:9", fake.imgCfg.AspectRatio)
}

func TestGenerateEmpty(t *testing.T) {
	fake := &fakeModels{images: &genai.GenerateImagesResponse{}}
	out, err := newClient(fake, testConfig()).Generate(context.Background(), "x", 10, 10)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNewWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.APIKeyEnv = "PIXED_TEST_UNSET_KEY"
	t.Setenv("PIXED_TEST_UNSET_KEY", "")

	_, err := New(context.Background(), "", cfg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
}
