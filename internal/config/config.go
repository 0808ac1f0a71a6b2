package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pixed/internal/errors"
	"pixed/pkg/types"

	"github.com/adrg/xdg"
	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Transparent is the background value that leaves the canvas unfilled.
const Transparent = types.Transparent

// Preset is a named document size offered when creating a new canvas.
type Preset struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

// Canvas holds the defaults for a new document.
type Canvas struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"` // hex colour or "transparent"
}

// View holds display settings that never affect document content.
type View struct {
	ZoomStep     float64 `yaml:"zoom_step"`
	CheckerSize  int     `yaml:"checker_size"`
	CheckerLight string  `yaml:"checker_light"`
	CheckerDark  string  `yaml:"checker_dark"`
}

// AI configures the generative services.
type AI struct {
	APIKeyEnv          string `yaml:"api_key_env"`
	BackgroundModel    string `yaml:"background_model"`
	FillModel          string `yaml:"fill_model"`
	FillMIMEType       string `yaml:"fill_mime_type"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	RemovalInstruction string `yaml:"removal_instruction"`
}

// Import restricts which files may be opened or placed as layers.
type Import struct {
	Patterns []string `yaml:"patterns"`
}

// Log mirrors the logging flags of the command line.
type Log struct {
	Debug bool   `yaml:"debug"`
	JSON  bool   `yaml:"json"`
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Config represents the application configuration structure.
type Config struct {
	Canvas  Canvas   `yaml:"canvas"`
	Presets []Preset `yaml:"presets"`
	View    View     `yaml:"view"`
	AI      AI       `yaml:"ai"`
	Import  Import   `yaml:"import"`
	Log     Log      `yaml:"log"`
}

// DefaultPath returns $XDG_CONFIG_HOME/pixed/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "pixed", "config.yaml")
}

// LoadConfig loads configuration from the default location.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(DefaultPath())
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Unmarshal into a temporary config to preserve defaults for unset fields
	var tmp Config
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	cfg.merge(&tmp)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	if o.Canvas.Width > 0 {
		c.Canvas.Width = o.Canvas.Width
	}
	if o.Canvas.Height > 0 {
		c.Canvas.Height = o.Canvas.Height
	}
	if o.Canvas.Background != "" {
		c.Canvas.Background = o.Canvas.Background
	}
	if len(o.Presets) > 0 {
		c.Presets = o.Presets
	}

	if o.View.ZoomStep != 0 {
		c.View.ZoomStep = o.View.ZoomStep
	}
	if o.View.CheckerSize != 0 {
		c.View.CheckerSize = o.View.CheckerSize
	}
	if o.View.CheckerLight != "" {
		c.View.CheckerLight = o.View.CheckerLight
	}
	if o.View.CheckerDark != "" {
		c.View.CheckerDark = o.View.CheckerDark
	}

	if o.AI.APIKeyEnv != "" {
		c.AI.APIKeyEnv = o.AI.APIKeyEnv
	}
	if o.AI.BackgroundModel != "" {
		c.AI.BackgroundModel = o.AI.BackgroundModel
	}
	if o.AI.FillModel != "" {
		c.AI.FillModel = o.AI.FillModel
	}
	if o.AI.FillMIMEType != "" {
		c.AI.FillMIMEType = o.AI.FillMIMEType
	}
	if o.AI.TimeoutSeconds != 0 {
		c.AI.TimeoutSeconds = o.AI.TimeoutSeconds
	}
	if o.AI.RemovalInstruction != "" {
		c.AI.RemovalInstruction = o.AI.RemovalInstruction
	}

	if len(o.Import.Patterns) > 0 {
		c.Import.Patterns = o.Import.Patterns
	}

	c.Log.Debug = o.Log.Debug
	c.Log.JSON = o.Log.JSON
	if o.Log.Level != "" {
		c.Log.Level = o.Log.Level
	}
	c.Log.File = o.Log.File
}

func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Canvas.Width = 1920
	cfg.Canvas.Height = 1080
	cfg.Canvas.Background = "#FFFFFF"

	cfg.Presets = []Preset{
		{Name: "HDTV 1080p", Category: "Video", Width: 1920, Height: 1080},
		{Name: "UHDTV/4K/2160p", Category: "Video", Width: 3840, Height: 2160},
		{Name: "Instagram Post", Category: "Social", Width: 1080, Height: 1080},
		{Name: "Instagram Story", Category: "Social", Width: 1080, Height: 1920},
		{Name: "YouTube Thumbnail", Category: "Social", Width: 1280, Height: 720},
	}

	cfg.View.ZoomStep = 0.1
	cfg.View.CheckerSize = 8
	cfg.View.CheckerLight = "#FFFFFF"
	cfg.View.CheckerDark = "#CCCCCC"

	cfg.AI.APIKeyEnv = "GEMINI_API_KEY"
	cfg.AI.BackgroundModel = "gemini-2.5-flash-image"
	cfg.AI.FillModel = "imagen-4.0-generate-001"
	cfg.AI.FillMIMEType = "image/jpeg"
	cfg.AI.TimeoutSeconds = 120
	cfg.AI.RemovalInstruction = "Remove the background of this image. Make the background transparent."

	cfg.Import.Patterns = []string{"*.{png,PNG}", "*.{jpg,jpeg,JPG,JPEG}", "*.{gif,GIF}", "*.{webp,WEBP}", "*.{bmp,BMP}"}

	cfg.Log.Level = "info"
	return cfg
}

// SaveConfig saves the configuration to the specified file.
// It creates parent directories if they don't exist.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return errors.NewConfigError("canvas size must be positive", "canvas", errors.InvalidConfig, nil)
	}
	if _, _, err := ParseColor(c.Canvas.Background); err != nil {
		return errors.NewConfigError("invalid background colour", "canvas.background", errors.InvalidConfig, err)
	}

	for i, p := range c.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return errors.NewConfigError(fmt.Sprintf("preset %d: name is required", i), "presets", errors.InvalidConfig, nil)
		}
		if p.Width <= 0 || p.Height <= 0 {
			return errors.NewConfigError(fmt.Sprintf("preset %q: size must be positive", p.Name), "presets", errors.InvalidConfig, nil)
		}
	}

	if c.View.ZoomStep <= 0 || c.View.ZoomStep > 16 {
		return errors.NewConfigError("zoom step must be in (0, 16]", "view.zoom_step", errors.InvalidConfig, nil)
	}
	if c.View.CheckerSize <= 0 {
		return errors.NewConfigError("checker size must be positive", "view.checker_size", errors.InvalidConfig, nil)
	}
	for param, value := range map[string]string{"view.checker_light": c.View.CheckerLight, "view.checker_dark": c.View.CheckerDark} {
		if _, transparent, err := ParseColor(value); err != nil || transparent {
			return errors.NewConfigError("checker colours must be opaque hex colours", param, errors.InvalidConfig, err)
		}
	}

	if c.AI.TimeoutSeconds <= 0 {
		return errors.NewConfigError("timeout must be positive", "ai.timeout_seconds", errors.InvalidConfig, nil)
	}

	for _, p := range c.Import.Patterns {
		if _, err := glob.Compile(p); err != nil {
			return errors.NewConfigError(fmt.Sprintf("bad pattern %q", p), "import.patterns", errors.InvalidConfig, err)
		}
	}
	return nil
}

// Timeout returns the AI request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// FindPreset looks up a preset by case-insensitive name.
func (c *Config) FindPreset(name string) (Preset, bool) {
	for _, p := range c.Presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}

// ParseColor parses a hex colour or "transparent".
func ParseColor(s string) (color.NRGBA, bool, error) {
	return types.ParseColor(s)
}

// New creates a new configuration instance with default values.
func New() *Config {
	return defaultConfig()
}
