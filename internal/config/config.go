// Package config loads the triangle demo settings from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	mgl32 "github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// EnvValidation toggles the Vulkan validation layers regardless of the file.
const EnvValidation = "VK_VALIDATION"

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type Shaders struct {
	Vertex   string `yaml:"vertex"`
	Fragment string `yaml:"fragment"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	Window     Window     `yaml:"window"`
	Shaders    Shaders    `yaml:"shaders"`
	Validation bool       `yaml:"validation"`
	ClearColor mgl32.Vec4 `yaml:"clear_color"`
	Log        Log        `yaml:"log"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "Vulkan window",
			Width:  800,
			Height: 600,
		},
		Shaders: Shaders{
			Vertex:   "shaders/vert.spv",
			Fragment: "shaders/frag.spv",
		},
		Validation: true,
		ClearColor: mgl32.Vec4{0, 0, 0, 1},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height))
	}
	if c.Shaders.Vertex == "" {
		errs = append(errs, errors.New("vertex shader path is empty"))
	}
	if c.Shaders.Fragment == "" {
		errs = append(errs, errors.New("fragment shader path is empty"))
	}
	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("clear color component %d out of [0,1]: %v", i, v))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ApplyEnv lets VK_VALIDATION override the validation setting.
// "0" and "false" disable the layers, any other non-empty value enables them.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	val, ok := lookup(EnvValidation)
	if !ok || val == "" {
		return
	}
	switch val {
	case "0", "false", "False", "FALSE":
		c.Validation = false
	default:
		c.Validation = true
	}
}
