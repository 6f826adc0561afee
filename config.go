package spheres

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxLogicRate    = 60
	DefaultMaxFrameRate    = 100
	DefaultProfileDumpRate = 100
)

type Config struct {
	Loop       LoopConfig                    `yaml:"loop"`
	Display    DisplayConfig                 `yaml:"display"`
	Resources  ResourceConfig                `yaml:"resources"`
	Shaders    map[string][]ShaderSourceFile `yaml:"shaders"`
	Screenshot string                        `yaml:"screenshot"`
	Debug      bool                          `yaml:"debug"`
}

type LoopConfig struct {
	// Maximum logic ticks per second.
	MaxLogicRate int `yaml:"max_logic_rate"`
	// Maximum render ticks per second.
	MaxFrameRate int `yaml:"max_frame_rate"`
	// Zero runs until Terminate is called.
	ExitAfterIterations int    `yaml:"exit_after_iterations"`
	Profile             bool   `yaml:"profile"`
	ProfileFile         string `yaml:"profile_file"`
	ProfileDumpRate     int    `yaml:"profile_dump_rate"`
}

type DisplayConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	Stereo bool   `yaml:"stereo"`
}

type ResourceConfig struct {
	Root  string `yaml:"root"`
	Watch bool   `yaml:"watch"`
}

func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a yaml file and fills every unset value with its default.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Loop.MaxLogicRate <= 0 {
		c.Loop.MaxLogicRate = DefaultMaxLogicRate
	}
	if c.Loop.MaxFrameRate <= 0 {
		c.Loop.MaxFrameRate = DefaultMaxFrameRate
	}
	if c.Loop.ProfileDumpRate <= 0 {
		c.Loop.ProfileDumpRate = DefaultProfileDumpRate
	}
	if c.Loop.ProfileFile == "" {
		c.Loop.ProfileFile = "profile.txt"
	}
	if c.Display.Width <= 0 {
		c.Display.Width = 800
	}
	if c.Display.Height <= 0 {
		c.Display.Height = 600
	}
	if c.Display.Title == "" {
		c.Display.Title = "Spheres"
	}
	if c.Resources.Root == "" {
		c.Resources.Root = "data"
	}
	if c.Shaders == nil {
		c.Shaders = DefaultShaderDefinitions()
	}
}

func (c Config) Validate() error {
	if c.Loop.ExitAfterIterations < 0 {
		return fmt.Errorf("loop.exit_after_iterations must not be negative, got %d", c.Loop.ExitAfterIterations)
	}
	for name, files := range c.Shaders {
		if len(files) == 0 {
			return fmt.Errorf("shader program %q has no source files", name)
		}
		for _, f := range files {
			if _, err := ParseShaderStage(f.Stage); err != nil {
				return fmt.Errorf("shader program %q: %w", name, err)
			}
		}
	}
	return nil
}

// LogicPeriod is the minimal duration of one logic tick.
func (c LoopConfig) LogicPeriod() time.Duration {
	return periodOf(c.MaxLogicRate)
}

// FramePeriod is the minimal duration of one render tick.
func (c LoopConfig) FramePeriod() time.Duration {
	return periodOf(c.MaxFrameRate)
}

func periodOf(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Second / time.Duration(rate)
}
