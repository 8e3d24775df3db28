package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for matthumb.
type Config struct {
	Project       ProjectConfig      `yaml:"project"`
	Output        OutputConfig       `yaml:"output"`
	Drain         DrainConfig        `yaml:"drain"`
	Preview       PreviewConfig      `yaml:"preview"`
	Log           LogConfig          `yaml:"log"`
	Metrics       MetricsConfig      `yaml:"metrics"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// ProjectConfig locates the material assets.
type ProjectConfig struct {
	// AssetsDir is the project's asset root. Relative asset paths are
	// derived from it as "Assets/<suffix>".
	AssetsDir string `yaml:"assets_dir"`
	// SourceDir is the enumeration root. Empty means <assets_dir>/Resources/Brushes.
	SourceDir string `yaml:"source_dir"`
	Extension string `yaml:"extension"`
}

// OutputConfig controls where and how thumbnails are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	Size   int    `yaml:"size"`
}

// DrainConfig controls the per-tick drain loop.
type DrainConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	// ItemTimeout skips an item that has not produced a preview in time.
	// Zero disables the deadline.
	ItemTimeout Duration `yaml:"item_timeout"`
	// MaxStalledTicks skips an item after this many ticks without progress.
	// Zero disables the limit.
	MaxStalledTicks int `yaml:"max_stalled_ticks"`
}

// PreviewConfig controls the asynchronous preview renderer.
type PreviewConfig struct {
	Size      int `yaml:"size"`
	Workers   int `yaml:"workers"`
	CacheSize int `yaml:"cache_size"`
}

// LogConfig selects the zerolog level and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus textfile dump.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// NotificationConfig controls how the user is notified when a run ends.
type NotificationConfig struct {
	TerminalBell bool     `yaml:"terminal_bell"`
	BellDebounce Duration `yaml:"bell_debounce"`
}

// Duration wraps time.Duration for YAML unmarshalling from strings like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Project: ProjectConfig{
			AssetsDir: "Assets",
			Extension: ".mat",
		},
		Output: OutputConfig{
			Dir:    "MaterialPreviews",
			Prefix: "Mx",
			Size:   128,
		},
		Drain: DrainConfig{
			TickInterval:    Duration{50 * time.Millisecond},
			ItemTimeout:     Duration{30 * time.Second},
			MaxStalledTicks: 200,
		},
		Preview: PreviewConfig{
			Size:      256,
			Workers:   4,
			CacheSize: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Notifications: NotificationConfig{
			TerminalBell: true,
			BellDebounce: Duration{5 * time.Second},
		},
	}
}

// Load reads the config file and merges with defaults.
// Missing file is not an error; defaults are used silently.
func Load() (Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom reads config from a specific path.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Defaults(), fmt.Errorf("config validation: %w", err)
	}

	cfg.Project.Extension = normalizeExtension(cfg.Project.Extension)

	return cfg, nil
}

// Validate checks ranges. It is exported so flag overrides can be rechecked.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Project.AssetsDir) == "" {
		return fmt.Errorf("project.assets_dir must not be empty")
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.Output.Size < 1 || c.Output.Size > 4096 {
		return fmt.Errorf("output.size must be between 1 and 4096, got %d", c.Output.Size)
	}

	ti := c.Drain.TickInterval.Duration
	if ti < time.Millisecond || ti > 5*time.Second {
		return fmt.Errorf("tick_interval must be between 1ms and 5s, got %s", ti)
	}
	if c.Drain.ItemTimeout.Duration < 0 {
		return fmt.Errorf("item_timeout must not be negative, got %s", c.Drain.ItemTimeout)
	}
	if c.Drain.MaxStalledTicks < 0 {
		return fmt.Errorf("max_stalled_ticks must not be negative, got %d", c.Drain.MaxStalledTicks)
	}

	if c.Preview.Size < 1 || c.Preview.Size > 4096 {
		return fmt.Errorf("preview.size must be between 1 and 4096, got %d", c.Preview.Size)
	}
	if c.Preview.Workers < 1 {
		return fmt.Errorf("preview.workers must be at least 1, got %d", c.Preview.Workers)
	}
	if c.Preview.CacheSize < 1 {
		return fmt.Errorf("preview.cache_size must be at least 1, got %d", c.Preview.CacheSize)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}

	return nil
}

// SourceDir returns the enumeration root, defaulting under the assets dir.
func (c Config) SourceDir() string {
	if c.Project.SourceDir != "" {
		return c.Project.SourceDir
	}
	return filepath.Join(c.Project.AssetsDir, "Resources", "Brushes")
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimPrefix(ext, "*")
	if ext == "" {
		return ".mat"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func configPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "matthumb", "config.yml")
}
