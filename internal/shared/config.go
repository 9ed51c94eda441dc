package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Layout  LayoutConfig  `toml:"layout"`
	Fetch   FetchConfig   `toml:"fetch"`
	Resolve ResolveConfig `toml:"resolve"`
	Output  OutputConfig  `toml:"output"`
}

// LayoutConfig contains the physical sheet geometry consumed by the layout engine.
type LayoutConfig struct {
	DPI           int     `toml:"dpi"`
	CardWidthMM   float64 `toml:"card_width_mm"`
	CardHeightMM  float64 `toml:"card_height_mm"`
	GapMM         float64 `toml:"gap_mm"`
	MarginMM      float64 `toml:"margin_mm"`
	SheetWidthMM  float64 `toml:"sheet_width_mm"`
	SheetHeightMM float64 `toml:"sheet_height_mm"`
	MissingImage  string  `toml:"missing_image"`
}

// FetchConfig contains network and cache settings for the image fetcher.
type FetchConfig struct {
	RateLimit    float64 `toml:"rate_limit"`
	Workers      int     `toml:"workers"`
	Retries      int     `toml:"retries"`
	BackoffMS    int     `toml:"backoff_ms"`
	CacheDir     string  `toml:"cache_dir"`
	CacheEnabled bool    `toml:"cache_enabled"`
	UserAgent    string  `toml:"user_agent"`
}

// ResolveConfig contains card resolution settings.
type ResolveConfig struct {
	SkipUnresolved bool `toml:"skip_unresolved"`
	FuzzyThreshold int  `toml:"fuzzy_threshold"`
}

// OutputConfig contains document output settings.
type OutputConfig struct {
	Path   string `toml:"path"`
	Format string `toml:"format"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CacheDir resolves the image cache directory, falling back to the platform
// cache directory when the configured path is empty.
func (c *Config) CacheDir() (string, error) {
	if c.Fetch.CacheDir != "" {
		return c.Fetch.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(base, "proxysheet"), nil
}
