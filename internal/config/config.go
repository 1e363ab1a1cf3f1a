package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user directory under $HOME.
const DirName = ".scolaire"

// Global configuration structure.
type Global struct {
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir"`
	WorkspacesDir string `mapstructure:"workspaces_dir" yaml:"workspaces_dir"`
	TopN          int    `mapstructure:"top_n" yaml:"top_n"`

	// Charts
	ChartTheme  string `mapstructure:"chart_theme" yaml:"chart_theme"`
	ChartWidth  string `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight string `mapstructure:"chart_height" yaml:"chart_height"`
	AssetsHost  string `mapstructure:"assets_host" yaml:"assets_host"`

	// Loading
	DecimalSeparator string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	MaxRows          int    `mapstructure:"max_rows" yaml:"max_rows"`
	SampleRows       int    `mapstructure:"sample_rows" yaml:"sample_rows"`
}

// Keys lists the settable keys in display order.
func Keys() []string {
	return []string{
		"output_dir", "workspaces_dir", "top_n",
		"chart_theme", "chart_width", "chart_height", "assets_host",
		"decimal_separator", "max_rows", "sample_rows",
	}
}

// Dir returns ~/.scolaire.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// Get renders one key for display.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "output_dir":
		return c.OutputDir, nil
	case "workspaces_dir":
		return c.WorkspacesDir, nil
	case "top_n":
		return strconv.Itoa(c.TopN), nil
	case "chart_theme":
		return c.ChartTheme, nil
	case "chart_width":
		return c.ChartWidth, nil
	case "chart_height":
		return c.ChartHeight, nil
	case "assets_host":
		return c.AssetsHost, nil
	case "decimal_separator":
		if c.DecimalSeparator == "" {
			return "auto", nil
		}
		return c.DecimalSeparator, nil
	case "max_rows":
		return strconv.Itoa(c.MaxRows), nil
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), nil
	}
	return "", fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(Keys(), ", "))
}

// Set validates and assigns one key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "output_dir":
		c.OutputDir = val
	case "workspaces_dir":
		c.WorkspacesDir = val
	case "top_n", "max_rows", "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "top_n":
			c.TopN = i
		case "max_rows":
			c.MaxRows = i
		default:
			c.SampleRows = i
		}
	case "chart_theme":
		c.ChartTheme = val
	case "chart_width":
		c.ChartWidth = val
	case "chart_height":
		c.ChartHeight = val
	case "assets_host":
		c.AssetsHost = val
	case "decimal_separator":
		switch val {
		case ".", ",":
			c.DecimalSeparator = val
		case "", "auto":
			c.DecimalSeparator = ""
		default:
			return fmt.Errorf("invalid decimal_separator: %s (use ., , or auto)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.scolaire/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SCOLAIRE")
	v.AutomaticEnv()

	v.SetDefault("output_dir", ".")
	v.SetDefault("workspaces_dir", "")
	v.SetDefault("top_n", 10)
	v.SetDefault("chart_theme", "white")
	v.SetDefault("chart_width", "900px")
	v.SetDefault("chart_height", "500px")
	v.SetDefault("assets_host", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("sample_rows", 20)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve workspaces_dir default: ~/.scolaire/workspaces
	if c.WorkspacesDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.WorkspacesDir = filepath.Join(dir, "workspaces")
	}
	return &c, nil
}
