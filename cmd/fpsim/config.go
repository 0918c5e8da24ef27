package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/fpsim"
	"github.com/hupe1980/fpsim/popcount"
)

// Config is the YAML configuration file. Flags given on the command line
// override its values.
type Config struct {
	Threads     int               `yaml:"threads"`
	Alignment   int               `yaml:"alignment"`
	BatchSize   int               `yaml:"batch_size"`
	MemoryLimit string            `yaml:"memory_limit"`
	IOLimit     string            `yaml:"io_limit"`
	AutoSelect  bool              `yaml:"autoselect"`
	Popcount    map[string]string `yaml:"popcount"` // class name -> method name
	LogLevel    string            `yaml:"log_level"`
	LogFormat   string            `yaml:"log_format"` // text or json

	MinIO struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Secure    bool   `yaml:"secure"`
		Region    string `yaml:"region"`
	} `yaml:"minio"`

	S3 struct {
		Region   string `yaml:"region"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"s3"`
}

func defaultConfig() *Config {
	return &Config{LogLevel: "warn", LogFormat: "text"}
}

// loadConfig reads path on top of the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// applyFlags copies the flags set on cmd over the file values.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	fs := cmd.Flags()
	var err error
	if fs.Changed("threads") {
		c.Threads, err = fs.GetInt("threads")
	}
	if err == nil && fs.Changed("alignment") {
		c.Alignment, err = fs.GetInt("alignment")
	}
	if err == nil && fs.Changed("batch-size") {
		c.BatchSize, err = fs.GetInt("batch-size")
	}
	if err == nil && fs.Changed("memory-limit") {
		c.MemoryLimit, err = fs.GetString("memory-limit")
	}
	if err == nil && fs.Changed("io-limit") {
		c.IOLimit, err = fs.GetString("io-limit")
	}
	if err == nil && fs.Changed("autoselect") {
		c.AutoSelect, err = fs.GetBool("autoselect")
	}
	if err == nil && fs.Changed("log-level") {
		c.LogLevel, err = fs.GetString("log-level")
	}
	if err == nil && fs.Changed("log-format") {
		c.LogFormat, err = fs.GetString("log-format")
	}
	if err == nil && fs.Changed("popcount") {
		var pairs []string
		if pairs, err = fs.GetStringSlice("popcount"); err == nil {
			if c.Popcount == nil {
				c.Popcount = make(map[string]string)
			}
			for _, p := range pairs {
				class, method, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("--popcount wants class=method, got %q", p)
				}
				c.Popcount[class] = method
			}
		}
	}
	return err
}

// popcountConfig builds the method selection from the popcount section.
func (c *Config) popcountConfig() (*popcount.Config, error) {
	pc := popcount.NewConfig()
	for name, method := range c.Popcount {
		class, err := popcount.ParseClass(name)
		if err != nil {
			return nil, err
		}
		m, err := popcount.ParseMethod(method)
		if err != nil {
			return nil, err
		}
		if err := pc.Set(class, m); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func (c *Config) logger() (*fpsim.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return fpsim.NewTextLogger(level), nil
	case "json":
		return fpsim.NewJSONLogger(level), nil
	default:
		return nil, fmt.Errorf("log format %q: want text or json", c.LogFormat)
	}
}

// engineOptions translates the configuration into engine options.
func (c *Config) engineOptions() ([]fpsim.Option, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	memLimit, err := parseSize(c.MemoryLimit)
	if err != nil {
		return nil, fmt.Errorf("memory_limit: %w", err)
	}
	ioLimit, err := parseSize(c.IOLimit)
	if err != nil {
		return nil, fmt.Errorf("io_limit: %w", err)
	}
	pc, err := c.popcountConfig()
	if err != nil {
		return nil, err
	}

	opts := []fpsim.Option{
		fpsim.WithLogger(logger),
		fpsim.WithPopcountConfig(pc),
		fpsim.WithAlignment(c.Alignment),
		fpsim.WithBatchSize(c.BatchSize),
		fpsim.WithMemoryLimit(memLimit),
		fpsim.WithIOLimit(ioLimit),
	}
	if c.Threads != 0 {
		opts = append(opts, fpsim.WithThreads(c.Threads))
	}
	if c.AutoSelect {
		opts = append(opts, fpsim.WithAutoSelect())
	}
	return opts, nil
}

var errSize = errors.New("want a byte size such as 512MB or 2GB")

// parseSize parses a human-readable byte size: "1024", "64KB", "2GB", "0" or
// "unlimited".
func parseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" || s == "0" || s == "UNLIMITED" {
		return 0, nil
	}
	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30}, {"T", 1 << 40}} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.mult
			s = strings.TrimSuffix(s, unit.suffix)
			break
		}
	}

	val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("%w: %q", errSize, s)
	}
	return val * multiplier, nil
}
