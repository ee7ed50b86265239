package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/jcdickinson/ruledoc/internal/docstring"
	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultOutputDir  = "."
	DefaultOutputFile = "ruledoc.zip"
	DefaultWorkers    = 4
)

type OutputConfig struct {
	Format  naming.Format `mapstructure:"format"`
	Dir     string        `mapstructure:"dir"`
	File    string        `mapstructure:"file"`
	Zip     bool          `mapstructure:"zip"`
	Renames string        `mapstructure:"renames"`

	FrontMatter bool `mapstructure:"front_matter"`
}

type ParserConfig struct {
	Escape string `mapstructure:"escape"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

type Config struct {
	Output  OutputConfig `mapstructure:"output"`
	Parser  ParserConfig `mapstructure:"parser"`
	Cache   CacheConfig  `mapstructure:"cache"`
	Workers int          `mapstructure:"workers"`
}

// cacheBase returns the base cache directory for ruledoc.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/ruledoc as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "ruledoc")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "ruledoc")
	}
	return filepath.Join(os.TempDir(), "ruledoc")
}

// CacheDir returns the default directory of the extraction cache.
func CacheDir() string {
	return filepath.Join(cacheBase(), "extract")
}

// flagKeys maps command line flags to the config keys they override.
var flagKeys = map[string]string{
	"format":       "output.format",
	"output-dir":   "output.dir",
	"output-file":  "output.file",
	"zip":          "output.zip",
	"renames":      "output.renames",
	"front-matter": "output.front_matter",
	"escape":       "parser.escape",
	"cache":        "cache.enabled",
	"cache-dir":    "cache.dir",
	"workers":      "workers",
}

// BindFlags lets the flags in fs that are set on the command line override
// config file and environment values.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func InitializeViper(v *viper.Viper) error {
	v.SetConfigName("config")
	v.SetConfigType("toml")

	v.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		v.AddConfigPath(filepath.Join(xdg, "ruledoc"))
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "ruledoc"))
	}

	v.SetDefault("output.format", string(naming.Markdown))
	v.SetDefault("output.dir", "")
	v.SetDefault("output.file", "")
	v.SetDefault("output.zip", true)
	v.SetDefault("output.renames", "")
	v.SetDefault("output.front_matter", false)
	v.SetDefault("parser.escape", "html")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.dir", CacheDir())
	v.SetDefault("workers", DefaultWorkers)

	v.SetEnvPrefix("RULEDOC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func stringToFormatHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(naming.Format("")) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return naming.ParseFormat(data.(string))
		}
		return data, nil
	}
}

// Load reads the configuration from v, which may already have flags bound.
func Load(v *viper.Viper) (*Config, error) {
	if err := InitializeViper(v); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       stringToFormatHookFunc(),
		WeaklyTypedInput: true,
		Result:           &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks option combinations and fills in the output defaults.
func (c *Config) Validate() error {
	if c.Output.Dir != "" && c.Output.File != "" {
		return &naming.InputError{Msg: "only one of --output-dir or --output-file can be set"}
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Output.File == "" {
		c.Output.File = DefaultOutputFile
	}
	if c.Output.Format == "" {
		c.Output.Format = naming.Markdown
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if _, err := c.Parser.Escaper(); err != nil {
		return err
	}
	return nil
}

// Escaper returns the escaper selected by parser.escape.
func (p ParserConfig) Escaper() (docstring.Escaper, error) {
	switch strings.ToLower(strings.TrimSpace(p.Escape)) {
	case "", "html":
		return docstring.HTMLEscaper, nil
	case "none":
		return docstring.NoEscape, nil
	}
	return nil, &naming.InputError{Msg: fmt.Sprintf("invalid parser.escape %q; possible values are \"html\" and \"none\"", p.Escape)}
}
