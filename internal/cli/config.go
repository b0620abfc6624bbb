package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the jwtctl configuration, read from flags, JWTCTL_* environment
// variables and an optional YAML file, in that order of precedence.
type Config struct {
	// Algorithms lists the accepted algorithms. sign uses the first one.
	Algorithms []string    `mapstructure:"alg"`
	Key        string      `mapstructure:"key"`
	KeyFile    string      `mapstructure:"key_file"`
	Log        LogConfig   `mapstructure:"log"`
	Serve      ServeConfig `mapstructure:"serve"`
}

// LogConfig selects the level and format of the CLI logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// InitViper returns a viper instance with the jwtctl defaults and
// environment bindings.
func InitViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("jwtctl")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/jwtctl")

	v.SetEnvPrefix("JWTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("alg", []string{"HS256"})
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("serve.addr", ":8080")
}

// BindFlags registers the persistent flags shared by every command and
// binds them to v.
func BindFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.StringSlice("alg", nil, "Accepted algorithm(s), e.g. HS256 or RS256,PS256 (sign uses the first)")
	flags.String("key", "", "Key: an HMAC secret, a PEM block or a path to either")
	flags.String("key-file", "", "Path to the key file (takes precedence over --key)")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (text, json)")

	_ = v.BindPFlag("alg", flags.Lookup("alg"))
	_ = v.BindPFlag("key", flags.Lookup("key"))
	_ = v.BindPFlag("key_file", flags.Lookup("key-file"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
}

// Load reads the config file, if any, and decodes the merged configuration.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file; flags, env and defaults only.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Algorithms) == 0 {
		return Config{}, errors.New("at least one algorithm is required (--alg)")
	}

	return cfg, nil
}
