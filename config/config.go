package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/vultisig/bigchain-connection/connection"
	"github.com/vultisig/bigchain-connection/internal/logging"
	"github.com/vultisig/bigchain-connection/internal/metrics"
	"github.com/vultisig/bigchain-connection/libhttp"
)

const (
	envPrefix         = "TXWATCH"
	configNameEnv     = "TXWATCH_CONFIG_NAME"
	defaultConfigName = "config"
)

type TxWatchConfig struct {
	LogFormat   logging.LogFormat `mapstructure:"log_format" json:"log_format,omitempty" yaml:"log_format,omitempty" split_words:"true" validate:"omitempty,oneof=text json"`
	LogLevel    string            `mapstructure:"log_level" json:"log_level,omitempty" yaml:"log_level,omitempty" split_words:"true" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Concurrency int               `mapstructure:"concurrency" json:"concurrency,omitempty" yaml:"concurrency,omitempty" split_words:"true" validate:"gte=0"`
	Connection  connection.Config `mapstructure:"connection" json:"connection" yaml:"connection,omitempty" split_words:"true"`
	HTTP        libhttp.Config    `mapstructure:"http" json:"http" yaml:"http,omitempty" split_words:"true"`
	Metrics     metrics.Config    `mapstructure:"metrics" json:"metrics" yaml:"metrics,omitempty" split_words:"true"`
}

func Default() TxWatchConfig {
	return TxWatchConfig{
		LogFormat:   logging.FormatText,
		LogLevel:    "info",
		Concurrency: 4,
		Connection: connection.Config{
			Poll: connection.PollConfig{
				Interval: connection.DefaultPollInterval,
			},
		},
		HTTP: libhttp.Config{
			Timeout:      10 * time.Second,
			RetryMax:     3,
			RetryWaitMin: 100 * time.Millisecond,
			RetryWaitMax: 2 * time.Second,
		},
		Metrics: metrics.DefaultConfig(),
	}
}

// ReadTxWatchConfig loads the config file named by TXWATCH_CONFIG_NAME from
// the working directory, then applies TXWATCH_* environment variables.
func ReadTxWatchConfig() (*TxWatchConfig, error) {
	configName := os.Getenv(configNameEnv)
	if configName == "" {
		configName = defaultConfigName
	}
	return ReadConfig(configName, ".")
}

// Environment variables are named after the field path with split words, for
// example TXWATCH_CONNECTION_POLL_MAX_ATTEMPTS.
//
// ReadConfig builds the config from defaults, the optional file configName in
// paths and the environment, in that order.
func ReadConfig(configName string, paths ...string) (*TxWatchConfig, error) {
	v := viper.New()
	v.SetConfigName(configName)
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	cfg := Default()
	var notFound viper.ConfigFileNotFoundError
	err := v.ReadInConfig()
	switch {
	case err == nil:
		err = v.Unmarshal(&cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to decode into struct, %w", err)
		}
	case errors.As(err, &notFound):
	default:
		return nil, fmt.Errorf("fail to reading config file, %w", err)
	}

	err = envconfig.Process(envPrefix, &cfg)
	if err != nil {
		return nil, fmt.Errorf("envconfig.Process: %w", err)
	}

	cfg.normalize()
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *TxWatchConfig) normalize() {
	if c.Connection.BasePath != "" && !strings.HasSuffix(c.Connection.BasePath, "/") {
		c.Connection.BasePath += "/"
	}
	if c.Connection.Poll.Interval <= 0 {
		c.Connection.Poll.Interval = connection.DefaultPollInterval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
}

var validate = validator.New()

// Validate reports invalid fields by their config path only, so that secrets
// such as the metrics token never reach the error.
func (c *TxWatchConfig) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate.Struct: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "TxWatchConfig."), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
}

// Redacted returns a copy safe to print.
func (c TxWatchConfig) Redacted() TxWatchConfig {
	if c.Metrics.Token != "" {
		c.Metrics.Token = "***"
	}
	// header values carry credentials such as app_key
	headers := make(map[string]string, len(c.Connection.Headers))
	for k := range c.Connection.Headers {
		headers[k] = "***"
	}
	c.Connection.Headers = headers
	return c
}
