package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogFormat represents the logging format type
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// UnmarshalText implements encoding.TextUnmarshaler for type-safe config parsing
func (f *LogFormat) UnmarshalText(text []byte) error {
	value := LogFormat(strings.ToLower(string(text)))
	switch value {
	case FormatText, FormatJSON:
		*f = value
		return nil
	case "":
		*f = FormatText
		return nil
	default:
		return fmt.Errorf("invalid log format %q, must be %q or %q", string(text), FormatText, FormatJSON)
	}
}

// Decode lets envconfig parse LogFormat with the same rules.
func (f *LogFormat) Decode(value string) error {
	return f.UnmarshalText([]byte(value))
}

// NewLogger configures the global logrus logger and returns it, so that
// dependencies logging through logrus share the format.
func NewLogger(format LogFormat, level string) (*logrus.Logger, error) {
	return configure(logrus.StandardLogger(), os.Stderr, format, level)
}

func configure(logger *logrus.Logger, out io.Writer, format LogFormat, level string) (*logrus.Logger, error) {
	lvl := logrus.InfoLevel
	if level != "" {
		parsed, err := logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logrus.ParseLevel: %w", err)
		}
		lvl = parsed
	}

	if format == FormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyMsg: "_msg", // VictoriaLogs expects "_msg"
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	logger.SetOutput(out)
	logger.SetLevel(lvl)
	return logger, nil
}
