package core

import (
	"context"
	"fmt"

	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _defaultOutputPaths = []string{"stderr"}

// LoggingConfig represents the logging configuration from the config files
type LoggingConfig struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	Encoding    string   `yaml:"encoding"`
	OutputPaths []string `yaml:"outputPaths"`
}

// Module provides the logger dependencies
var LoggerModule = fx.Options(
	fx.Provide(NewSugaredLogger),
	fx.Provide(NewLogger),
)

func NewLogger(sugar *zap.SugaredLogger) *zap.Logger {
	return sugar.Desugar()
}

// NewSugaredLogger creates a new zap.SugaredLogger based on the configuration.
// Output goes to stderr unless outputPaths says otherwise, since stdout may carry the protocol.
func NewSugaredLogger(lc fx.Lifecycle, provider config.Provider) (*zap.SugaredLogger, error) {
	var loggingConfig LoggingConfig

	// Get logging configuration from the provider
	if err := provider.Get("logging").Populate(&loggingConfig); err != nil {
		return nil, err
	}

	// Parse the log level
	level, err := zapcore.ParseLevel(loggingConfig.Level)
	if err != nil {
		return nil, err
	}

	// Create encoder config
	encoderConfig := zap.NewProductionEncoderConfig()
	if loggingConfig.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	// Create the encoder based on the configuration
	var encoder zapcore.Encoder
	switch loggingConfig.Encoding {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	outputPaths := loggingConfig.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = _defaultOutputPaths
	}
	sink, closeSink, err := zap.Open(outputPaths...)
	if err != nil {
		return nil, fmt.Errorf("opening log outputs: %w", err)
	}

	core := zapcore.NewCore(encoder, sink, level)

	// Create the logger
	var logger *zap.Logger
	if loggingConfig.Development {
		logger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		logger = zap.New(core)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync fails on terminals and pipes, nothing to report there.
			_ = logger.Sync()
			closeSink()
			return nil
		},
	})

	return logger.Sugar(), nil
}
