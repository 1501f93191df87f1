package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/fixture"
)

// Environment variables read by the CLI. Flags override them.
const (
	envOut              = "SIMPLEWASM_OUT"
	envStrategy         = "SIMPLEWASM_STRATEGY"
	envPlacement        = "SIMPLEWASM_PLACEMENT"
	envNames            = "SIMPLEWASM_NAMES"
	envSectionBase      = "SIMPLEWASM_SECTION_BASE"
	envLogLevel         = "SIMPLEWASM_LOG_LEVEL"
	envMemoryLimitPages = "SIMPLEWASM_MEMORY_LIMIT_PAGES"
)

const defaultEnvFile = ".env"

// Config is the resolved CLI configuration.
type Config struct {
	Out              string
	LogLevel         string
	Build            fixture.Options
	MemoryLimitPages uint32
}

func defaultConfig() *Config {
	return &Config{
		Out:      "simple.wasm",
		LogLevel: "warn",
		Build:    fixture.DefaultOptions(),
	}
}

// loadConfig reads envFile (if present) and the process environment.
// Process variables win over the file, as with godotenv.Load. A missing
// default file is not an error.
func loadConfig(envFile string, lookup func(string) (string, bool)) (*Config, error) {
	fileVars := map[string]string{}
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist) && envFile == defaultEnvFile:
		default:
			return nil, werrors.Wrap(werrors.PhaseConfig, werrors.KindInvalidInput, err, "read "+envFile)
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	cfg := defaultConfig()
	if v, ok := get(envOut); ok && v != "" {
		cfg.Out = v
	}
	if v, ok := get(envLogLevel); ok && v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := get(envStrategy); ok {
		s, err := fixture.ParseStrategy(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envStrategy, err)
		}
		cfg.Build.Strategy = s
	}
	if v, ok := get(envPlacement); ok {
		p, err := fixture.ParsePlacement(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envPlacement, err)
		}
		cfg.Build.Placement = p
	}
	if v, ok := get(envNames); ok && v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, configError(envNames, v, err)
		}
		cfg.Build.Names = b
	}
	if v, ok := get(envSectionBase); ok && v != "" {
		n, err := cast.ToUint32E(v)
		if err != nil {
			return nil, configError(envSectionBase, v, err)
		}
		cfg.Build.SectionBase = n
	}
	if v, ok := get(envMemoryLimitPages); ok && v != "" {
		n, err := cast.ToUint32E(v)
		if err != nil {
			return nil, configError(envMemoryLimitPages, v, err)
		}
		cfg.MemoryLimitPages = n
	}
	return cfg, nil
}

func configError(key, value string, err error) error {
	return werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).
		Path(key).
		Value(value).
		Cause(err).
		Build()
}

// newLogger builds a console logger on stderr at the given level.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, werrors.Wrap(werrors.PhaseConfig, werrors.KindInvalidInput, err, "log level")
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = lvl > zapcore.DebugLevel
	return cfg.Build()
}

// osLookup is the process environment lookup used outside tests.
var osLookup = os.LookupEnv
