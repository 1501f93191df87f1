// Command simplewasm builds, inspects and runs the sample module.
//
// Usage:
//
//	simplewasm build [-o simple.wasm] [--strategy locals|memory] [--placement custom|data] [--names]
//	simplewasm inspect FILE [--section GLOB]
//	simplewasm call FILE FUNC [ARGS...]
//	simplewasm check FILE
//	simplewasm run FILE
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/simple-wasm/engine"
)

// app carries state shared by subcommands once the root pre-run has
// resolved configuration.
type app struct {
	cfg     *Config
	log     *zap.Logger
	envFile string
	level   string
	lookup  func(string) (string, bool)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	root := newRootCmd(osLookup)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

func newRootCmd(lookup func(string) (string, bool)) *cobra.Command {
	a := &app{lookup: lookup}

	root := &cobra.Command{
		Use:           "simplewasm",
		Short:         "Build and exercise the simple wasm sample module",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", defaultEnvFile, "dotenv file with SIMPLEWASM_* settings")
	root.PersistentFlags().StringVar(&a.level, "log-level", "", "log level (debug, info, warn, error); overrides "+envLogLevel)

	root.AddCommand(
		newBuildCmd(a),
		newInspectCmd(a),
		newCallCmd(a),
		newCheckCmd(a),
		newRunCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := loadConfig(a.envFile, a.lookup)
	if err != nil {
		return err
	}
	if a.level != "" {
		cfg.LogLevel = a.level
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	engine.SetLogger(log.Named("engine"))
	return nil
}

// newEngine creates a wazero engine from the resolved configuration.
func (a *app) newEngine(ctx context.Context) (*engine.Engine, error) {
	return engine.New(ctx, &engine.Config{
		MemoryLimitPages: a.cfg.MemoryLimitPages,
		Logger:           a.log.Named("engine"),
	})
}

// readModule reads a module binary from path.
func readModule(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}
