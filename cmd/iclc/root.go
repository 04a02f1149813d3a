package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ICL-System/ICL-Runtime/internal/cliconfig"
)

var (
	flagJSON  bool
	flagQuiet bool
)

// Execute builds and runs the iclc root command, returning the process
// exit code (spec.md §6.4: 0 success, 1 validation failure, 2 I/O or
// internal error).
func Execute() int {
	exitCode := exitSuccess

	root := &cobra.Command{
		Use:           "iclc",
		Short:         "Validate, normalize, verify, and execute Intent Contract Language documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON output")
	root.PersistentFlags().BoolVar(&flagQuiet, "quiet", false, "suppress informational logging")

	cfg, err := cliconfig.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "iclc: loading configuration:", err)
		return exitInternalError
	}

	logger, err := newLogger(flagQuiet)
	if err != nil {
		fmt.Fprintln(os.Stderr, "iclc: initializing logger:", err)
		return exitInternalError
	}
	defer logger.Sync() //nolint:errcheck

	newAppFromFlags := func() *app {
		if flagJSON {
			cfg.JSON = true
		}
		if flagQuiet {
			cfg.Quiet = true
		}
		return newApp(cfg, logger, os.Stdout, os.Stderr, cfg.JSON, cfg.Quiet)
	}

	root.AddCommand(
		newValidateCmd(newAppFromFlags, &exitCode),
		newNormalizeCmd(newAppFromFlags, &exitCode),
		newVerifyCmd(newAppFromFlags, &exitCode),
		newExecuteCmd(newAppFromFlags, &exitCode),
		newHashCmd(newAppFromFlags, &exitCode),
		newFmtCmd(newAppFromFlags, &exitCode),
		newDiffCmd(newAppFromFlags, &exitCode),
		newInitCmd(newAppFromFlags, &exitCode),
		newVersionCmd(newAppFromFlags),
	)

	if err := root.Execute(); err != nil {
		logger.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "iclc:", err)
		if exitCode == exitSuccess {
			exitCode = exitInternalError
		}
	}

	return exitCode
}

func newLogger(quiet bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	if quiet {
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	return cfg.Build()
}
