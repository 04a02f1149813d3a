package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/ICL-System/ICL-Runtime/internal/cliconfig"
)

const (
	exitSuccess          = 0
	exitValidationFailed = 1
	exitInternalError    = 2
)

// app bundles the shared dependencies every subcommand needs: structured
// logging, resolved configuration, and color-aware diagnostic printers.
type app struct {
	cfg    *cliconfig.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer

	jsonMode bool
	quiet    bool

	errColor  *color.Color
	warnColor *color.Color
	okColor   *color.Color
}

func newApp(cfg *cliconfig.Config, logger *zap.Logger, out, errOut io.Writer, jsonMode, quiet bool) *app {
	useColor := cfg.ColorEnabled() && !jsonMode
	a := &app{
		cfg: cfg, logger: logger, out: out, errOut: errOut,
		jsonMode: jsonMode, quiet: quiet,
		errColor:  color.New(color.FgRed, color.Bold),
		warnColor: color.New(color.FgYellow),
		okColor:   color.New(color.FgGreen, color.Bold),
	}
	if !useColor {
		a.errColor.DisableColor()
		a.warnColor.DisableColor()
		a.okColor.DisableColor()
	}
	return a
}

func (a *app) infof(format string, args ...interface{}) {
	if a.quiet {
		return
	}
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}
