// Command bindwatch inspects and watches key-bindings files.
//
// Usage:
//
//	bindwatch [global options] <command> [arguments]
//
// Commands:
//
//	dump       Print a bindings file as XML, JSON, JSONC, YAML or TOML
//	fmt        Re-serialize a bindings file
//	watch      Report changes to a directory or a bindings file
//	version    Show version information
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const version = "0.1.0"

const loggerMetadataKey = "logger"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "bindwatch",
		Usage:     "Inspect and watch key-bindings files",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level: debug, info, warn or error",
				EnvVars: []string{"BINDWATCH_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "log-dev",
				Usage: "human-readable development logging",
			},
		},
		Before: func(c *cli.Context) error {
			logger, err := newLogger(c.String("log-level"), c.Bool("log-dev"))
			if err != nil {
				return err
			}
			c.App.Metadata = map[string]any{loggerMetadataKey: logger}
			return nil
		},
		After: func(c *cli.Context) error {
			loggerFrom(c).Sync()
			return nil
		},
		Commands: []*cli.Command{
			dumpCommand(),
			fmtCommand(),
			watchCommand(),
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "bindwatch version %s\n", version)
					return nil
				},
			},
		},
	}
}

// loggerFrom returns the logger built in Before, or a no-op logger.
func loggerFrom(c *cli.Context) *zap.Logger {
	if l, ok := c.App.Metadata[loggerMetadataKey].(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
