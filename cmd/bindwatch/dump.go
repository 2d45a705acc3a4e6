package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/yacchi/bindwatch/bindings"
	"github.com/yacchi/bindwatch/format"
	"github.com/yacchi/bindwatch/format/json"
	"github.com/yacchi/bindwatch/format/jsonc"
	"github.com/yacchi/bindwatch/format/toml"
	"github.com/yacchi/bindwatch/format/yaml"
	"github.com/yacchi/bindwatch/source"
	sourcebytes "github.com/yacchi/bindwatch/source/bytes"
	"github.com/yacchi/bindwatch/source/fs"
	"go.uber.org/zap"
)

const formatXML = "xml"

// outputCodecs are the non-XML output formats.
var outputCodecs = format.NewRegistry(json.NewCodec(), jsonc.NewCodec(), yaml.NewCodec(), toml.NewCodec())

func formatUsage() string {
	names := []string{formatXML}
	for _, f := range outputCodecs.Formats() {
		names = append(names, string(f))
	}
	return "output format: " + strings.Join(names, ", ")
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Print a bindings file",
		ArgsUsage: "FILE|-",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   string(format.JSON),
				Usage:   formatUsage(),
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("dump requires exactly one FILE argument", 2)
			}
			src, name, err := openSource(c, c.Args().First())
			if err != nil {
				return err
			}
			p, err := loadPreset(c, src, name)
			if err != nil {
				return err
			}
			loggerFrom(c).Debug("parsed bindings",
				zap.String("path", name),
				zap.String("preset", p.Name),
				zap.Int("bindings", len(p.Bindings)))
			return writePreset(c.App.Writer, p, c.String("format"))
		},
	}
}

func fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "Re-serialize a bindings file",
		ArgsUsage: "FILE|-",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "write the result back to FILE instead of stdout",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("fmt requires exactly one FILE argument", 2)
			}
			src, name, err := openSource(c, c.Args().First())
			if err != nil {
				return err
			}
			if !c.Bool("write") {
				p, err := loadPreset(c, src, name)
				if err != nil {
					return err
				}
				_, err = p.WriteTo(c.App.Writer)
				return err
			}

			err = src.Save(c.Context, func(current []byte) ([]byte, error) {
				p, err := bindings.Parse(bytes.NewReader(current))
				if err != nil {
					return nil, err
				}
				return p.MarshalBinds()
			})
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			loggerFrom(c).Info("bindings file rewritten", zap.String("path", name))
			return nil
		},
	}
}

// openSource returns the source for a FILE argument; "-" reads standard input.
func openSource(c *cli.Context, arg string) (source.Source, string, error) {
	if arg == "-" {
		src, err := sourcebytes.FromReader(c.App.Reader)
		return src, "<stdin>", err
	}
	src := fs.New(arg)
	return src, src.ResolvedPath(), nil
}

func loadPreset(c *cli.Context, src source.Source, name string) (*bindings.Preset, error) {
	data, err := src.Load(c.Context)
	if err != nil {
		return nil, err
	}
	p, err := bindings.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return p, nil
}

// writePreset writes p in the named output format.
func writePreset(w io.Writer, p *bindings.Preset, name string) error {
	if strings.EqualFold(name, formatXML) {
		_, err := p.WriteTo(w)
		return err
	}
	codec, err := outputCodecs.Lookup(name)
	if err != nil {
		return err
	}
	data, err := codec.Marshal(p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
