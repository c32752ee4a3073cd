package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/samcharles93/plum/internal/catalog"
	"github.com/samcharles93/plum/internal/logger"
	"github.com/samcharles93/plum/pkg/plum"
	"github.com/urfave/cli/v3"
)

func unpackCmd() *cli.Command {
	return &cli.Command{
		Name:      "unpack",
		Usage:     "Unpack a file (or stdin) with a layout",
		ArgsUsage: "[FILE|-]",
		Flags: []cli.Flag{
			layoutFlag(),
			inputLimitFlag(),
			&cli.Int64Flag{
				Name:        "offset",
				Usage:       "byte offset to start at",
				Destination: &offset,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "fail when bytes remain after the layout",
				Destination: &strict,
			},
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "output format (table, json, value)",
				Value:       "table",
				Destination: &format,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyUnpackConfig(cmd, loaded)
			log := logger.FromContext(ctx)

			l, err := catalog.Builtin().Lookup(layoutName)
			if err != nil {
				return err
			}
			in, err := openInput(cmd.Args().First(), maxInput)
			if err != nil {
				return err
			}
			defer func() { _ = in.Close() }()
			log.Debug("input loaded", "path", in.Path, "bytes", len(in.Data), "mapped", in.Mapped())

			res, err := runUnpack(l, in.Data, int(offset), strict)
			if err != nil {
				log.Debug("unpack failed", "layout", l.Name, "dump", dumpText(err))
				return err
			}
			log.Info("unpacked", "layout", l.Name, "offset", offset, "consumed", res.consumed)
			return writeUnpack(cmd.Root().Writer, format, l.Name, res)
		},
	}
}

type unpackResult struct {
	value    plum.Value
	consumed int
	dump     *plum.Record
}

func runUnpack(l catalog.Layout, data []byte, off int, strict bool) (unpackResult, error) {
	if off < 0 {
		return unpackResult{}, fmt.Errorf("offset must not be negative")
	}
	if strict {
		window := data[min(off, len(data)):]
		v, rec, err := plum.UnpackAndGetDump(l.Type, window)
		if err != nil {
			return unpackResult{}, err
		}
		return unpackResult{value: v, consumed: len(window), dump: rec}, nil
	}
	v, n, rec, err := plum.UnpackFromAndGetDump(l.Type, data, off)
	if err != nil {
		return unpackResult{}, err
	}
	return unpackResult{value: v, consumed: n, dump: rec}, nil
}

func writeUnpack(w io.Writer, format, layout string, res unpackResult) error {
	switch format {
	case "", "table":
		_, err := fmt.Fprintln(w, res.dump.String())
		return err
	case "value":
		_, err := fmt.Fprintln(w, res.value.String())
		return err
	case "json":
		value, err := plum.MarshalValue(res.value)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(struct {
			Layout   string          `json:"layout"`
			Consumed int             `json:"consumed"`
			Value    json.RawMessage `json:"value"`
		}{layout, res.consumed, value}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return fmt.Errorf("unknown format %q (want table, json or value)", format)
	}
}

func dumpText(err error) string {
	if rec := plum.DumpOf(err); rec != nil {
		return rec.String()
	}
	return ""
}
