package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/samcharles93/plum/internal/catalog"
	"github.com/samcharles93/plum/pkg/plum"
	"github.com/urfave/cli/v3"
)

func layoutsCmd() *cli.Command {
	return &cli.Command{
		Name:  "layouts",
		Usage: "List the bundled layouts",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return listLayouts(cmd.Root().Writer, catalog.Builtin())
		},
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Describe one layout and print its empty value",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("layouts show: layout name is required")
					}
					l, err := catalog.Builtin().Lookup(name)
					if err != nil {
						return err
					}
					return showLayout(cmd.Root().Writer, l)
				},
			},
		},
	}
}

func listLayouts(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tDESCRIPTION")
	for _, l := range cat.All() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name, sizeText(l), l.Description)
	}
	return tw.Flush()
}

func showLayout(w io.Writer, l catalog.Layout) error {
	_, _ = fmt.Fprintf(w, "name:        %s\n", l.Name)
	_, _ = fmt.Fprintf(w, "type:        %s\n", l.Type.Name())
	_, _ = fmt.Fprintf(w, "size:        %s\n", sizeText(l))
	_, _ = fmt.Fprintf(w, "description: %s\n", l.Description)
	if st, ok := l.Type.(*plum.StructType); ok {
		_, _ = fmt.Fprintln(w, "members:")
		for _, m := range st.Members() {
			_, _ = fmt.Fprintf(w, "  %-20s %s\n", m.Name(), m.Type().Name())
		}
	}
	em, ok := l.Type.(plum.Emptier)
	if !ok {
		return nil
	}
	v, err := em.Empty()
	if err != nil {
		// Required members have no template.
		return nil
	}
	data, err := plum.MarshalValue(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "template:    %s\n", data)
	return err
}

func sizeText(l catalog.Layout) string {
	if n, ok := l.Size(); ok {
		return strconv.Itoa(n)
	}
	return "variable"
}
