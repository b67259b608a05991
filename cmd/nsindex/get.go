package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/khicago/nsindex"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print the value stored under a key",
		Long: `Print the value stored under a key. Lists print one item per line, most
recent first; records print field=value lines sorted by field. With --json the
value is printed as JSON (null for an absent string).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			v, err := idx.Get(ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return a.printValue(cmd, v)
		},
	}
}

func (a *app) printValue(cmd *cobra.Command, v nsindex.Value) error {
	out := cmd.OutOrStdout()
	if a.jsonOut {
		var payload any
		switch v := v.(type) {
		case nsindex.Text:
			payload = string(v)
		case nsindex.List:
			payload = []string(v)
		case nsindex.Record:
			payload = map[string]string(v)
		}
		return writeJSON(out, payload)
	}

	switch v := v.(type) {
	case nsindex.Absent:
		a.logger.Debug("key is absent")
	case nsindex.Text:
		fmt.Fprintln(out, string(v))
	case nsindex.List:
		for _, item := range v {
			fmt.Fprintln(out, item)
		}
	case nsindex.Record:
		for _, f := range slices.Sorted(maps.Keys(v)) {
			fmt.Fprintf(out, "%s=%s\n", f, v[f])
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
