package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khicago/nsindex"
)

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put [key] [value | field=value...]",
		Short: "Store a value under a key",
		Long: `Store a value under a key. String indexes take a single value; object
indexes take one or more field=value pairs that are merged into the record.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			v, err := parseValue(idx.Kind(), args[1:])
			if err != nil {
				return err
			}
			return idx.Put(ctx(cmd), args[0], v)
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update [key] [value | field=value...]",
		Short: "Replace everything stored under a key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			v, err := parseValue(idx.Kind(), args[1:])
			if err != nil {
				return err
			}
			return idx.Update(ctx(cmd), args[0], v)
		},
	}
}

// parseValue turns command arguments into the value shape of kind.
func parseValue(kind nsindex.Kind, args []string) (nsindex.Value, error) {
	if kind != nsindex.KindObject {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s index takes exactly one value, got %d", kind, len(args))
		}
		return nsindex.Text(args[0]), nil
	}

	rec := nsindex.Record{}
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		rec[field] = value
	}
	return rec, nil
}
