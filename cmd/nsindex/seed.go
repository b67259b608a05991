package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khicago/nsindex/internal/seed"
)

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.json]",
		Short: "Put every entry of a JSON seed file",
		Long: `Put every entry of a JSON seed file, in file order. The file holds an
array of {"key": ..., "value": ...} objects; values are strings, or objects of
strings for object indexes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := seed.Load(args[0])
			if err != nil {
				return err
			}
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			n, err := seed.Apply(ctx(cmd), idx, entries)
			a.logger.Info("seed applied", "file", args[0], "entries", n)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries stored\n", n)
			return nil
		},
	}
}
