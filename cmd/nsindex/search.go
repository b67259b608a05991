package main

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var errConfirm = errors.New("refusing to clear without --yes")

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [prefix]",
		Short: "List keys starting with a prefix",
		Long:  `List keys starting with a prefix. The prefix may use Redis glob syntax.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			keys, err := idx.Search(ctx(cmd), args[0])
			if err != nil {
				return err
			}
			return a.printKeys(cmd, keys)
		},
	}
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "keys",
		Aliases: []string{"list", "ls"},
		Short:   "List every key in the namespace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			keys, err := idx.Keys(ctx(cmd))
			if err != nil {
				return err
			}
			return a.printKeys(cmd, keys)
		},
	}
}

func newSizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print the number of keys in the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()

			n, err := idx.Size(ctx(cmd))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

// printKeys prints keys sorted, since the store returns them in no order.
func (a *app) printKeys(cmd *cobra.Command, keys []string) error {
	slices.Sort(keys)
	if a.jsonOut {
		return writeJSON(cmd.OutOrStdout(), keys)
	}
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}
