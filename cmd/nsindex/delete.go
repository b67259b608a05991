package main

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [key]",
		Aliases: []string{"del", "rm"},
		Short:   "Remove everything stored under a key",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()
			return idx.Delete(ctx(cmd), args[0])
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every key in the namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errConfirm
			}
			idx, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer idx.Close()
			return idx.Clear(ctx(cmd))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting the whole namespace")
	return cmd
}
