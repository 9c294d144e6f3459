package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type indexDeleted struct {
	Success bool   `json:"success"`
	Index   string `json:"index"`
	Message string `json:"message"`
}

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indices",
	}

	var yes bool
	del := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			c, _, _, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.confirmDelete("index", name, yes); err != nil {
				return err
			}
			if err := c.DeleteIndex(cmd.Context(), []string{name}); err != nil {
				return err
			}
			a.log.WithField("index", name).Info("index deleted")
			res := indexDeleted{Success: true, Index: name, Message: fmt.Sprintf("Index '%s' deleted", name)}
			return a.output(res, func() { a.printMessage(res.Message) })
		},
	}
	del.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	cmd.AddCommand(del)
	return cmd
}
