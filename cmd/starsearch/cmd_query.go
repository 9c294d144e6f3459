package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dm/starsearch/internal/endpoint"
)

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <command|endpoint> [args...]",
		Short: "GET a raw API endpoint",
		Long:  queryHelp(),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := endpoint.Default()
			if err != nil {
				return err
			}
			path, err := table.Resolve(args)
			if err != nil {
				return err
			}
			c, t, defaulted, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			if defaulted {
				fmt.Fprintf(a.errOut, "→ %s\n", t.Name)
			}
			status, body, err := c.Raw(cmd.Context(), http.MethodGet, path)
			if err != nil {
				return err
			}
			a.log.WithFields(logrus.Fields{"path": path, "status": status}).Debug("query finished")
			_, err = a.out.Write(prettyJSON(body))
			return err
		},
	}
}

func queryHelp() string {
	help := `GET a raw API endpoint and print the response.

The first word may be a command alias (for example "cat indices" becomes
_cat/indices). Anything else is used as the request path.`
	if t, err := endpoint.Default(); err == nil {
		help += "\n\nAliases: " + strings.Join(t.Words(), ", ")
	}
	return help
}
