package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

type targetRow struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	DashboardsURL string `json:"dashboards_url"`
	Username      string `json:"username,omitempty"`
	ClusterPath   string `json:"cluster_path,omitempty"`
	BasePath      string `json:"base_path,omitempty"`
	VerifySSL     bool   `json:"verify_ssl"`
	Default       bool   `json:"default"`
}

func newTargetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Inspect configured servers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured servers; the first is the default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			rows := make([]targetRow, len(cfg.Servers))
			for i, t := range cfg.Servers {
				rows[i] = targetRow{
					Name:          t.Name,
					URL:           t.ClusterURL(),
					DashboardsURL: t.DashboardsURL(),
					Username:      t.Username,
					ClusterPath:   t.ClusterPath,
					BasePath:      t.BasePath,
					VerifySSL:     t.VerifiesTLS(),
					Default:       i == 0,
				}
			}
			return a.output(rows, func() {
				cells := make([][]string, len(rows))
				for i, r := range rows {
					name := r.Name
					if r.Default {
						name += " *"
					}
					user := r.Username
					if user == "" {
						user = "-"
					}
					cells[i] = []string{name, r.URL, user, dash(r.ClusterPath), r.DashboardsURL, strconv.FormatBool(r.VerifySSL)}
				}
				a.printTable([]string{"NAME", "URL", "USER", "CLUSTER PATH", "DASHBOARDS", "VERIFY SSL"}, cells, nil)
			})
		},
	})
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
