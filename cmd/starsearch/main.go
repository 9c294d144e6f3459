package main

import (
	"context"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	version = "0.1.0"
	commit  = ""
)

func versionString() string {
	if commit != "" {
		return version + " (commit: " + commit + ")"
	}
	return version + "-dev"
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "starsearch",
		Short:   "Manage Elasticsearch/OpenSearch lifecycle policies and dashboards saved objects",
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("starsearch version {{.Version}}\n")
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flagTarget, "target", "t", "", "server name from the config file (env: STARSEARCH_TARGET; default: first server)")
	pf.StringVarP(&a.flagConfig, "config", "c", "", "config file (env: STARSEARCH_CONFIG; default: ~/.starsearch/config.yaml)")
	pf.StringVar(&a.flagFormat, "format", "", "output format: json|table (env: STARSEARCH_OUTPUT; default: table)")
	pf.StringVar(&a.flagLogLevel, "log-level", "", "log level: debug|info|warn|error (env: STARSEARCH_LOG_LEVEL; default: warn)")

	root.AddCommand(newTargetCmd(a))
	root.AddCommand(newILMCmd(a))
	root.AddCommand(newIndexCmd(a))
	root.AddCommand(newSavedObjectCmd(a, kindSavedObject))
	root.AddCommand(newSavedObjectCmd(a, kindDashboard))
	root.AddCommand(newSavedObjectCmd(a, kindVisualization))
	root.AddCommand(newSavedObjectCmd(a, kindSearch))
	root.AddCommand(newIndexPatternCmd(a))
	root.AddCommand(newQueryCmd(a))
	return root
}

func run(ctx context.Context, a *app, args []string) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		a.renderError(err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, newApp(os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}
