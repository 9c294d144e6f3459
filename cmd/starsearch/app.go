package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dm/starsearch/internal/artifact"
	"github.com/dm/starsearch/internal/client"
	"github.com/dm/starsearch/internal/config"
	"github.com/dm/starsearch/internal/savedobject"
	"github.com/dm/starsearch/internal/tui"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// errAborted is returned when the operator declines a confirmation prompt.
var errAborted = errors.New("aborted")

// app carries the state shared by every command of one invocation.
type app struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	interactive bool

	flagTarget   string
	flagConfig   string
	flagFormat   string
	flagLogLevel string

	env    config.Env
	log    *logrus.Logger
	cfg    *config.Config
	runID  string
	format string

	// Replaced in tests.
	confirm  func(kind, name string) (bool, error)
	newS3    func(ctx context.Context) (artifact.S3API, error)
	secrets  *config.SecretResolver
	esClient client.ESClient
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	a := &app{in: in, out: out, errOut: errOut, runID: uuid.NewString()}
	if f, ok := in.(*os.File); ok {
		a.interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	a.confirm = func(kind, name string) (bool, error) {
		return tui.Confirm(a.in, a.errOut, kind, name)
	}
	a.newS3 = func(ctx context.Context) (artifact.S3API, error) {
		s3cfg, err := env.ParseAs[artifact.S3Config]()
		if err != nil {
			return nil, fmt.Errorf("parse S3 environment: %w", err)
		}
		return artifact.NewS3Client(ctx, s3cfg)
	}
	return a
}

// setup resolves env, flags and logging. It runs before every command.
func (a *app) setup(cmd *cobra.Command) error {
	e, err := config.LoadEnv()
	if err != nil {
		return err
	}
	a.env = e

	if a.flagConfig == "" {
		a.flagConfig = e.ConfigPath
	}
	if a.flagTarget == "" {
		a.flagTarget = e.Target
	}
	if a.flagLogLevel == "" {
		a.flagLogLevel = e.LogLevel
	}
	a.format = a.flagFormat
	if a.format == "" {
		a.format = e.Output
	}
	if a.format != formatTable && a.format != formatJSON {
		return fmt.Errorf("invalid --format %q: must be json or table", a.format)
	}

	level, err := logrus.ParseLevel(a.flagLogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", a.flagLogLevel, err)
	}
	a.log = logrus.New()
	a.log.SetOutput(a.errOut)
	a.log.SetLevel(level)
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	a.log.AddHook(runIDHook(a.runID))
	a.secrets = config.NewSecretResolver(a.log)

	a.log.WithFields(logrus.Fields{
		"command": cmd.CommandPath(),
		"config":  a.flagConfig,
	}).Debug("starting")
	return nil
}

// loadConfig reads the configuration file once.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var cfg config.Config
	if err := config.Load(a.flagConfig, &cfg); err != nil {
		return nil, err
	}
	a.cfg = &cfg
	return a.cfg, nil
}

// target resolves the --target server.
func (a *app) target(ctx context.Context) (config.Target, bool, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return config.Target{}, false, err
	}
	t, defaulted, err := cfg.Resolve(a.flagTarget)
	if err != nil {
		return config.Target{}, false, err
	}
	t, err = a.secrets.Resolve(ctx, t)
	if err != nil {
		return config.Target{}, false, err
	}
	return t, defaulted, nil
}

// client builds the cluster client for the resolved target.
func (a *app) client(ctx context.Context) (client.ESClient, config.Target, bool, error) {
	t, defaulted, err := a.target(ctx)
	if err != nil {
		return nil, t, false, err
	}
	if a.esClient != nil {
		return a.esClient, t, defaulted, nil
	}
	cc := t.ClientConfig(a.cfg.Transport)
	cc.Logger = a.log
	c, err := client.NewDefaultClient(cc)
	if err != nil {
		return nil, t, false, err
	}
	a.esClient = c
	a.log.WithFields(logrus.Fields{"target": t.Name, "url": c.BaseURL()}).Debug("target resolved")
	return c, t, defaulted, nil
}

// reader builds a saved-object reader over the configured index.
func (a *app) reader(c client.ESClient) *savedobject.Reader {
	return savedobject.NewReader(c, a.cfg.SavedObjects.ReaderConfig(), a.log)
}

func (a *app) objectTypes() []string {
	return a.cfg.SavedObjects.Types
}

// router moves export streams for this invocation.
func (a *app) router() *artifact.Router {
	return &artifact.Router{Stdin: a.in, Stdout: a.out, S3: a.newS3, Log: a.log}
}

// confirmDelete asks before a destructive call unless yes is set. Sessions
// without a terminal must pass --yes.
func (a *app) confirmDelete(kind, name string, yes bool) error {
	if yes {
		return nil
	}
	if !a.interactive {
		return fmt.Errorf("refusing to delete %s '%s' without --yes in a non-interactive session", kind, name)
	}
	ok, err := a.confirm(kind, name)
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	return nil
}

// runIDHook stamps every log entry with the invocation id.
type runIDHook string

func (h runIDHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h runIDHook) Fire(e *logrus.Entry) error {
	e.Data["run_id"] = string(h)
	return nil
}

// parseDays reads a non-negative day count.
func parseDays(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("days must be a non-negative integer, got %q", s)
	}
	return n, nil
}
