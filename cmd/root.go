package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gigapi/gigapi-accidents/acquire"
	"github.com/gigapi/gigapi-accidents/aggregate"
	"github.com/gigapi/gigapi-accidents/config"
	"github.com/gigapi/gigapi-accidents/core"
	"github.com/gigapi/gigapi-accidents/kaggle"
	"github.com/gigapi/gigapi-accidents/querier"
	"github.com/gigapi/gigapi-accidents/report"
	"github.com/gigapi/gigapi-accidents/sources"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type flags struct {
	configPath string
	workDir    string
	logLevel   string
	logFormat  string
	engine     string
	datePolicy string
	join       string
	format     string
	scale      string
}

// app is the wiring shared by every subcommand
type app struct {
	cfg      *config.Configuration
	registry *sources.Registry
	engine   *querier.QueryClient
	policy   aggregate.DatePolicy
	join     aggregate.JoinMode
	report   report.Options
	closed   bool
}

func (a *app) Close() {
	if a.engine != nil && !a.closed {
		a.engine.Close()
	}
	a.closed = true
}

// NewRootCmd builds the CLI with fresh flag state
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

// newRootCmd also returns the app built by the last invocation, if any.
// cobra skips post-run hooks when a command fails, so callers close it.
func newRootCmd() (*cobra.Command, func() *app) {
	f := &flags{}
	var a *app

	root := &cobra.Command{
		Use:           "gigapi-accidents",
		Short:         "Download accident datasets and compare their yearly counts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = setup(cmd, f)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&f.workDir, "work-dir", "", "directory datasets are downloaded to")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&f.logFormat, "log-format", "", "console or json")
	pf.StringVar(&f.engine, "engine", "", "counting engine: native or duckdb")
	pf.StringVar(&f.datePolicy, "date-policy", "", "unparseable dates: drop or strict")
	pf.StringVar(&f.join, "join", "", "year join for compare: inner or outer")
	pf.StringVar(&f.format, "format", "", "output format: "+fmt.Sprint(report.Formats()))
	pf.StringVar(&f.scale, "scale", "", "display scale: none, thousands or millions")

	getApp := func() *app { return a }
	root.AddCommand(newSourcesCmd(getApp), newFetchCmd(getApp), newYearlyCmd(getApp), newCompareCmd(getApp))
	return root, getApp
}

// Execute runs the CLI and exits non-zero on failure
func Execute() {
	if err := runRoot(context.Background(), newRootCmd); err != nil {
		core.Errorf(core.WithDefaultLogger(context.Background(), "main"), "%v", err)
		fmt.Fprintln(os.Stderr, err)
		core.Sync()
		os.Exit(1)
	}
	core.Sync()
}

// runRoot executes a fresh root command and closes the app it built
func runRoot(ctx context.Context, build func() (*cobra.Command, func() *app), args ...string) error {
	root, getApp := build()
	if args != nil {
		root.SetArgs(args)
	}
	err := root.ExecuteContext(ctx)
	if a := getApp(); a != nil {
		a.Close()
	}
	return err
}

func override(cmd *cobra.Command, name string, dst *string, value string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

func setup(cmd *cobra.Command, f *flags) (*app, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	override(cmd, "work-dir", &cfg.WorkDir, f.workDir)
	override(cmd, "log-level", &cfg.LogLevel, f.logLevel)
	override(cmd, "log-format", &cfg.LogFormat, f.logFormat)
	override(cmd, "engine", &cfg.Engine, f.engine)
	override(cmd, "date-policy", &cfg.DatePolicy, f.datePolicy)
	override(cmd, "join", &cfg.Join, f.join)
	override(cmd, "format", &cfg.Format, f.format)
	override(cmd, "scale", &cfg.Scale, f.scale)
	config.Config = cfg

	if err := core.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	cmd.SetContext(core.WithDefaultLogger(cmd.Context(), cmd.Name()))

	a := &app{cfg: cfg}
	if a.policy, err = aggregate.ParseDatePolicy(cfg.DatePolicy); err != nil {
		return nil, err
	}
	if a.join, err = aggregate.ParseJoinMode(cfg.Join); err != nil {
		return nil, err
	}
	if a.report, err = report.ParseScale(cfg.Scale); err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	remote, err := newRemote(ctx, cfg.Kaggle)
	if err != nil {
		return nil, err
	}

	acq, err := acquire.NewOnDisk(remote, cfg.WorkDir)
	if err != nil {
		return nil, err
	}

	if cfg.Engine == sources.EngineDuckDB {
		a.engine = querier.NewQueryClient()
		if err := a.engine.Initialize(); err != nil {
			return nil, err
		}
	}
	counter, err := sources.NewCounter(cfg.Engine, acq, a.engine)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.registry, err = sources.NewRegistry(cfg.Sources, sources.Deps{Acquirer: acq, Counter: counter, Policy: a.policy})
	if err != nil {
		a.Close()
		return nil, err
	}
	core.Debugf(ctx, "Working directory %s, engine %s", acq.Root, cfg.Engine)
	return a, nil
}

// missingRemote stands in for the Kaggle client when no credentials are
// configured, so sources that never download still work.
type missingRemote struct {
	err error
}

func (m missingRemote) DownloadDataset(ctx context.Context, dataset string, fs afero.Fs, dir string, unzip bool) error {
	return m.err
}

func (m missingRemote) DownloadFile(ctx context.Context, dataset, file string, fs afero.Fs, dir string, unzip bool) error {
	return m.err
}

func newRemote(ctx context.Context, cfg config.KaggleConfig) (core.DatasetService, error) {
	client, err := kaggle.NewClient(kaggle.ClientOptions{
		BaseUrl:     cfg.BaseURL,
		Credentials: kaggle.Credentials{Username: cfg.Username, Key: cfg.Key},
		Timeout:     cfg.Timeout,
	})
	if errors.Is(err, kaggle.ErrNoCredentials) {
		core.Debugf(ctx, "Kaggle downloads disabled: %v", err)
		return missingRemote{err: err}, nil
	}
	if err != nil {
		return nil, err
	}
	core.Debugf(ctx, "Authenticated to Kaggle as %s", client.Username())
	return client, nil
}
