// Package cli implements the stmtql command line.
package cli

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/zoobzio/stmtql"
	"github.com/zoobzio/stmtql/config"
	"github.com/zoobzio/stmtql/manifest"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvDir     string
	Dialect    string
	Verbose    bool

	fs     afero.Fs
	config *config.Config
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	muted   = color.New(color.Faint)
)

// NewRootCommand creates the root command. Files are read from fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	opts := &RootOptions{fs: fs}

	cmd := &cobra.Command{
		Use:   "stmtql",
		Short: "Compile declarative query manifests into dialect SQL",
		Long: `stmtql compiles the queries of a YAML manifest into SQL text and bind
values for postgres, mysql, mariadb, sqlite, mssql, db2, ibmi or snowflake.

Settings come from --config, STMTQL_* environment variables and the .env
and .env.local files of --env-dir.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadEnvFiles(opts.fs, opts.EnvDir); err != nil {
				return err
			}
			cfg, err := config.Load(opts.fs, opts.ConfigPath)
			if err != nil {
				return err
			}
			opts.config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvDir, "env-dir", "", "directory holding .env files")
	cmd.PersistentFlags().StringVarP(&opts.Dialect, "dialect", "d", "", "dialect, overriding the manifest and config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every compiled statement")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewDialectsCommand(opts))

	return cmd
}

// logger writes to w at the configured level, or debug when verbose.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level, _ := o.config.Level()
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// load reads a manifest and creates its compiler. The dialect is taken
// from --dialect, then the manifest, then the configuration.
func (o *RootOptions) load(path string, w io.Writer) (*manifest.File, *stmtql.Compiler, error) {
	f, err := manifest.Load(o.fs, path)
	if err != nil {
		return nil, nil, err
	}
	if o.Dialect != "" {
		f.Dialect = o.Dialect
	}
	opts, err := o.config.Options()
	if err != nil {
		return nil, nil, err
	}
	opts = append(opts, stmtql.WithLogger(o.logger(w)))
	c, err := f.Compiler(o.config.Dialect, opts...)
	if err != nil {
		return nil, nil, err
	}
	return f, c, nil
}
