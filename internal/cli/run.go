package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zoobzio/stmtql/exec"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DSN      string
	Rollback bool
	Slow     time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <manifest>",
		Short: "Execute every query in a manifest, in order, in one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name, overriding the config")
	cmd.Flags().BoolVar(&opts.Rollback, "rollback", false, "roll the transaction back after the last query")
	cmd.Flags().DurationVar(&opts.Slow, "slow", 0, "log queries slower than this at warn level")

	return cmd
}

func runRun(cmd *cobra.Command, opts *RunOptions, path string) (err error) {
	ctx := cmd.Context()
	f, c, err := opts.load(path, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	dsn := opts.DSN
	if dsn == "" {
		dsn = opts.config.DSN
	}
	if dsn == "" {
		return errors.New("no data source: set --dsn or dsn in the config")
	}

	compiled, err := f.Compile(ctx, c)
	if err != nil {
		return err
	}

	db, err := exec.Open(ctx, c.Dialect(), dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil || opts.Rollback {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	runner := exec.NewRunner(tx,
		exec.WithLogger(opts.logger(cmd.ErrOrStderr())),
		exec.WithSlowThreshold(opts.Slow),
	)
	out := cmd.OutOrStdout()
	for _, cq := range compiled {
		res, err := runner.Run(ctx, cq.Statement)
		if err != nil {
			return fmt.Errorf("%s: %w", cq.Name, err)
		}
		heading.Fprintf(out, "-- %s (%s)\n", cq.Name, res.Kind)
		printRows(out, res.Rows)
		muted.Fprintf(out, "-- %d row(s)\n\n", res.RowsAffected)
	}
	return nil
}

func printRows(w io.Writer, rows []exec.Row) {
	for _, row := range rows {
		cols := make([]string, 0, len(row))
		for col := range row {
			cols = append(cols, col)
		}
		sort.Strings(cols)
		pairs := make([]string, len(cols))
		for i, col := range cols {
			pairs[i] = fmt.Sprintf("%s=%v", col, row[col])
		}
		fmt.Fprintln(w, strings.Join(pairs, " "))
	}
}
