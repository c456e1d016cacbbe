package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/zoobzio/stmtql/manifest"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Materialize bool
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <manifest>",
		Short: "Print the SQL of every query in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVarP(&opts.Materialize, "materialize", "m", false, "print driver placeholders and positional arguments")

	return cmd
}

func runCompile(cmd *cobra.Command, opts *CompileOptions, path string) error {
	f, c, err := opts.load(path, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	compiled, err := f.Compile(cmd.Context(), c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, cq := range compiled {
		if err := printCompiled(out, cq, opts.Materialize); err != nil {
			return err
		}
	}
	return nil
}

func printCompiled(w io.Writer, cq manifest.Compiled, materialize bool) error {
	st := cq.Statement
	heading.Fprintf(w, "-- %s (%s, %s)\n", cq.Name, st.Kind, st.Dialect)

	if materialize {
		query, args, err := st.Materialize()
		if err != nil {
			return fmt.Errorf("%s: %w", cq.Name, err)
		}
		fmt.Fprintln(w, query)
		for i, a := range args {
			muted.Fprintf(w, "--   %d: %v\n", i+1, a)
		}
		fmt.Fprintln(w)
		return nil
	}

	fmt.Fprintln(w, st.Query)
	names := make([]string, 0, len(st.Bind))
	for name := range st.Bind {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		muted.Fprintf(w, "--   $%s = %v\n", name, st.Bind[name])
	}
	fmt.Fprintln(w)
	return nil
}
