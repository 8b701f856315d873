package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/typer"
)

// TypecheckResult is the data of a successful typecheck.
type TypecheckResult struct {
	Type ir.ValueType `json:"type"`
	Hash string       `json:"hash"`
}

// NewTypecheckCommand creates the typecheck command.
func NewTypecheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typecheck <expr-file>",
		Short: "Infer and verify the type of an expression",
		Long: `Resolve every operator and function call of an expression against the
builtins and the catalog, and report the result type.

Exit codes:
  0 - The expression is well-typed
  1 - The expression is ill-typed
  2 - Command error (unreadable file, bad catalog)

Examples:
  scalarjit typecheck expr.yaml
  scalarjit typecheck --catalog udfs.cue expr.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypecheck(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTypecheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	e, err := LoadExprFile(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	sess, err := newSession(opts.Catalog)
	if err != nil {
		return loadFailure(formatter, err)
	}

	ty := typer.New(sess.reg)
	if err := ty.Check(e); err != nil {
		return formatter.fail(ExitFailure, ErrCodeType, "type check failed", err)
	}
	t := ty.TypeOf(e)
	if t == ir.TypeNull {
		return formatter.fail(ExitFailure, ErrCodeType, "expression has no type", nil)
	}

	hash, err := ir.ExprHash(e)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "hashing expression", err)
	}
	formatter.VerboseLog("expr_hash %s", hash)

	result := TypecheckResult{Type: t, Hash: hash}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s\n", t)
	return nil
}
