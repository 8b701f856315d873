package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string   // artifact file path
	Database string   // module cache
	Function string   // compile as a named function instead of the entry
	Params   []string // parameter types of Function
}

// CompileResult is the data of a successful compile.
type CompileResult struct {
	Module       string       `json:"module"`
	Type         ir.ValueType `json:"type"`
	Functions    []string     `json:"functions"`
	Declarations []string     `json:"declarations"`
	Listing      string       `json:"listing"`
	Output       string       `json:"output,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <expr-file>",
		Short: "Compile an expression to a linked LIR module",
		Long: `Compile an expression to a LIR module and print its listing.

Builtin bodies are linked in; catalog functions stay declarations that the
resolver binds at run time. With --function the expression becomes the body
of a named function whose parameters are referenced as calls to $0, $1, ...
and the output can be installed as an artifact.

Examples:
  scalarjit compile expr.yaml
  scalarjit compile expr.yaml -o expr.lir
  scalarjit compile body.yaml --function twice --param int64 -o twice.lir
  scalarjit compile expr.yaml --db ./scalarjit.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the module as a .lir artifact")
	cmd.Flags().StringVar(&opts.Database, "db", "", "cache compiled modules in this SQLite database")
	cmd.Flags().StringVar(&opts.Function, "function", "", "compile the expression as the body of this function")
	cmd.Flags().StringSliceVar(&opts.Params, "param", nil, "parameter types of --function, in order")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if len(opts.Params) > 0 && opts.Function == "" {
		return formatter.fail(ExitCommandError, ErrCodeBadInput, "--param requires --function", nil)
	}
	params := make([]ir.ValueType, len(opts.Params))
	for i, p := range opts.Params {
		t, err := ir.ParseValueType(p)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeBadInput, fmt.Sprintf("--param %d", i), err)
		}
		params[i] = t
	}

	e, err := LoadExprFile(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	sess, err := newSession(opts.Catalog)
	if err != nil {
		return loadFailure(formatter, err)
	}
	st, err := openStore(opts.Database)
	if err != nil {
		return loadFailure(formatter, err)
	}
	defer closeStore(st)

	gen := sess.generator(st)
	var m *lir.Module
	entry := lir.EntryName
	if opts.Function != "" {
		entry = opts.Function
		m, err = gen.CompileFunction(opts.Function, params, e)
	} else {
		m, err = gen.Compile(e)
	}
	if err != nil {
		return formatter.fail(ExitFailure, errorCode(err), "compilation failed", err)
	}
	formatter.VerboseLog("compiled module %s (%d functions)", m.ID, m.Len())

	if opts.Output != "" {
		if err := writeArtifact(m, opts.Output); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "writing artifact", err)
		}
	}

	result := newCompileResult(m, entry)
	result.Output = opts.Output
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprint(formatter.Writer, result.Listing)
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote artifact to %s\n", opts.Output)
	}
	return nil
}

func newCompileResult(m *lir.Module, entry string) CompileResult {
	functions := make([]string, 0, m.Len())
	for _, f := range m.Functions() {
		functions = append(functions, f.Name)
	}
	declarations := m.Declarations()
	if declarations == nil {
		declarations = []string{}
	}
	return CompileResult{
		Module:       m.ID,
		Type:         m.Function(entry).Return,
		Functions:    functions,
		Declarations: declarations,
		Listing:      lir.Format(m),
	}
}

// writeArtifact writes m in the compressed artifact encoding.
func writeArtifact(m *lir.Module, path string) error {
	data, err := lir.EncodeArtifact(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
