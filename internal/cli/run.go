package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/scalarjit/internal/engine"
	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database   string
	SearchPath []string
	MaxSteps   int
	Trace      bool

	// Clock allows overriding the trace sequencer (for testing).
	// If nil, defaults to engine.NewClock().
	Clock engine.Sequencer
}

// RunResult is the data of a successful run.
type RunResult struct {
	Type   ir.ValueType `json:"type"`
	Value  ir.Value     `json:"value"`
	Trace  []TraceLine  `json:"trace,omitempty"`
	Loaded []string     `json:"loaded"`
}

// TraceLine is one completed call.
type TraceLine struct {
	Seq      int64      `json:"seq"`
	Depth    int        `json:"depth"`
	Symbol   string     `json:"symbol"`
	Args     []ir.Value `json:"args"`
	Result   ir.Value   `json:"result"`
	External bool       `json:"external,omitempty"`
}

func (l TraceLine) String() string {
	args := make([]string, len(l.Args))
	for i, a := range l.Args {
		args[i] = a.String()
	}
	s := fmt.Sprintf("[%d] %s@%s(%s) = %s", l.Seq, strings.Repeat("  ", l.Depth), l.Symbol, strings.Join(args, ", "), l.Result)
	if l.External {
		s += " external"
	}
	return s
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <expr-file>",
		Short: "Compile and evaluate an expression",
		Long: `Compile an expression and evaluate its entry function.

Calls to catalog functions are bound on first use: the resolver strips the
leading underscore of the symbol and loads <name>.so or <name>.lir from the
search path (the catalog's, then --search-path), then the artifact database.
A missing artifact fails the run, not the compilation.

Example:
  scalarjit run --catalog udfs.cue expr.yaml
  scalarjit run --catalog udfs.cue --db ./scalarjit.db expr.yaml --trace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpr(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "artifact database (defaults to the catalog's)")
	cmd.Flags().StringSliceVar(&opts.SearchPath, "search-path", nil, "extra artifact directories")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "instruction quota (0 disables)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print every completed call")

	return cmd
}

func runExpr(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	e, err := LoadExprFile(path)
	if err != nil {
		return loadFailure(formatter, err)
	}
	sess, err := newSession(opts.Catalog)
	if err != nil {
		return loadFailure(formatter, err)
	}
	st, err := openStore(sess.databasePath(opts.Database))
	if err != nil {
		return loadFailure(formatter, err)
	}
	defer closeStore(st)

	m, err := sess.generator(st).Compile(e)
	if err != nil {
		return formatter.fail(ExitFailure, errorCode(err), "compilation failed", err)
	}
	resolver, err := sess.resolver(opts.SearchPath, st)
	if err != nil {
		return loadFailure(formatter, err)
	}

	clock := opts.Clock
	if clock == nil {
		clock = engine.NewClock()
	}
	var trace []TraceLine
	eng, err := engine.New(m,
		engine.WithResolver(resolver),
		engine.WithMaxSteps(opts.MaxSteps),
		engine.WithClock(clock),
		engine.WithTracer(func(ev engine.Event) {
			trace = append(trace, TraceLine(ev))
		}),
	)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeCodegen, "invalid module", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	v, err := eng.Run(ctx)
	if err != nil {
		return formatter.fail(ExitFailure, errorCode(err), "evaluation failed", err)
	}
	slog.Debug("expression evaluated", "module", m.ID, "calls", len(trace), "stats", resolver.Stats())

	result := RunResult{
		Type:   m.Function(lir.EntryName).Return,
		Value:  v,
		Loaded: resolver.Loaded(),
	}
	if opts.Trace {
		result.Trace = trace
	}
	if result.Loaded == nil {
		result.Loaded = []string{}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s %s\n", result.Type, result.Value)
	for _, line := range result.Trace {
		fmt.Fprintf(formatter.Writer, "  %s\n", line)
	}
	for _, loc := range result.Loaded {
		formatter.VerboseLog("loaded %s", loc)
	}
	return nil
}
