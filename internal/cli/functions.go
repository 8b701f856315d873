package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// FunctionInfo describes one registered overload.
type FunctionInfo struct {
	Name      string   `json:"name"`
	Args      []string `json:"args"`
	Returns   string   `json:"returns"`
	Symbol    string   `json:"symbol"`
	Extern    bool     `json:"extern"`
	Signature string   `json:"signature"`
}

// NewFunctionsCommand creates the functions command.
func NewFunctionsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "List the registered operators and functions",
		Long: `List every overload in the registry in lookup order: builtins first,
then the catalog functions. Extern overloads are bound at run time.

Examples:
  scalarjit functions
  scalarjit functions --catalog udfs.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunctions(rootOpts, cmd)
		},
	}
	return cmd
}

func runFunctions(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sess, err := newSession(opts.Catalog)
	if err != nil {
		return loadFailure(formatter, err)
	}

	extern := make(map[string]bool)
	if sess.cat != nil {
		sigs, err := sess.cat.Signatures()
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeCatalog, "invalid catalog", err)
		}
		for _, sig := range sigs {
			extern[sig.ID()] = true
		}
	}

	var infos []FunctionInfo
	for _, name := range sess.reg.Names() {
		for _, sig := range sess.reg.Overloads(name) {
			args := make([]string, len(sig.ArgumentTypes))
			for i, t := range sig.ArgumentTypes {
				args[i] = t.String()
			}
			infos = append(infos, FunctionInfo{
				Name:      sig.Name,
				Args:      args,
				Returns:   sig.ReturnType.String(),
				Symbol:    sig.Symbol(),
				Extern:    extern[sig.ID()],
				Signature: sig.String(),
			})
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	for _, info := range infos {
		suffix := ""
		if info.Extern {
			suffix = " extern"
		}
		fmt.Fprintf(formatter.Writer, "%-40s @%s%s\n", info.Signature, info.Symbol, suffix)
	}
	fmt.Fprintf(formatter.Writer, "\n%d overload(s)\n", len(infos))
	return nil
}
