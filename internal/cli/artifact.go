package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/scalarjit/internal/store"
	"github.com/roach88/scalarjit/internal/symbols"
)

// ArtifactOptions holds flags for the artifact commands.
type ArtifactOptions struct {
	*RootOptions
	Database string
}

// ArtifactEntry describes a stored artifact.
type ArtifactEntry struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Size   int    `json:"size"`
	Seq    int64  `json:"seq"`
}

// NewArtifactCommand creates the artifact command and its subcommands.
func NewArtifactCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArtifactOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Manage function artifacts in the database",
		Long: `Install, list and remove the LIR artifacts the resolver falls back to
when no file on the search path defines a function.

Artifacts are stored under the unmangled function name: "_twice" and
"twice" name the same artifact.

Examples:
  scalarjit compile body.yaml --function twice --param int64 -o twice.lir
  scalarjit artifact put twice twice.lir --db ./scalarjit.db
  scalarjit artifact list --db ./scalarjit.db`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(&cobra.Command{
		Use:           "put <name> <artifact-file>",
		Short:         "Install an artifact file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactPut(opts, args[0], args[1], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list",
		Short:         "List installed artifacts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactList(opts, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "rm <name>",
		Short:         "Remove an installed artifact",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArtifactRemove(opts, args[0], cmd)
		},
	})

	return cmd
}

func runArtifactPut(opts *ArtifactOptions, symbol, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	name := symbols.Unmangle(symbol)
	if name == "" {
		return formatter.fail(ExitCommandError, ErrCodeBadInput, fmt.Sprintf("invalid artifact name %q", symbol), nil)
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, "reading artifact", err)
	}

	st, err := openStore(opts.Database)
	if err != nil {
		return loadFailure(formatter, err)
	}
	defer closeStore(st)

	if err := st.PutArtifactPayload(cmd.Context(), name, payload); err != nil {
		return formatter.fail(ExitFailure, ErrCodeBadInput, "installing artifact", err)
	}
	formatter.VerboseLog("installed %s from %s (%d bytes)", name, path, len(payload))

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"name": name})
	}
	fmt.Fprintf(formatter.Writer, "✓ Installed %s\n", name)
	return nil
}

func runArtifactList(opts *ArtifactOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database)
	if err != nil {
		return loadFailure(formatter, err)
	}
	defer closeStore(st)

	infos, err := st.ListArtifacts(cmd.Context())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "listing artifacts", err)
	}
	entries := make([]ArtifactEntry, len(infos))
	for i, info := range infos {
		entries[i] = ArtifactEntry(info)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No artifacts installed.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%-24s %8d  %s\n", e.Name, e.Size, e.SHA256)
	}
	return nil
}

func runArtifactRemove(opts *ArtifactOptions, symbol string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.Database)
	if err != nil {
		return loadFailure(formatter, err)
	}
	defer closeStore(st)

	name := symbols.Unmangle(symbol)
	if err := st.DeleteArtifact(cmd.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return formatter.fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no artifact named %q", name), nil)
		}
		return formatter.fail(ExitCommandError, ErrCodeDatabase, "removing artifact", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"name": name})
	}
	fmt.Fprintf(formatter.Writer, "✓ Removed %s\n", name)
	return nil
}
