package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/scalarjit/internal/lir"
)

// Snapshot renders a result as a stable text listing: the outcome, the
// call trace indented by depth, then the compiled module.
func Snapshot(name string, r *Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; scenario %s\n", name)
	if r.Err != nil {
		fmt.Fprintf(&sb, "; error %s\n", r.ErrorKind)
	} else {
		fmt.Fprintf(&sb, "; result %s %s\n", r.Type, r.Value)
	}

	if len(r.Trace) > 0 {
		sb.WriteString("; trace\n")
		for _, ev := range r.Trace {
			kind := ""
			if ev.External {
				kind = " external"
			}
			fmt.Fprintf(&sb, ";   [%d] %s%s%s\n", ev.Seq, strings.Repeat("  ", ev.Depth), formatCall(ev), kind)
		}
	}

	if r.Module != nil {
		sb.WriteString(lir.Format(r.Module))
	}
	return sb.String()
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario could not be set up. Test failure (via
// goldie) occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Snapshot(name, result)))
}
