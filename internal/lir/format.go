package lir

import (
	"fmt"
	"io"
	"strings"
)

// Format renders m as a stable, human readable listing:
//
//	define int64 @expr() {
//	  %0 = const int64 1
//	  %1 = call int64 @add.int64(%0, %0)
//	  ret int64 %1
//	}
//
// ID is omitted so listings can be compared across compilations.
func Format(m *Module) string {
	var sb strings.Builder
	_ = Fprint(&sb, m)
	return sb.String()
}

// Fprint writes the listing of m to w.
func Fprint(w io.Writer, m *Module) error {
	if _, err := fmt.Fprintf(w, "; module %s\n", m.Name); err != nil {
		return err
	}
	for _, f := range m.funcs {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
		if err := writeFunction(w, f); err != nil {
			return err
		}
	}
	return nil
}

func writeFunction(w io.Writer, f *Function) error {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	if f.IsDeclaration() {
		_, err := fmt.Fprintf(w, "declare %s @%s(%s)\n", f.Return, f.Name, strings.Join(params, ", "))
		return err
	}
	if _, err := fmt.Fprintf(w, "define %s @%s(%s) {\n", f.Return, f.Name, strings.Join(params, ", ")); err != nil {
		return err
	}
	for i, in := range f.Body {
		if _, err := fmt.Fprintf(w, "  %s\n", formatInstr(i, in)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

func formatInstr(i int, in Instr) string {
	refs := make([]string, len(in.Args))
	for n, a := range in.Args {
		refs[n] = fmt.Sprintf("%%%d", a)
	}
	switch in.Op {
	case OpRet:
		return fmt.Sprintf("ret %s %s", in.Type, strings.Join(refs, ", "))
	case OpConst:
		return fmt.Sprintf("%%%d = const %s %s", i, in.Type, in.Const)
	case OpParam:
		return fmt.Sprintf("%%%d = param %s %d", i, in.Type, in.Index)
	case OpCall:
		return fmt.Sprintf("%%%d = call %s @%s(%s)", i, in.Type, in.Callee, strings.Join(refs, ", "))
	default:
		return fmt.Sprintf("%%%d = %s %s %s", i, in.Op, in.Type, strings.Join(refs, ", "))
	}
}
