package lir

import "fmt"

// LinkStats counts what Link did with each incoming function.
type LinkStats struct {
	Added    int // new symbols
	Resolved int // declarations replaced by a definition
	Kept     int // duplicates dropped in favour of the existing copy
}

// Link merges src into dst. src is not modified.
//
// Resolution rules, applied per symbol in src order:
//   - a symbol new to dst is copied in
//   - a definition replaces a declaration of the same type
//   - a declaration never replaces anything
//   - of two definitions, the one already in dst wins (first-wins)
//
// Any pair of functions sharing a symbol but differing in type is a
// *LinkError and leaves dst unchanged.
func Link(dst, src *Module) (LinkStats, error) {
	var stats LinkStats
	for _, f := range src.funcs {
		if existing := dst.Function(f.Name); existing != nil && !existing.SameType(f) {
			return stats, &LinkError{
				Symbol:  f.Name,
				Message: fmt.Sprintf("%s conflicts with %s", f.TypeString(), existing.TypeString()),
			}
		}
	}
	for _, f := range src.funcs {
		existing := dst.Function(f.Name)
		switch {
		case existing == nil:
			dst.add(f.clone())
			stats.Added++
		case existing.IsDeclaration() && !f.IsDeclaration():
			dst.replace(f.clone())
			stats.Resolved++
		default:
			stats.Kept++
		}
	}
	return stats, nil
}
