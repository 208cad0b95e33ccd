package main

import "github.com/wisplang/wispc/internal/golden"

// astToGolden renders a parsed tree into the golden package's comparison
// format: (kind text child...), with string/int literal text carried
// through as the matching sexpr atom type so a fixture can pin down literal
// spelling, not just tree shape.
func astToGolden(n *ASTNode) *golden.Node {
	if n == nil {
		return golden.NewSymbol("nil")
	}
	items := []*golden.Node{golden.NewSymbol(n.Kind.String())}

	switch n.Kind {
	case KindIntLit:
		items = append(items, golden.NewInteger(n.text()))
	case KindFloatLit, KindIdentRef, KindDefinition, KindDeclaration,
		KindBinary, KindAnd, KindOr, KindAssign, KindUnaryNeg, KindUnaryMath, KindTypeName,
		KindExportType:
		if text := n.text(); text != "" {
			items = append(items, golden.NewSymbol(text))
		}
	case KindExport:
		items = append(items, golden.NewString(n.Meta.Op))
	}

	for _, c := range n.Children {
		items = append(items, astToGolden(c))
	}
	return golden.NewList(items)
}
