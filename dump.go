package main

import (
	"fmt"
	"strings"
)

// dumpAST renders a parsed tree as a parenthesized s-expression, for the
// CLI's -v flag and for eyeballing failures. It is not the golden test
// harness's comparison format (internal/golden has its own reader for
// that); this is strictly a human-facing dump.
func dumpAST(n *ASTNode) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *ASTNode) {
	if n == nil {
		b.WriteString("nil")
		return
	}
	b.WriteByte('(')
	b.WriteString(n.Kind.String())
	if text := n.text(); text != "" {
		fmt.Fprintf(b, " %q", text)
	}
	for _, c := range n.Children {
		b.WriteByte(' ')
		writeNode(b, c)
	}
	b.WriteByte(')')
}
