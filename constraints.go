package main

import (
	"fmt"
	"strconv"
	"strings"
)

// checkChildType enforces the child-type constraint (CTC) for a few kinds
// where the grammar alone doesn't pin down what's acceptable in a given
// child slot. Most kinds need no check beyond the arity kindTable already
// encodes; this function covers the cases spec §4.3/§4.8 call out by name.
// This is a deliberately targeted set of per-kind rules rather than one
// uniform per-position constraint engine — see DESIGN.md.
func checkChildType(parent, child *ASTNode, pos int) *CompileError {
	switch parent.Kind {
	case KindUnaryNeg:
		if child.Kind != KindIntLit && child.Kind != KindFloatLit {
			return newErrf(ErrChildTypeConstraint, tokenOf(child),
				"unary '-' only applies to a literal, got %s", child.Kind)
		}
	case KindIf, KindIfElse:
		if pos == 1 && child.Kind != KindBlock {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "if-body must be a block")
		}
		if pos == 2 && child.Kind != KindBlock {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "else-body must be a block")
		}
	case KindAssign:
		if pos == 0 && child.Kind != KindIdentRef && child.Kind != KindIndex {
			return newErrf(ErrChildTypeConstraint, tokenOf(child),
				"assignment target must be a variable or memory access, got %s", child.Kind)
		}
	case KindCall:
		if pos == 0 && child.Kind != KindIdentRef {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "call target must be an identifier")
		}
		if pos == 1 && child.Kind != KindArgList {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "call arguments must be an argument list")
		}
	case KindIndex:
		if pos == 0 && child.Kind != KindIdentRef {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "memory access base must be an identifier")
		}
	case KindSuffixIncr, KindSuffixDecr:
		if child.Kind != KindIdentRef && child.Kind != KindIndex {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "'++'/'--' only applies to a variable or memory access")
		}
	case KindExport:
		if child.Kind != KindIdentRef && child.Kind != KindExportType {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "export target must be an identifier or memory/table")
		}
	case KindFuncLiteral:
		if pos == 0 && child.Kind != KindParamList {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "function parameters must be a parameter list")
		}
		if pos == 1 && child.Kind != KindBlock {
			return newErrf(ErrChildTypeConstraint, tokenOf(child), "function body must be a block")
		}
	}
	return nil
}

// checkParentType enforces the parent-type constraint (PTC): a handful of
// node kinds are only legal directly under specific parents.
func checkParentType(child, parent *ASTNode) *CompileError {
	switch child.Kind {
	case KindArgList:
		if parent.Kind != KindCall {
			return newErrf(ErrParentTypeConstraint, tokenOf(child), "argument list only valid inside a call")
		}
	case KindParamList:
		if parent.Kind != KindFuncLiteral {
			return newErrf(ErrParentTypeConstraint, tokenOf(child), "parameter list only valid inside a function literal")
		}
	case KindExportType:
		if parent.Kind != KindExport {
			return newErrf(ErrParentTypeConstraint, tokenOf(child), "'memory'/'table' only valid as an export target")
		}
	}
	return nil
}

func tokenOf(n *ASTNode) Token {
	if n.Token != nil {
		return *n.Token
	}
	return Token{}
}

// parseUintLiteral parses an integer literal's digits, ignoring any
// trailing x32/x64 width suffix already captured by the lexer.
func parseUintLiteral(text string) (int64, error) {
	digits := text
	if i := strings.IndexByte(text, 'x'); i > 0 {
		digits = text[:i]
	}
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("integer literal %q out of range", text)
	}
	return int64(v), nil
}

func parseFloatLiteral(text string) float64 {
	digits := text
	if i := strings.IndexByte(text, 'x'); i > 0 {
		digits = text[:i]
	}
	v, _ := strconv.ParseFloat(digits, 64)
	return v
}

// splitImportSource splits an import path string of the form
// "module.field" into its two components (spec §4.6).
func splitImportSource(path string) (module, field string, err error) {
	i := strings.IndexByte(path, '.')
	if i < 0 {
		return "", "", fmt.Errorf("import source %q must be \"module.field\"", path)
	}
	module, field = path[:i], path[i+1:]
	if module == "" || field == "" {
		return "", "", fmt.Errorf("import source %q must be \"module.field\"", path)
	}
	return module, field, nil
}
