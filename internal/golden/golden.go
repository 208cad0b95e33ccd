package golden

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// AssertionType names the kind of an assertion code fence.
type AssertionType string

const (
	AssertionAST          AssertionType = "ast"           // s-expr dump of the parsed/resolved tree
	AssertionExports      AssertionType = "exports"        // s-expr list of (name kind) export entries
	AssertionLocals       AssertionType = "wasm-locals"    // s-expr list of a function's local run types, in index order
	AssertionCompileError AssertionType = "compile-error"  // substring expected somewhere in the error text
)

const sourceFence = "wisp"

// Assertion is a single fenced assertion following a source fence.
type Assertion struct {
	Type    AssertionType
	Content string
	Parsed  *Node // nil for AssertionCompileError, which is matched as plain text
}

// TestCase is one "Test: name" section of a literate golden file: one
// source fence followed by one or more assertion fences.
type TestCase struct {
	Name       string
	Source     string
	Assertions []Assertion
}

// ExtractTestCases walks a Markdown document and collects every "Test: "
// heading's source fence and following assertion fences.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	md := goldmark.New()
	source := []byte(markdownContent)
	doc := md.Parser().Parse(text.NewReader(source))

	var cases []TestCase
	var current *TestCase

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			headingText := extractText(node, source)
			if strings.HasPrefix(headingText, "Test: ") {
				if current != nil {
					if err := validate(current); err != nil {
						return ast.WalkStop, err
					}
					cases = append(cases, *current)
				}
				current = &TestCase{Name: strings.TrimPrefix(headingText, "Test: ")}
			}

		case *ast.FencedCodeBlock:
			lang := string(node.Language(source))
			content := extractCode(node, source)

			if current == nil {
				return ast.WalkContinue, nil
			}

			switch AssertionType(lang) {
			case "":
				return ast.WalkContinue, nil
			case sourceFence:
				if current.Source != "" {
					return ast.WalkStop, fmt.Errorf("test %q: multiple source fences", current.Name)
				}
				current.Source = strings.TrimRight(content, "\n")
			case AssertionCompileError:
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionCompileError,
					Content: strings.TrimRight(content, "\n"),
				})
			case AssertionAST, AssertionExports, AssertionLocals:
				trimmed := strings.TrimRight(content, "\n")
				parsed, err := Parse(trimmed)
				if err != nil {
					return ast.WalkStop, fmt.Errorf("test %q: parsing %s fence: %w", current.Name, lang, err)
				}
				current.Assertions = append(current.Assertions, Assertion{
					Type:    AssertionType(lang),
					Content: trimmed,
					Parsed:  parsed,
				})
			default:
				return ast.WalkStop, fmt.Errorf("test %q: unknown fence language %q", current.Name, lang)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown AST: %w", err)
	}

	if current != nil {
		if err := validate(current); err != nil {
			return nil, err
		}
		cases = append(cases, *current)
	}
	return cases, nil
}

func validate(tc *TestCase) error {
	if tc.Source == "" {
		return fmt.Errorf("test %q has no %s source fence", tc.Name, sourceFence)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test %q has no assertion fences", tc.Name)
	}
	return nil
}

func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func extractCode(block *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}
