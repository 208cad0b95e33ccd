package main

import (
	"os"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/wisplang/wispc/internal/golden"
)

func runGoldenFile(t *testing.T, path string) {
	t.Helper()
	content, err := os.ReadFile(path)
	be.Err(t, err, nil)

	cases, err := golden.ExtractTestCases(string(content))
	be.Err(t, err, nil)

	for _, tc := range cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			for _, a := range tc.Assertions {
				switch a.Type {
				case golden.AssertionCompileError:
					_, err := Compile([]byte(tc.Source))
					if err == nil {
						t.Fatalf("expected a compile error containing %q, got none", a.Content)
					}
					if !strings.Contains(err.Error(), a.Content) {
						t.Fatalf("error %q does not contain expected substring %q", err.Error(), a.Content)
					}

				case golden.AssertionAST:
					root, err := Parse([]byte(tc.Source))
					be.Err(t, err, nil)
					got := astToGolden(root)
					if !got.Equal(a.Parsed) {
						t.Fatalf("AST mismatch:\n got:  %s\n want: %s", got, a.Parsed)
					}

				case golden.AssertionExports, golden.AssertionLocals:
					t.Fatalf("assertion kind %s not exercised by this fixture set", a.Type)
				}
			}
		})
	}
}

func TestGoldenDefinitions(t *testing.T) {
	runGoldenFile(t, "testdata/definitions.md")
}

func TestGoldenFunctionPointers(t *testing.T) {
	runGoldenFile(t, "testdata/function_pointers.md")
}
