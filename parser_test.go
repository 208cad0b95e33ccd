package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func mustParse(t *testing.T, src string) *ASTNode {
	t.Helper()
	root, err := Parse([]byte(src))
	be.Err(t, err, nil)
	return root
}

func TestParserTopLevelGlobal(t *testing.T) {
	root := mustParse(t, "x: i32 = 1\n")
	be.Equal(t, len(root.Children), 1)
	be.Equal(t, root.Children[0].Kind, KindDefinition)
}

func TestParserFunctionLiteral(t *testing.T) {
	root := mustParse(t, "main: fn() i32 {\n  1\n}\n")
	def := root.Children[0]
	be.Equal(t, def.Kind, KindDefinition)
	fn := def.Children[0]
	be.Equal(t, fn.Kind, KindFuncLiteral)
	be.Equal(t, fn.Children[0].Kind, KindParamList)
	be.Equal(t, fn.Children[1].Kind, KindBlock)
}

func TestParserPrecedenceClimbing(t *testing.T) {
	// 1 + 2 * 3 must nest the multiplication under the addition's right child.
	root := mustParse(t, "main: fn() i32 {\n  1 + 2 * 3\n}\n")
	body := root.Children[0].Children[0].Children[1]
	expr := body.Children[0]
	be.Equal(t, expr.Kind, KindBinary)
	be.Equal(t, expr.text(), "+")
	right := expr.Children[1]
	be.Equal(t, right.Kind, KindBinary)
	be.Equal(t, right.text(), "*")
}

func TestParserAssignRightAssociative(t *testing.T) {
	root := mustParse(t, "main: fn() void {\n  a: i32 = 0\n  b: i32 = 0\n  a = b = 1\n}\n")
	body := root.Children[0].Children[0].Children[1]
	assign := body.Children[2]
	be.Equal(t, assign.Kind, KindAssign)
	be.Equal(t, assign.Children[0].Kind, KindIdentRef)
	be.Equal(t, assign.Children[1].Kind, KindAssign)
}

func TestParserUnaryNegRequiresLiteral(t *testing.T) {
	_, err := Parse([]byte("main: fn() i32 {\n  x: i32 = 1\n  -x\n}\n"))
	be.Err(t, err)
}

func TestParserUnaryMathBindsTighterThanBinary(t *testing.T) {
	root := mustParse(t, "main: fn() i64 {\n  to_i64 1 + 2\n}\n")
	body := root.Children[0].Children[0].Children[1]
	expr := body.Children[0]
	be.Equal(t, expr.Kind, KindBinary)
	left := expr.Children[0]
	be.Equal(t, left.Kind, KindUnaryMath)
	be.Equal(t, left.text(), "to_i64")
}

func TestParserIfElse(t *testing.T) {
	root := mustParse(t, "main: fn() i32 {\n  if 1 { 1 } else { 2 }\n}\n")
	body := root.Children[0].Children[0].Children[1]
	be.Equal(t, body.Children[0].Kind, KindIfElse)
}

func TestParserElseIfChain(t *testing.T) {
	root := mustParse(t, "main: fn() i32 {\n  if 1 { 1 } else if 2 { 2 } else { 3 }\n}\n")
	body := root.Children[0].Children[0].Children[1]
	outer := body.Children[0]
	be.Equal(t, outer.Kind, KindIfElse)
	elseBody := outer.Children[2]
	be.Equal(t, elseBody.Kind, KindBlock)
	be.Equal(t, elseBody.Children[0].Kind, KindIfElse)
}

func TestParserLoopYieldAndBreak(t *testing.T) {
	root := mustParse(t, "main: fn() i32 {\n  loop {\n    yield 1\n    break\n  }\n}\n")
	body := root.Children[0].Children[0].Children[1]
	loop := body.Children[0]
	be.Equal(t, loop.Kind, KindLoop)
	be.Equal(t, loop.Children[0].Kind, KindYield)
	be.Equal(t, loop.Children[1].Kind, KindBreak)
}

func TestParserIndexAccess(t *testing.T) {
	root := mustParse(t, "p: ptr i32 = 0\nmain: fn() i32 {\n  p[0]\n}\n")
	body := root.Children[1].Children[0].Children[1]
	idx := body.Children[0]
	be.Equal(t, idx.Kind, KindIndex)
	be.Equal(t, idx.Children[0].Kind, KindIdentRef)
}

func TestParserImportFunction(t *testing.T) {
	root := mustParse(t, "import \"env.log\" log: fn(i32) void\n")
	imp := root.Children[0]
	be.Equal(t, imp.Kind, KindImport)
	decl := imp.Children[0]
	be.Equal(t, decl.Kind, KindDeclaration)
	be.Equal(t, decl.Children[0].Kind, KindFuncSignature)
}

func TestParserExport(t *testing.T) {
	root := mustParse(t, "main: fn() void {\n}\nexport \"main\" main\n")
	exp := root.Children[1]
	be.Equal(t, exp.Kind, KindExport)
	be.Equal(t, exp.Children[0].Kind, KindIdentRef)
}

func TestParserDuplicateNameError(t *testing.T) {
	_, err := Parse([]byte("x: i32 = 1\nx: i32 = 2\n"))
	be.Err(t, err)
}
