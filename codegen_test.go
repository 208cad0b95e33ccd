package main

import (
	"testing"

	"github.com/nalgeon/be"
)

// TestEmitAddressScenario5 pins spec's concrete scenario 5 (pointer write):
// for p[1], the effective address is (index + pointer) * size, not
// pointer + index*size.
func TestEmitAddressScenario5(t *testing.T) {
	idx := &ASTNode{Kind: KindIntLit, RunType: TypeI32, Meta: NodeMeta{Value: 1}}
	base := &ASTNode{Kind: KindIdentRef, RunType: TypeI32, Meta: NodeMeta{
		Def: &Definition{Kind: DefLocal, RunType: TypeI32, LocalIndex: 0},
	}}
	idxNode := &ASTNode{
		Kind:     KindIndex,
		Children: []*ASTNode{base, idx},
		Meta:     NodeMeta{Storage: StorageType{Elem: TypeI32, Bits: 32}},
	}

	cg := &funcCodegen{w: newByteWriter()}
	cg.emitAddress(idxNode)

	want := []byte{
		opI32Const, 0x01, // i32.const 1
		opLocalGet, 0x00, // get_local p
		opI32Add,         // i32.add
		opI32Const, 0x04, // i32.const 4
		opI32Mul, // i32.mul
	}
	be.Equal(t, string(cg.w.buf), string(want))
}

// TestEmitShortCircuitAndScenario6 pins spec's concrete scenario 6: "and"
// lowers as left operand, eqz, then an if/else pushing a same-typed zero in
// the then-arm and the right operand in the else-arm — no temp local.
func TestEmitShortCircuitAndScenario6(t *testing.T) {
	left := &ASTNode{Kind: KindIdentRef, RunType: TypeI32, Meta: NodeMeta{
		Def: &Definition{Kind: DefLocal, RunType: TypeI32, LocalIndex: 0},
	}}
	right := &ASTNode{Kind: KindIdentRef, RunType: TypeI32, Meta: NodeMeta{
		Def: &Definition{Kind: DefLocal, RunType: TypeI32, LocalIndex: 1},
	}}
	n := &ASTNode{Kind: KindAnd, RunType: TypeI32, Children: []*ASTNode{left, right}}

	cg := &funcCodegen{w: newByteWriter()}
	cg.emitShortCircuit(n, true)

	want := []byte{
		opLocalGet, 0x00, // get_local a
		opI32Eqz,                     // i32.eqz
		opIf, TypeI32.valueTypeTag(), // if i32
		opI32Const, 0x00, // i32.const 0
		opElse,           // else
		opLocalGet, 0x01, // get_local b
		opEnd,
	}
	be.Equal(t, string(cg.w.buf), string(want))
}
