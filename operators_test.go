package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestLookupBinaryOpArithmetic(t *testing.T) {
	info, ok := lookupBinaryOp("+", TypeI32)
	be.True(t, ok)
	be.Equal(t, info.opcode, opI32Add)
	be.Equal(t, info.result, TypeI32)
}

func TestLookupBinaryOpComparisonYieldsI32(t *testing.T) {
	info, ok := lookupBinaryOp("==", TypeF64)
	be.True(t, ok)
	be.Equal(t, info.result, TypeI32)
}

func TestLookupBinaryOpUnsupportedCombination(t *testing.T) {
	_, ok := lookupBinaryOp("%", TypeF32)
	be.Equal(t, ok, false)
}

func TestLookupBinaryOpUnknownOperator(t *testing.T) {
	_, ok := lookupBinaryOp("~", TypeI32)
	be.Equal(t, ok, false)
}

func TestCoercionOpSameTypeIsNoop(t *testing.T) {
	_, ok := coercionOp(TypeI32, TypeI32)
	be.Equal(t, ok, false)
}

func TestCoercionOpI32ToI64AlwaysSigned(t *testing.T) {
	op, ok := coercionOp(TypeI32, TypeI64)
	be.True(t, ok)
	be.Equal(t, op, opI64ExtendI32S)
}

func TestCoercionOpF64ToI32UsesTruncateOpcode(t *testing.T) {
	op, ok := coercionOp(TypeF64, TypeI32)
	be.True(t, ok)
	be.Equal(t, op, opI32TruncF64S)
}

func TestLoadStoreOpForNarrowSignedStorage(t *testing.T) {
	st := StorageType{Elem: TypeI32, Bits: 8, Signed: true, Extended: true}
	be.Equal(t, loadOpFor(st), opI32Load8S)
	be.Equal(t, storeOpFor(st), opI32Store8)
}

func TestLoadStoreOpForFullWidth(t *testing.T) {
	st := StorageType{Elem: TypeI64}
	be.Equal(t, loadOpFor(st), opI64Load)
	be.Equal(t, storeOpFor(st), opI64Store)
}
