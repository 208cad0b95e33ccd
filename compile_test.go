package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestCompileMinimalModule(t *testing.T) {
	src := `main: fn() void {
}
export "main" main
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) >= 8)
	be.Equal(t, bin[0], byte(0x00))
	be.Equal(t, bin[1], byte(0x61))
	be.Equal(t, bin[2], byte(0x73))
	be.Equal(t, bin[3], byte(0x6D))
	be.Equal(t, bin[4], byte(0x01))
}

func TestCompileStartFunctionNamedMain(t *testing.T) {
	src := `main: fn() void {
}
`
	root, err := Parse([]byte(src))
	be.Err(t, err, nil)
	be.Err(t, Resolve(root).Err(), nil)
	be.Err(t, Validate(root).Err(), nil)
	start := findMainFunction(*root.Scope.Functions)
	be.True(t, start != nil)
}

func TestCompileReturnTypeMismatchIsRejected(t *testing.T) {
	src := `main: fn() i32 {
  return
}
`
	_, err := Compile([]byte(src))
	be.Err(t, err)
}

func TestCompileUnresolvableReferenceIsRejected(t *testing.T) {
	src := `main: fn() i32 {
  undefined_name
}
`
	_, err := Compile([]byte(src))
	be.Err(t, err)
}

func TestCompileInfiniteLoopIsRejected(t *testing.T) {
	src := `main: fn() void {
  loop {
    1
  }
}
`
	_, err := Compile([]byte(src))
	be.Err(t, err)
}

func TestCompileImportedFunctionCall(t *testing.T) {
	src := `import "env.log" log: fn(i32) void
main: fn() void {
  log(1)
}
export "main" main
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}

func TestCompileLoopYieldThenBreak(t *testing.T) {
	src := `main: fn() i32 {
  loop {
    yield 1
    break
  }
}
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}

func TestCompileLoopWithOnlyYieldIsNotInfinite(t *testing.T) {
	src := `main: fn() i32 {
  loop {
    yield 1
  }
}
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}

func TestCompileIfConditionCoercesNonI32(t *testing.T) {
	src := `main: fn() i32 {
  x: f64 = 3.0
  if x {
    return 1
  }
  0
}
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}

func TestCompileAndOrAcceptMatchingI64Operands(t *testing.T) {
	src := `main: fn() i64 {
  a: i64 = 1x64
  b: i64 = 2x64
  a and b
  a or b
}
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}

func TestCompileAndOrMismatchedTypesRejected(t *testing.T) {
	src := `main: fn() i32 {
  a: i32 = 1
  b: i64 = 2x64
  a and b
}
`
	_, err := Compile([]byte(src))
	be.Err(t, err)
}

func TestCompileUnaryMathConversionAndLeadingZeros(t *testing.T) {
	src := `main: fn() i32 {
  x: i64 = 5x64
  leading_zeros to_i32 x
}
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}

func TestCompileMainReturningValueIsNotStartFunction(t *testing.T) {
	src := `main: fn() i32 {
  1
}
`
	root, err := Parse([]byte(src))
	be.Err(t, err, nil)
	be.Err(t, Resolve(root).Err(), nil)
	be.Err(t, Validate(root).Err(), nil)
	start := findMainFunction(*root.Scope.Functions)
	be.True(t, start == nil)
}

func TestCompileGlobalAssignmentAndLoopBreak(t *testing.T) {
	src := `total: i32 = 0
main: fn() i32 {
  i: i32 = 0
  loop {
    i = i + 1
    if i == 10 {
      break
    }
  }
  total = i
  total
}
export "main" main
`
	bin, err := Compile([]byte(src))
	be.Err(t, err, nil)
	be.True(t, len(bin) > 8)
}
