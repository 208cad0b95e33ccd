package main

// RunType is the type of value a subexpression leaves on the target
// machine's operand stack.
type RunType int

const (
	TypeVoid RunType = iota
	TypeI32
	TypeI64
	TypeF32
	TypeF64
)

func (t RunType) String() string {
	switch t {
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeF32:
		return "f32"
	case TypeF64:
		return "f64"
	default:
		return "void"
	}
}

func (t RunType) isNumeric() bool { return t != TypeVoid }
func (t RunType) isFloat() bool   { return t == TypeF32 || t == TypeF64 }
func (t RunType) isInt() bool     { return t == TypeI32 || t == TypeI64 }

// valueTypeTag is the single-byte WASM encoding for a RunType used as a
// value type (never valid for TypeVoid in that position).
func (t RunType) valueTypeTag() byte {
	switch t {
	case TypeI32:
		return 0x7F
	case TypeI64:
		return 0x7E
	case TypeF32:
		return 0x7D
	case TypeF64:
		return 0x7C
	default:
		panic("void has no value-type tag")
	}
}

// blockTypeTag is the encoding used where a block's result type is given,
// where void is legal and encoded as the empty-block tag.
func (t RunType) blockTypeTag() byte {
	if t == TypeVoid {
		return 0x40
	}
	return t.valueTypeTag()
}

// StorageType describes a pointer's element in memory, distinct from its
// RunType: a "ptr i32_s8" pointer still loads/stores an i32-typed value on
// the stack, but only 1 byte wide, sign-extended on load.
type StorageType struct {
	Elem     RunType
	Bits     int // 8, 16, 32, 64 — width actually stored in memory
	Signed   bool
	Extended bool // true when Bits < full width of Elem (a narrow load/store)
}

func (s StorageType) SizeBytes() int { return s.Bits / 8 }

// TypeSpec is the parsed form of a type annotation. Exactly one of the
// "shape" fields is meaningful, selected by Kind.
type TypeSpec struct {
	Kind Kind // KindTypeName | KindPointerType | KindFuncPointerType

	Base RunType // KindTypeName

	Storage StorageType // KindPointerType

	ParamTypes []TypeSpec // KindFuncPointerType
	ReturnType RunType    // KindFuncPointerType
	SigIndex   int        // KindFuncPointerType, resolved at parse time

	Token Token
}

// RunType returns the stack effect of a value carrying this type: pointers
// and function pointers are i32 addresses/indices into memory and table
// space respectively.
func (t TypeSpec) RunType() RunType {
	switch t.Kind {
	case KindPointerType:
		return TypeI32
	case KindFuncPointerType:
		return TypeI32
	default:
		return t.Base
	}
}
