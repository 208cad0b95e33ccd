package main

// Kind is the AST node kind. It doubles as the parser's grammar
// classification: every Kind has a static entry in kindTable describing its
// operand counts, precedence, associativity, terminator behavior, and
// scope-creation rule. This is the "syntax table" component (spec §4.2):
// kinds are a closed enum with a single const lookup table keyed by the
// enum discriminant, rather than the mutable per-object properties a
// dynamically-typed reimplementation would carry on singleton kind objects.
type Kind int

const (
	KindInvalid Kind = iota

	KindProgram // root; creates scope, is_global
	KindBlock   // { ... }; creates scope; open
	KindParen   // ( expr ); open, bound to one child

	KindIdentRef // bare identifier used as a value (variable/function/fn-pointer reference)

	KindIntLit
	KindFloatLit

	KindBinary      // + - * / % == != < > <= >= & | ^ << >>
	KindAnd         // short-circuit "and"
	KindOr          // short-circuit "or"
	KindAssign      // name = expr, or p[i] = expr
	KindUnaryNeg    // -literal
	KindUnaryMath   // to_i32/to_i64/to_f32/to_f64/leading_zeros expr
	KindSuffixIncr  // x++
	KindSuffixDecr  // x--
	KindAllocatePages

	KindCall    // callee ( args )
	KindArgList // open; override of KindParen inside KindCall
	KindIndex   // p[i]

	KindIf
	KindIfElse
	KindLoop
	KindBreak
	KindContinue
	KindYield
	KindReturn

	KindDefinition  // name: Type [= init]   |   name: fn(...)...{...}   |   name: memory(...)  | name: table(...)
	KindDeclaration // override of KindDefinition inside import / parameter list — no initializer

	KindParamList // open; override of KindParen inside a function literal
	KindTypeList  // open; override of KindParen inside a function signature / function-pointer type

	KindFuncLiteral   // fn (params) RetType { body }
	KindFuncSignature // fn (types) RetType            — override of KindFuncLiteral inside a declaration
	KindPointerType   // ptr <storage-type>             — used as a Definition's type slot
	KindFuncPointerType // fnptr (types) RetType        — used as a Definition's type slot
	KindTypeName      // bare i32 / i64 / f32 / f64 / void type reference

	KindMemoryLiteral // memory(initial[, max])
	KindTableLiteral  // table(initial[, max])

	KindImport
	KindExport
	KindExportType // "memory" / "table" token used as the export target inside KindExport

	kindCount
)

// KindInfo is the static, per-kind grammar metadata the parser consults.
// ExpectedChildCount is meaningless (Unbounded governs instead) for open
// kinds.
type KindInfo struct {
	Name string

	LeftOperands  int // 1 if this kind, appearing infix, consumes a completed left node
	RightOperands int

	ExpectedChildCount int
	Unbounded          bool

	Precedence      int
	RightAssociative bool

	IsTerminator       bool
	RequiresTerminator TokenKind // zero value (TokEOF) means "none"
	IgnoresTerminator  bool

	CreatesNewScope bool
	CreatesName     bool // this node's placement records a Definition
	IsReference     bool // this node's placement records a Reference
}

// Precedence tiers, highest first, mirroring spec §4.2. Gaps are left
// between tiers so nothing downstream has to renumber when a new operator
// is added at an existing tier.
const (
	precPrimary = 140 // definition/declaration/as-rename, call, memory/table literal,
	// function literal/pointer/signature, export, if, immutable, import,
	// memory-access, pointer literal
	precElse        = 130
	precSuffix      = 120
	precUnary       = 110 // loop / unary-negate / unary-math
	precMultiplicative = 100
	precAdditive    = 90
	precMiscInfix   = 85 // reserved: no operator currently occupies this tier
	precBitShift    = 80
	precOrderCompare = 70
	precEqCompare   = 60
	precBitAnd      = 50
	precBitXor      = 40
	precBitOr       = 30
	precShortAnd    = 20
	precShortOr     = 15
	precAssign      = 10
	precLowest      = 1 // allocate_pages / return / yield
)

var kindTable [kindCount]KindInfo

func init() {
	set := func(k Kind, info KindInfo) { kindTable[k] = info }

	set(KindProgram, KindInfo{Name: "program", Unbounded: true, CreatesNewScope: true})
	set(KindBlock, KindInfo{Name: "block", Unbounded: true, CreatesNewScope: true,
		IsTerminator: false})
	set(KindParen, KindInfo{Name: "paren", ExpectedChildCount: 1, Precedence: precPrimary})

	set(KindIdentRef, KindInfo{Name: "ident", IsReference: true, Precedence: precPrimary})
	set(KindIntLit, KindInfo{Name: "int-lit", Precedence: precPrimary})
	set(KindFloatLit, KindInfo{Name: "float-lit", Precedence: precPrimary})

	set(KindBinary, KindInfo{Name: "binary", LeftOperands: 1, RightOperands: 1, ExpectedChildCount: 2})
	set(KindAnd, KindInfo{Name: "and", LeftOperands: 1, RightOperands: 1, ExpectedChildCount: 2, Precedence: precShortAnd})
	set(KindOr, KindInfo{Name: "or", LeftOperands: 1, RightOperands: 1, ExpectedChildCount: 2, Precedence: precShortOr})
	set(KindAssign, KindInfo{Name: "assign", LeftOperands: 1, RightOperands: 1, ExpectedChildCount: 2,
		Precedence: precAssign, RightAssociative: true})
	set(KindUnaryNeg, KindInfo{Name: "unary-neg", RightOperands: 1, ExpectedChildCount: 1, Precedence: precUnary})
	set(KindUnaryMath, KindInfo{Name: "unary-math", RightOperands: 1, ExpectedChildCount: 1, Precedence: precUnary})
	set(KindSuffixIncr, KindInfo{Name: "suffix-incr", LeftOperands: 1, ExpectedChildCount: 1, Precedence: precSuffix})
	set(KindSuffixDecr, KindInfo{Name: "suffix-decr", LeftOperands: 1, ExpectedChildCount: 1, Precedence: precSuffix})
	set(KindAllocatePages, KindInfo{Name: "allocate-pages", RightOperands: 1, ExpectedChildCount: 1, Precedence: precLowest})

	set(KindCall, KindInfo{Name: "call", LeftOperands: 1, ExpectedChildCount: 2, Precedence: precPrimary})
	set(KindArgList, KindInfo{Name: "arg-list", Unbounded: true})
	set(KindIndex, KindInfo{Name: "index", LeftOperands: 1, RightOperands: 1, ExpectedChildCount: 2, Precedence: precPrimary})

	set(KindIf, KindInfo{Name: "if", ExpectedChildCount: 2, Precedence: precPrimary})
	set(KindIfElse, KindInfo{Name: "if-else", ExpectedChildCount: 3, Precedence: precElse, RightAssociative: true})
	set(KindLoop, KindInfo{Name: "loop", Unbounded: true, CreatesNewScope: true, Precedence: precUnary})
	set(KindBreak, KindInfo{Name: "break", ExpectedChildCount: 0, Precedence: precLowest})
	set(KindContinue, KindInfo{Name: "continue", ExpectedChildCount: 0, Precedence: precLowest})
	set(KindYield, KindInfo{Name: "yield", ExpectedChildCount: 1, Precedence: precLowest})
	set(KindReturn, KindInfo{Name: "return", ExpectedChildCount: 1, Precedence: precLowest})

	set(KindDefinition, KindInfo{Name: "definition", ExpectedChildCount: 1, Precedence: precPrimary, CreatesName: true})
	set(KindDeclaration, KindInfo{Name: "declaration", ExpectedChildCount: 1, Precedence: precPrimary, CreatesName: true})

	set(KindParamList, KindInfo{Name: "param-list", Unbounded: true, CreatesNewScope: false})
	set(KindTypeList, KindInfo{Name: "type-list", Unbounded: true})

	set(KindFuncLiteral, KindInfo{Name: "func-literal", ExpectedChildCount: 2, Precedence: precPrimary, CreatesNewScope: true})
	set(KindFuncSignature, KindInfo{Name: "func-signature", ExpectedChildCount: 1, Precedence: precPrimary})
	set(KindPointerType, KindInfo{Name: "pointer-type", ExpectedChildCount: 0, Precedence: precPrimary})
	set(KindFuncPointerType, KindInfo{Name: "func-pointer-type", ExpectedChildCount: 1, Precedence: precPrimary})
	set(KindTypeName, KindInfo{Name: "type-name", ExpectedChildCount: 0, Precedence: precPrimary})

	set(KindMemoryLiteral, KindInfo{Name: "memory-literal", ExpectedChildCount: 0, Precedence: precPrimary})
	set(KindTableLiteral, KindInfo{Name: "table-literal", ExpectedChildCount: 0, Precedence: precPrimary})

	set(KindImport, KindInfo{Name: "import", ExpectedChildCount: 1, Precedence: precPrimary})
	set(KindExport, KindInfo{Name: "export", ExpectedChildCount: 1, Precedence: precPrimary})
	set(KindExportType, KindInfo{Name: "export-type", ExpectedChildCount: 0})
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindTable) {
		return "unknown-kind"
	}
	return kindTable[k].Name
}

func (k Kind) info() KindInfo { return kindTable[k] }

func (k Kind) takesLeftOperand() bool { return kindTable[k].LeftOperands > 0 }

func (k Kind) precedence() int { return kindTable[k].Precedence }
