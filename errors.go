package main

import "fmt"

// CompileErrorKind is the fixed taxonomy from spec §7. External tooling
// switches on this instead of parsing message text.
type CompileErrorKind int

const (
	ErrMysteriousSymbol CompileErrorKind = iota
	ErrMisplacedTerminator
	ErrChildTypeConstraint
	ErrParentTypeConstraint
	ErrUnresolvableReference
	ErrDuplicateDefinition
	ErrDuplicateDefaultMemoryOrTable
	ErrBadReferentKind
	ErrAssignToImmutable
	ErrAssignmentTypeMismatch
	ErrAddressRequires32Bit
	ErrBadCondition
	ErrInconsistentIfElseType
	ErrInconsistentBooleanType
	ErrInconsistentLoopYieldType
	ErrNonNumericBooleanOperand
	ErrUndefinedOperator
	ErrWrongArgumentCount
	ErrFunctionSignatureMismatch
	ErrReturnTypeMismatch
	ErrInfiniteLoop
	ErrMisplacedJump // break / continue / yield outside a loop
	ErrIntegerLiteralOutOfRange
	ErrBadInitializer
	ErrBadImportSource
	ErrUnintelligibleSize
	ErrNonExistentExport
	ErrMutableExport
	ErrUnreachableCode
	ErrBadFunctionPlacement
	ErrNoMemoryForPointer
	ErrNoTableForFunctionPointer
	ErrIntegerOutOfRangeInCodegen
)

var errKindNames = map[CompileErrorKind]string{
	ErrMysteriousSymbol:              "MysteriousSymbol",
	ErrMisplacedTerminator:           "MisplacedTerminatorOrUnfinishedExpression",
	ErrChildTypeConstraint:           "ChildTypeConstraintViolation",
	ErrParentTypeConstraint:          "ParentTypeConstraintViolation",
	ErrUnresolvableReference:         "UnresolvableReference",
	ErrDuplicateDefinition:           "DuplicateDefinition",
	ErrDuplicateDefaultMemoryOrTable: "DuplicateDefaultMemoryOrTable",
	ErrBadReferentKind:               "BadReferentKind",
	ErrAssignToImmutable:             "AssignmentToImmutable",
	ErrAssignmentTypeMismatch:        "AssignmentTypeMismatch",
	ErrAddressRequires32Bit:          "AddressRequires32Bit",
	ErrBadCondition:                  "BadCondition",
	ErrInconsistentIfElseType:        "InconsistentTypeIfElse",
	ErrInconsistentBooleanType:       "InconsistentBooleanType",
	ErrInconsistentLoopYieldType:     "InconsistentLoopYieldType",
	ErrNonNumericBooleanOperand:      "NonNumericBooleanOperand",
	ErrUndefinedOperator:             "UndefinedOperator",
	ErrWrongArgumentCount:            "WrongArgumentCount",
	ErrFunctionSignatureMismatch:     "FunctionSignatureMismatch",
	ErrReturnTypeMismatch:            "ReturnTypeMismatch",
	ErrInfiniteLoop:                  "InfiniteLoop",
	ErrMisplacedJump:                 "MisplacedBreakYieldContinue",
	ErrIntegerLiteralOutOfRange:      "IntegerLiteralOutOfRange",
	ErrBadInitializer:                "BadInitializer",
	ErrBadImportSource:               "BadImportSource",
	ErrUnintelligibleSize:            "UnintelligibleSize",
	ErrNonExistentExport:             "NonExistentExport",
	ErrMutableExport:                 "MutableExport",
	ErrUnreachableCode:               "UnreachableCode",
	ErrBadFunctionPlacement:          "BadPlacementForFunctionDefinition",
	ErrNoMemoryForPointer:            "NoMemoryDefinedForPointer",
	ErrNoTableForFunctionPointer:     "NoTableDefinedForFunctionPointer",
	ErrIntegerOutOfRangeInCodegen:    "IntegerOutOfRangeInCodeGeneration",
}

func (k CompileErrorKind) String() string {
	if n, ok := errKindNames[k]; ok {
		return n
	}
	return "UnknownError"
}

// CompileError is the single structured failure value the pipeline ever
// produces. It carries enough of the offending tree to let external
// tooling (out of scope for this core, per spec §1) point at source.
type CompileError struct {
	Kind    CompileErrorKind
	Message string
	Tokens  []Token
	Nodes   []*ASTNode
}

func (e *CompileError) Error() string {
	if len(e.Tokens) > 0 {
		t := e.Tokens[0]
		return fmt.Sprintf("error: %s: %s (at offset %d: %q)", e.Kind, e.Message, t.Offset, t.Text)
	}
	return fmt.Sprintf("error: %s: %s", e.Kind, e.Message)
}

func newErr(kind CompileErrorKind, msg string, toks ...Token) *CompileError {
	return &CompileError{Kind: kind, Message: msg, Tokens: toks}
}

func newErrf(kind CompileErrorKind, tok Token, format string, args ...any) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(format, args...), Tokens: []Token{tok}}
}

// ErrorList accumulates errors from a single pipeline stage. A stage keeps
// going after an Append and collects everything it finds, so the CLI can
// print a stage's whole list; Err returns only the first error, which is
// what Parse and Compile hand back, and no later stage runs once one has
// failed (spec §7: "the first error aborts the pipeline").
type ErrorList struct {
	errs []*CompileError
}

func (l *ErrorList) Append(e *CompileError) {
	if e != nil {
		l.errs = append(l.errs, e)
	}
}

func (l *ErrorList) HasErrors() bool { return len(l.errs) > 0 }

func (l *ErrorList) First() *CompileError {
	if len(l.errs) == 0 {
		return nil
	}
	return l.errs[0]
}

// Err renders the first accumulated error as a plain error, or nil.
func (l *ErrorList) Err() error {
	if e := l.First(); e != nil {
		return e
	}
	return nil
}

func (l *ErrorList) String() string {
	s := ""
	for i, e := range l.errs {
		if i > 0 {
			s += "\n"
		}
		s += e.Error()
	}
	return s
}
