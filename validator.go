package main

// Validate performs the recursive semantic walk: computing every node's
// RunType, marking AlwaysEscapes/DropValue, allocating the anonymous temp
// locals short-circuit and/or and tee-and-reload assignment need, and
// checking every type/arity/placement rule spec §4.8 names. Resolve must
// have already run.
func Validate(root *ASTNode) *ErrorList {
	v := &validator{}
	v.literalSuffixes(root)
	for _, c := range root.Children {
		v.validateTopLevel(c)
	}
	return &v.errs
}

type validator struct {
	errs ErrorList

	loopStack []*ASTNode
	funcStack []*ASTNode
}

func (v *validator) literalSuffixes(n *ASTNode) {
	switch n.Kind {
	case KindIntLit:
		n.RunType = intLiteralType(n.text())
	case KindFloatLit:
		n.RunType = floatLiteralType(n.text())
	}
	for _, c := range n.Children {
		v.literalSuffixes(c)
	}
}

// intLiteralType/floatLiteralType resolve a literal token's x32/x64 width
// suffix to a run type. Bare integers default to i32, bare decimals to
// f64 — an Open Question the spec leaves unresolved; see DESIGN.md.
func intLiteralType(text string) RunType {
	if hasSuffix(text, "x64") {
		return TypeI64
	}
	return TypeI32
}

func floatLiteralType(text string) RunType {
	if hasSuffix(text, "x32") {
		return TypeF32
	}
	return TypeF64
}

func hasSuffix(s, suf string) bool {
	return len(s) >= len(suf) && s[len(s)-len(suf):] == suf
}

func (v *validator) validateTopLevel(n *ASTNode) {
	switch n.Kind {
	case KindDefinition:
		v.validateDefinition(n)
	case KindExport, KindImport:
		// Already fully resolved by Resolve; nothing left to validate.
	}
}

func (v *validator) validateDefinition(n *ASTNode) {
	if len(n.Children) == 0 {
		return
	}
	val := n.Children[0]
	switch val.Kind {
	case KindFuncLiteral:
		v.validateFunction(n, val)
	case KindMemoryLiteral, KindTableLiteral:
		// Sizes already range-checked by the parser's literal handling.
	default:
		v.validateExpr(val)
		if n.Scope.IsGlobal {
			if val.RunType != n.Meta.Def.RunType {
				v.errs.Append(newErrf(ErrBadInitializer, tokenOf(n),
					"global '%s' initializer type %s does not match declared type %s",
					n.Meta.Def.Name, val.RunType, n.Meta.Def.RunType))
			}
			if !isConstantInitializer(val) {
				v.errs.Append(newErrf(ErrBadInitializer, tokenOf(n),
					"global '%s' initializer must be a literal or an imported immutable global", n.Meta.Def.Name))
			}
		}
		v.checkPointerBacking(n.Meta.Def, n.Scope, tokenOf(n))
	}
}

// checkPointerBacking enforces spec §4.8's "function definition" rule for
// pointer-typed definitions: a pointer requires a default memory, a
// function pointer requires a default table.
func (v *validator) checkPointerBacking(def *Definition, scope *Scope, tok Token) {
	if def.IsPointer && *scope.DefaultMemory == nil {
		v.errs.Append(newErrf(ErrNoMemoryForPointer, tok, "pointer '%s' requires a default memory", def.Name))
	}
	if def.IsFuncPointer && *scope.DefaultTable == nil {
		v.errs.Append(newErrf(ErrNoTableForFunctionPointer, tok, "function pointer '%s' requires a default table", def.Name))
	}
}

func isConstantInitializer(n *ASTNode) bool {
	switch n.Kind {
	case KindIntLit, KindFloatLit:
		return true
	case KindUnaryNeg:
		return true
	case KindIdentRef:
		return n.Meta.Def != nil && n.Meta.Def.Kind == DefGlobal && !n.Meta.Def.Mutable && n.Meta.Def.ImportModule != ""
	default:
		return false
	}
}

func (v *validator) validateFunction(defNode, fn *ASTNode) {
	v.funcStack = append(v.funcStack, fn)
	defer func() { v.funcStack = v.funcStack[:len(v.funcStack)-1] }()

	body := fn.Children[1]
	retType := fn.Meta.TypeSpec.Base
	v.validateBlock(body, retType != TypeVoid)

	if retType != TypeVoid && !body.AlwaysEscapes && (len(body.Children) == 0 || body.lastChild().RunType != retType) {
		v.errs.Append(newErrf(ErrReturnTypeMismatch, tokenOf(fn),
			"function '%s' must end in a value of type %s", defNode.Meta.Def.Name, retType))
	}
	for _, local := range fn.Scope.Variables {
		v.checkPointerBacking(local, fn.Scope, tokenOf(fn))
	}
	*defNode.Scope.ReturnPoints = append(*defNode.Scope.ReturnPoints, fn)
}

// validateBlock validates every statement, marking all but the last as
// DropValue (their value, if any, is discarded) and propagating
// AlwaysEscapes from any statement that unconditionally transfers control.
// wantsValue controls whether the final statement's value is kept (a loop
// body does; a bare block used as a statement does not).
func (v *validator) validateBlock(block *ASTNode, wantsValue bool) {
	escaped := false
	for i, stmt := range block.Children {
		v.validateStmt(stmt)
		isLast := i == len(block.Children)-1
		stmt.DropValue = !(isLast && wantsValue)
		if escaped {
			v.errs.Append(newErrf(ErrUnreachableCode, tokenOf(stmt), "unreachable code after an unconditional jump"))
		}
		if stmt.AlwaysEscapes {
			escaped = true
		}
	}
	block.AlwaysEscapes = escaped
	if wantsValue && len(block.Children) > 0 {
		block.RunType = block.lastChild().RunType
	}
}

func (v *validator) validateStmt(n *ASTNode) {
	switch n.Kind {
	case KindBlock:
		v.validateBlock(n, false)
	case KindIf:
		v.validateIf(n)
	case KindIfElse:
		v.validateIfElse(n)
	case KindLoop:
		v.validateLoop(n)
	case KindBreak:
		v.validateJump(n, KindBreak)
	case KindContinue:
		v.validateJump(n, KindContinue)
	case KindYield:
		v.validateJump(n, KindYield)
	case KindReturn:
		v.validateReturn(n)
	case KindDefinition:
		v.validateLocalDefinition(n)
	case KindAllocatePages:
		v.validateExpr(n)
	default:
		v.validateExpr(n)
	}
}

func (v *validator) validateLocalDefinition(n *ASTNode) {
	if len(n.Children) == 0 {
		return
	}
	val := n.Children[0]
	v.validateExpr(val)
	if val.RunType != n.Meta.Def.RunType {
		v.errs.Append(newErrf(ErrBadInitializer, tokenOf(n),
			"'%s' initializer type %s does not match declared type %s", n.Meta.Def.Name, val.RunType, n.Meta.Def.RunType))
	}
	n.DropValue = true
}

// validateCondition accepts any numeric, non-void condition type: a
// condition that isn't already i32 is coerced by the emitter via an
// implicit compare-not-equal-zero (spec §4.5/§4.8), so the validator's job
// is only to reject a void-valued condition.
func (v *validator) validateCondition(cond *ASTNode) {
	v.validateExpr(cond)
	if !cond.RunType.isNumeric() {
		v.errs.Append(newErrf(ErrBadCondition, tokenOf(cond), "if-condition must be numeric, got %s", cond.RunType))
	}
}

func (v *validator) validateIf(n *ASTNode) {
	cond, body := n.Children[0], n.Children[1]
	v.validateCondition(cond)
	v.validateBlock(body, false)
	n.RunType = TypeVoid
}

func (v *validator) validateIfElse(n *ASTNode) {
	cond, thenBody, elseBody := n.Children[0], n.Children[1], n.Children[2]
	v.validateCondition(cond)
	v.validateBlock(thenBody, true)
	v.validateBlock(elseBody, true)

	switch {
	case thenBody.AlwaysEscapes && elseBody.AlwaysEscapes:
		n.AlwaysEscapes = true
		n.RunType = TypeVoid
	case thenBody.AlwaysEscapes:
		n.RunType = elseBody.RunType
	case elseBody.AlwaysEscapes:
		n.RunType = thenBody.RunType
	case thenBody.RunType != elseBody.RunType:
		v.errs.Append(newErrf(ErrInconsistentIfElseType, tokenOf(n),
			"if/else arms have different types: %s vs %s", thenBody.RunType, elseBody.RunType))
		n.RunType = thenBody.RunType
	default:
		n.RunType = thenBody.RunType
	}
}

func (v *validator) validateLoop(n *ASTNode) {
	v.loopStack = append(v.loopStack, n)
	defer func() { v.loopStack = v.loopStack[:len(v.loopStack)-1] }()

	exits := 0
	escaped := false
	for i, stmt := range n.Children {
		v.validateStmt(stmt)
		isLast := i == len(n.Children)-1
		stmt.DropValue = !isLast
		if stmt.Kind == KindBreak || stmt.Kind == KindReturn || stmt.Kind == KindYield {
			exits++
		}
		if escaped {
			v.errs.Append(newErrf(ErrUnreachableCode, tokenOf(stmt), "unreachable code after an unconditional jump"))
		}
		// A yield only stages the loop's pending result in its temp local;
		// unlike break/return it doesn't itself transfer control out of the
		// loop body, so statements after it (typically the break that reads
		// the temp back) are still reachable.
		if stmt.AlwaysEscapes && stmt.Kind != KindContinue && stmt.Kind != KindYield {
			escaped = true
		}
	}
	exits += countReachableJumps(n, KindBreak) + countReachableJumps(n, KindReturn) + countReachableJumps(n, KindYield)
	if exits == 0 {
		v.errs.Append(newErrf(ErrInfiniteLoop, tokenOf(n), "loop has no yield, break, or return reachable without entering a nested loop"))
	}

	yieldType := TypeVoid
	hasYield := false
	walkLoopBody(n, func(y *ASTNode) {
		if !hasYield {
			yieldType = y.RunType
			hasYield = true
		} else if y.RunType != yieldType {
			v.errs.Append(newErrf(ErrInconsistentLoopYieldType, tokenOf(y),
				"loop yields both %s and %s", yieldType, y.RunType))
		}
	})
	n.RunType = yieldType
	n.AlwaysEscapes = false // a loop can always be exited externally via break/return; never itself a dead end

	if hasYield {
		if fn := v.currentFunc(); fn != nil {
			n.Meta.TempLocal = allocTemp(fn, yieldType)
		}
	}
}

// countReachableJumps counts nodes of the given kind (break, return or
// yield) anywhere under n
// without crossing into a nested loop (which owns its own breaks).
func countReachableJumps(n *ASTNode, kind Kind) int {
	count := 0
	var walk func(*ASTNode)
	walk = func(m *ASTNode) {
		if m.Kind == KindLoop && m != n {
			return
		}
		if m.Kind == kind && m != n {
			count++
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	for _, c := range n.Children {
		walk(c)
	}
	return count
}

func walkLoopBody(n *ASTNode, visit func(*ASTNode)) {
	var walk func(*ASTNode)
	walk = func(m *ASTNode) {
		if m.Kind == KindLoop && m != n {
			return
		}
		if m.Kind == KindYield && m != n {
			visit(m)
		}
		for _, c := range m.Children {
			walk(c)
		}
	}
	for _, c := range n.Children {
		walk(c)
	}
}

func (v *validator) validateJump(n *ASTNode, kind Kind) {
	if kind == KindBreak || kind == KindContinue || kind == KindYield {
		if len(v.loopStack) == 0 {
			v.errs.Append(newErrf(ErrMisplacedJump, tokenOf(n), "'%s' outside a loop", n.Kind))
			return
		}
		n.Meta.TargetLoop = v.loopStack[len(v.loopStack)-1]
	}
	if kind == KindYield {
		if len(n.Children) == 0 {
			v.errs.Append(newErrf(ErrInconsistentLoopYieldType, tokenOf(n), "yield requires a value"))
			return
		}
		v.validateExpr(n.Children[0])
		n.RunType = n.Children[0].RunType
	}
	if kind == KindBreak || kind == KindContinue || kind == KindYield {
		n.AlwaysEscapes = true
	}
}

func (v *validator) validateReturn(n *ASTNode) {
	n.AlwaysEscapes = true
	if len(v.funcStack) == 0 {
		v.errs.Append(newErrf(ErrMisplacedJump, tokenOf(n), "'return' outside a function"))
		return
	}
	fn := v.funcStack[len(v.funcStack)-1]
	want := fn.Meta.TypeSpec.Base
	if len(n.Children) == 0 {
		if want != TypeVoid {
			v.errs.Append(newErrf(ErrReturnTypeMismatch, tokenOf(n), "function returns %s but 'return' has no value", want))
		}
		return
	}
	v.validateExpr(n.Children[0])
	if n.Children[0].RunType != want {
		v.errs.Append(newErrf(ErrReturnTypeMismatch, tokenOf(n),
			"'return' value type %s does not match function's %s", n.Children[0].RunType, want))
	}
}

// ---- expressions ----------------------------------------------------------

func (v *validator) validateExpr(n *ASTNode) {
	switch n.Kind {
	case KindIntLit, KindFloatLit:
		// RunType already assigned by literalSuffixes.
	case KindUnaryNeg:
		v.validateUnaryNeg(n)
	case KindUnaryMath:
		v.validateUnaryMath(n)
	case KindIdentRef:
		v.validateIdentRef(n)
	case KindBinary:
		v.validateBinary(n)
	case KindAnd, KindOr:
		v.validateShortCircuit(n)
	case KindAssign:
		v.validateAssign(n)
	case KindSuffixIncr, KindSuffixDecr:
		v.validateSuffix(n)
	case KindIndex:
		v.validateIndex(n)
	case KindCall:
		v.validateCall(n)
	case KindParen:
		v.validateExpr(n.Children[0])
		n.RunType = n.Children[0].RunType
	case KindAllocatePages:
		v.validateExpr(n.Children[0])
		if n.Children[0].RunType != TypeI32 {
			v.errs.Append(newErrf(ErrAddressRequires32Bit, tokenOf(n), "allocate_pages argument must be i32"))
		}
		n.RunType = TypeI32
	default:
		v.errs.Append(newErrf(ErrMysteriousSymbol, tokenOf(n), "cannot evaluate %s as an expression", n.Kind))
	}
}

func (v *validator) validateUnaryNeg(n *ASTNode) {
	lit := n.Children[0]
	lit.RunType = intOrFloatLiteralType(lit)
	if lit.Kind == KindIntLit {
		lit.Meta.Value = -lit.Meta.Value
	} else {
		lit.Meta.FValue = -lit.Meta.FValue
	}
	n.RunType = lit.RunType
	// Fold into the literal; codegen emits this node exactly like a literal.
	n.Meta.Value = lit.Meta.Value
	n.Meta.FValue = lit.Meta.FValue
	n.Kind = lit.Kind
}

func (v *validator) validateUnaryMath(n *ASTNode) {
	operand := n.Children[0]
	v.validateExpr(operand)
	opcode, result, ok := lookupUnaryMathOp(n.Meta.Op, operand.RunType)
	if !ok {
		v.errs.Append(newErrf(ErrUndefinedOperator, tokenOf(n),
			"operator %q is undefined for %s", n.Meta.Op, operand.RunType))
		return
	}
	n.Meta.Opcode = opcode
	n.RunType = result
}

func intOrFloatLiteralType(n *ASTNode) RunType {
	if n.Kind == KindIntLit {
		return intLiteralType(n.text())
	}
	return floatLiteralType(n.text())
}

func (v *validator) validateIdentRef(n *ASTNode) {
	def := n.Meta.Def
	if def == nil {
		return // already reported unresolvable
	}
	if def.Kind == DefFunction || def.Kind == DefTable || def.Kind == DefMemory {
		v.errs.Append(newErrf(ErrBadReferentKind, tokenOf(n), "'%s' cannot be used as a value here", def.Name))
		return
	}
	n.RunType = def.RunType
}

func (v *validator) validateBinary(n *ASTNode) {
	l, r := n.Children[0], n.Children[1]
	v.validateExpr(l)
	v.validateExpr(r)
	if l.RunType != r.RunType {
		v.errs.Append(newErrf(ErrUndefinedOperator, tokenOf(n),
			"%s %s %s: operand types must match", l.RunType, n.Meta.Op, r.RunType))
		n.RunType = l.RunType
		return
	}
	info, ok := lookupBinaryOp(n.Meta.Op, l.RunType)
	if !ok {
		v.errs.Append(newErrf(ErrUndefinedOperator, tokenOf(n), "operator %q is undefined for %s", n.Meta.Op, l.RunType))
		return
	}
	n.Meta.Opcode = info.opcode
	n.RunType = info.result
}

// validateShortCircuit types "and"/"or" (spec §4.5): operands must have a
// matching non-void numeric run type, which is also the node's own run
// type — unlike every other boolean-producing operator, short-circuit
// and/or leave the tested value itself on the stack, not an i32 0/1. Only
// "or" needs a temp local, to restore the left operand past the point
// where the emitted "if" has consumed it (spec §9 design note).
func (v *validator) validateShortCircuit(n *ASTNode) {
	l, r := n.Children[0], n.Children[1]
	v.validateExpr(l)
	v.validateExpr(r)
	if !l.RunType.isNumeric() || !r.RunType.isNumeric() {
		v.errs.Append(newErrf(ErrNonNumericBooleanOperand, tokenOf(n), "'%s' requires numeric operands", n.Kind))
		n.RunType = TypeI32
		return
	}
	if l.RunType != r.RunType {
		v.errs.Append(newErrf(ErrInconsistentBooleanType, tokenOf(n), "'%s' requires matching operand types, got %s and %s", n.Kind, l.RunType, r.RunType))
		n.RunType = l.RunType
		return
	}
	n.RunType = l.RunType
	if n.Kind == KindOr {
		if fn := v.currentFunc(); fn != nil {
			n.Meta.TempLocal = allocTemp(fn, n.RunType)
		}
	}
}

func (v *validator) currentFunc() *ASTNode {
	if len(v.funcStack) == 0 {
		return nil
	}
	return v.funcStack[len(v.funcStack)-1]
}

// allocTemp creates an anonymous local in the current function for
// short-circuit restore slots and tee-and-reload assignment targets.
func allocTemp(fn *ASTNode, rt RunType) *Definition {
	d := &Definition{Kind: DefLocal, Name: "", RunType: rt, Mutable: true, Scope: fn.Scope}
	fn.Scope.Variables = append(fn.Scope.Variables, d)
	return d
}

func (v *validator) validateAssign(n *ASTNode) {
	target, value := n.Children[0], n.Children[1]
	v.validateExpr(value)

	switch target.Kind {
	case KindIdentRef:
		def := target.Meta.Def
		if def == nil {
			return
		}
		if !def.Mutable {
			v.errs.Append(newErrf(ErrAssignToImmutable, tokenOf(n), "'%s' is immutable", def.Name))
		}
		if def.RunType != value.RunType {
			v.errs.Append(newErrf(ErrAssignmentTypeMismatch, tokenOf(n),
				"cannot assign %s to '%s' of type %s", value.RunType, def.Name, def.RunType))
		}
		target.RunType = def.RunType
		n.RunType = def.RunType
		if def.Kind == DefGlobal {
			if fn := v.currentFunc(); fn != nil {
				n.Meta.TempLocal = allocTemp(fn, def.RunType)
			}
		}
	case KindIndex:
		v.validateIndexTarget(target)
		if target.RunType != value.RunType {
			v.errs.Append(newErrf(ErrAssignmentTypeMismatch, tokenOf(n),
				"cannot store %s through a %s pointer", value.RunType, target.RunType))
		}
		n.RunType = target.RunType
		if fn := v.currentFunc(); fn != nil {
			n.Meta.TempLocal = allocTemp(fn, target.RunType)
		}
	}
}

func (v *validator) validateSuffix(n *ASTNode) {
	target := n.Children[0]
	switch target.Kind {
	case KindIdentRef:
		v.validateIdentRef(target)
		n.RunType = target.RunType
		if !target.Meta.Def.Mutable {
			v.errs.Append(newErrf(ErrAssignToImmutable, tokenOf(n), "'%s' is immutable", target.Meta.Def.Name))
		}
	case KindIndex:
		v.validateIndexTarget(target)
		n.RunType = target.RunType
	}
	if fn := v.currentFunc(); fn != nil {
		n.Meta.TempLocal = allocTemp(fn, n.RunType)
		if target.Kind == KindIndex {
			n.Meta.TempLocal2 = allocTemp(fn, n.RunType)
		}
	}
}

// validateIndex and validateIndexTarget both type a p[i] memory access;
// the Target variant is used from assignment/suffix contexts where the
// access is being written through rather than read.
func (v *validator) validateIndex(n *ASTNode) {
	v.validateIndexTarget(n)
}

func (v *validator) validateIndexTarget(n *ASTNode) {
	base, idx := n.Children[0], n.Children[1]
	v.validateIdentRef(base)
	v.validateExpr(idx)

	def := base.Meta.Def
	if def == nil {
		return
	}
	if !def.IsPointer {
		v.errs.Append(newErrf(ErrBadReferentKind, tokenOf(n), "'%s' is not a pointer", def.Name))
		return
	}
	if idx.RunType != TypeI32 {
		v.errs.Append(newErrf(ErrAddressRequires32Bit, tokenOf(idx), "memory index must be i32"))
	}
	n.Meta.Storage = def.Storage
	n.Meta.Alignment = int(alignmentLog2(def.Storage.Bits))
	n.RunType = def.Storage.Elem
}

func (v *validator) validateCall(n *ASTNode) {
	callee, args := n.Children[0], n.Children[1]
	def := callee.Meta.Def
	if def == nil {
		return
	}
	if def.IsFuncPointer {
		v.validateIndirectCall(n, def, args)
		return
	}
	if def.Kind != DefFunction {
		v.errs.Append(newErrf(ErrBadReferentKind, tokenOf(n), "'%s' is not callable", def.Name))
		return
	}
	if len(args.Children) != len(def.ParamTypes) {
		v.errs.Append(newErrf(ErrWrongArgumentCount, tokenOf(n),
			"'%s' takes %d argument(s), got %d", def.Name, len(def.ParamTypes), len(args.Children)))
	}
	for i, arg := range args.Children {
		v.validateExpr(arg)
		if i < len(def.ParamTypes) && arg.RunType != def.ParamTypes[i].RunType() {
			v.errs.Append(newErrf(ErrFunctionSignatureMismatch, tokenOf(arg),
				"argument %d to '%s': expected %s, got %s", i+1, def.Name, def.ParamTypes[i].RunType(), arg.RunType))
		}
	}
	n.RunType = def.RunType
	callee.RunType = TypeVoid
}

// validateIndirectCall types a call through a function-pointer-typed local
// or global: arguments against the interned signature's param list, not a
// Definition's own ParamTypes (function pointers carry a signature index,
// not a parameter list).
func (v *validator) validateIndirectCall(n *ASTNode, def *Definition, args *ASTNode) {
	if *n.Scope.DefaultTable == nil {
		v.errs.Append(newErrf(ErrNoTableForFunctionPointer, tokenOf(n), "calling through function pointer '%s' requires a default table", def.Name))
		return
	}
	sig := n.Scope.Signatures.list[def.SigIndex]
	if len(args.Children) != len(sig.Params) {
		v.errs.Append(newErrf(ErrWrongArgumentCount, tokenOf(n),
			"'%s' takes %d argument(s), got %d", def.Name, len(sig.Params), len(args.Children)))
	}
	for i, arg := range args.Children {
		v.validateExpr(arg)
		if i < len(sig.Params) && arg.RunType != sig.Params[i] {
			v.errs.Append(newErrf(ErrFunctionSignatureMismatch, tokenOf(arg),
				"argument %d to '%s': expected %s, got %s", i+1, def.Name, sig.Params[i], arg.RunType))
		}
	}
	n.RunType = sig.Result
	n.Children[0].RunType = TypeVoid
}
