package main

// labelKind tags an entry on the structured-control depth stack so break/
// continue can compute the right relative branch depth (spec §4.8's
// "outer-block/inner-loop nesting" lowering: every loop is a block wrapping
// a loop, break targets the block, continue targets the loop).
type labelKind int

const (
	lblOther labelKind = iota
	lblLoopBlock
	lblLoopBody
)

type funcCodegen struct {
	w      *byteWriter
	labels []labelKind
	owners []*ASTNode // parallel to labels; the KindLoop a lblLoopBlock/lblLoopBody entry belongs to, else nil
}

func (cg *funcCodegen) push(k labelKind, owner *ASTNode) {
	cg.labels = append(cg.labels, k)
	cg.owners = append(cg.owners, owner)
}

func (cg *funcCodegen) pop() {
	cg.labels = cg.labels[:len(cg.labels)-1]
	cg.owners = cg.owners[:len(cg.owners)-1]
}

// depthTo returns the relative branch depth from the current position to
// the named label belonging to loop.
func (cg *funcCodegen) depthTo(loop *ASTNode, k labelKind) uint32 {
	for i := len(cg.labels) - 1; i >= 0; i-- {
		if cg.owners[i] == loop && cg.labels[i] == k {
			return uint32(len(cg.labels) - 1 - i)
		}
	}
	return 0
}

func localIndex(d *Definition) int { return d.LocalIndex }

// assignLocalIndices numbers a function's local space: parameters first (in
// declaration order, already first in Variables), then every other local
// and validator-allocated temp in the order they were encountered.
func assignLocalIndices(fn *ASTNode) {
	for i, d := range fn.Scope.Variables {
		d.LocalIndex = i
	}
}

// emitCodeSection emits the code section: one size-prefixed body per
// non-imported function, in function-index order.
func emitCodeSection(w *byteWriter, root *ASTNode, fns []*Definition) {
	w.uleb128(uint64(len(fns)))
	for _, f := range fns {
		emitFunctionBody(w, f)
	}
}

func emitFunctionBody(w *byteWriter, f *Definition) {
	fn := f.FuncNode
	assignLocalIndices(fn)

	w.withSized(func() {
		numParams := len(fn.Children[0].Children)
		locals := fn.Scope.Variables[numParams:]
		emitLocalDecls(w, locals)

		cg := &funcCodegen{w: w}
		cg.emitStatements(fn.Children[1].Children)
		w.byte(opEnd)
	})
}

// emitLocalDecls writes the code section's compressed (count, type) local
// declarations, run-length-encoding consecutive same-type locals.
func emitLocalDecls(w *byteWriter, locals []*Definition) {
	type group struct {
		count uint64
		vt    byte
	}
	var groups []group
	for _, l := range locals {
		vt := l.RunType.valueTypeTag()
		if n := len(groups); n > 0 && groups[n-1].vt == vt {
			groups[n-1].count++
		} else {
			groups = append(groups, group{1, vt})
		}
	}
	w.uleb128(uint64(len(groups)))
	for _, g := range groups {
		w.uleb128(g.count)
		w.byte(g.vt)
	}
}

// emitStatements emits a flat statement sequence (a function body or any
// bare { } block): in this lowering a block never needs its own WASM
// "block" instruction, since every place a block appears (if/else arm,
// function body, loop body) already sits inside a construct that supplies
// the necessary structure.
func (cg *funcCodegen) emitStatements(stmts []*ASTNode) {
	for _, s := range stmts {
		cg.emitStmt(s)
	}
}

func (cg *funcCodegen) emitStmt(n *ASTNode) {
	switch n.Kind {
	case KindBlock:
		cg.emitStatements(n.Children)
		return
	case KindIf:
		cg.emitIf(n)
		return
	case KindIfElse:
		cg.emitIfElse(n)
	case KindLoop:
		cg.emitLoop(n)
	case KindBreak:
		cg.emitBreak(n)
		return
	case KindContinue:
		cg.emitContinue(n)
		return
	case KindYield:
		cg.emitYield(n)
		return
	case KindReturn:
		cg.emitReturn(n)
		return
	case KindDefinition:
		cg.emitLocalDefinition(n)
		return
	case KindAssign, KindSuffixIncr, KindSuffixDecr:
		// These already consume DropValue themselves: they store the value
		// (local/global set or memory store) and push the result again only
		// when it is kept, so they leave nothing on the stack in that case.
		cg.emitExpr(n)
		return
	default:
		cg.emitExpr(n)
	}
	if n.DropValue && n.RunType != TypeVoid {
		cg.w.byte(opDrop)
	}
}

func (cg *funcCodegen) emitLocalDefinition(n *ASTNode) {
	if len(n.Children) == 0 {
		return
	}
	cg.emitExpr(n.Children[0])
	cg.w.byte(opLocalSet)
	cg.w.uleb128(uint64(localIndex(n.Meta.Def)))
}

// emitCondition emits a condition's value, coercing it to i32 via an
// implicit compare-not-equal-zero when it isn't already one (spec §4.8).
// The coercion is a "ne" against a same-typed zero constant rather than a
// negated "eqz" so a float NaN — which compares unequal to every value,
// including zero — comes out truthy, matching the design note in spec §9.
func (cg *funcCodegen) emitCondition(cond *ASTNode) {
	cg.emitExpr(cond)
	if cond.RunType != TypeI32 {
		cg.emitNeZero(cond.RunType)
	}
}

func (cg *funcCodegen) emitIf(n *ASTNode) {
	cond, body := n.Children[0], n.Children[1]
	cg.emitCondition(cond)
	cg.w.byte(opIf)
	cg.w.byte(TypeVoid.blockTypeTag())
	cg.push(lblOther, nil)
	cg.emitStatements(body.Children)
	cg.pop()
	cg.w.byte(opEnd)
}

func (cg *funcCodegen) emitIfElse(n *ASTNode) {
	cond, thenBody, elseBody := n.Children[0], n.Children[1], n.Children[2]
	cg.emitCondition(cond)
	cg.w.byte(opIf)
	cg.w.byte(n.RunType.blockTypeTag())
	cg.push(lblOther, nil)
	cg.emitStatements(thenBody.Children)
	cg.w.byte(opElse)
	cg.emitStatements(elseBody.Children)
	cg.pop()
	cg.w.byte(opEnd)
}

func (cg *funcCodegen) emitLoop(n *ASTNode) {
	blockType := TypeVoid
	if n.Meta.TempLocal != nil {
		blockType = n.RunType
	}
	cg.w.byte(opBlock)
	cg.w.byte(blockType.blockTypeTag())
	cg.push(lblLoopBlock, n)

	cg.w.byte(opLoop)
	cg.w.byte(TypeVoid.blockTypeTag())
	cg.push(lblLoopBody, n)

	cg.emitStatements(n.Children)

	cg.w.byte(opBr)
	cg.w.uleb128(0) // fall-through always re-enters the loop body
	cg.pop()
	cg.w.byte(opEnd) // end loop

	cg.pop()
	cg.w.byte(opEnd) // end block
}

func (cg *funcCodegen) emitBreak(n *ASTNode) {
	loop := n.Meta.TargetLoop
	if loop.Meta.TempLocal != nil {
		cg.w.byte(opLocalGet)
		cg.w.uleb128(uint64(localIndex(loop.Meta.TempLocal)))
	}
	cg.w.byte(opBr)
	cg.w.uleb128(uint64(cg.depthTo(loop, lblLoopBlock)))
}

func (cg *funcCodegen) emitContinue(n *ASTNode) {
	loop := n.Meta.TargetLoop
	cg.w.byte(opBr)
	cg.w.uleb128(uint64(cg.depthTo(loop, lblLoopBody)))
}

func (cg *funcCodegen) emitYield(n *ASTNode) {
	loop := n.Meta.TargetLoop
	cg.emitExpr(n.Children[0])
	cg.w.byte(opLocalSet)
	cg.w.uleb128(uint64(localIndex(loop.Meta.TempLocal)))
}

func (cg *funcCodegen) emitReturn(n *ASTNode) {
	if len(n.Children) > 0 {
		cg.emitExpr(n.Children[0])
	}
	cg.w.byte(opReturn)
}

// ---- expressions ----------------------------------------------------------

func (cg *funcCodegen) emitExpr(n *ASTNode) {
	switch n.Kind {
	case KindIntLit, KindFloatLit:
		emitLiteralConst(cg.w, n, n.RunType)
	case KindIdentRef:
		cg.emitIdentRef(n)
	case KindBinary:
		cg.emitExpr(n.Children[0])
		cg.emitExpr(n.Children[1])
		cg.w.byte(n.Meta.Opcode)
	case KindAnd:
		cg.emitShortCircuit(n, true)
	case KindOr:
		cg.emitShortCircuit(n, false)
	case KindAssign:
		cg.emitAssign(n)
	case KindSuffixIncr:
		cg.emitSuffix(n, true)
	case KindSuffixDecr:
		cg.emitSuffix(n, false)
	case KindIndex:
		cg.emitIndexLoad(n)
	case KindCall:
		cg.emitCall(n)
	case KindUnaryMath:
		cg.emitExpr(n.Children[0])
		if n.Meta.Opcode != 0 {
			cg.w.byte(n.Meta.Opcode)
		}
	case KindParen:
		cg.emitExpr(n.Children[0])
	case KindAllocatePages:
		cg.emitExpr(n.Children[0])
		cg.w.byte(opMemoryGrow)
		cg.w.byte(0)
	}
}

func (cg *funcCodegen) emitIdentRef(n *ASTNode) {
	cg.getVar(n.Meta.Def)
}

func (cg *funcCodegen) getVar(def *Definition) {
	if def.Kind == DefGlobal {
		cg.w.byte(opGlobalGet)
		cg.w.uleb128(uint64(def.Index))
	} else {
		cg.w.byte(opLocalGet)
		cg.w.uleb128(uint64(def.LocalIndex))
	}
}

func (cg *funcCodegen) setVar(def *Definition) {
	if def.Kind == DefGlobal {
		cg.w.byte(opGlobalSet)
		cg.w.uleb128(uint64(def.Index))
	} else {
		cg.w.byte(opLocalSet)
		cg.w.uleb128(uint64(def.LocalIndex))
	}
}

func (cg *funcCodegen) teeLocal(d *Definition) {
	cg.w.byte(opLocalTee)
	cg.w.uleb128(uint64(d.LocalIndex))
}

// emitShortCircuit lowers "and"/"or" (spec §4.8 concrete scenario 6; spec
// §9's "short-circuit lowering requires a stack duplicate not present in
// the target VM" design note). The two operators differ in how they avoid
// re-evaluating the left operand once it's been consumed by "if":
//
//   - "and" tests the left operand for zero and pushes a same-typed zero
//     constant in the then-arm — no temp local needed, since the
//     already-false result doesn't require the original left value back.
//   - "or" has no cheap already-true constant to substitute (the left
//     value itself, not just "a truthy value", must flow through), so it
//     tees the left operand into a temp local and reloads it in the
//     then-arm.
//
// Neither substitutes the VM's select opcode, which evaluates both arms.
func (cg *funcCodegen) emitShortCircuit(n *ASTNode, isAnd bool) {
	left, right := n.Children[0], n.Children[1]
	t := left.RunType
	cg.emitExpr(left)
	if isAnd {
		cg.emitEqZero(t)
	} else {
		cg.teeLocal(n.Meta.TempLocal)
	}
	cg.w.byte(opIf)
	cg.w.byte(t.blockTypeTag())
	cg.push(lblOther, nil)
	if isAnd {
		cg.emitZeroConst(t)
	} else {
		cg.getVar(n.Meta.TempLocal)
	}
	cg.w.byte(opElse)
	cg.emitExpr(right)
	cg.pop()
	cg.w.byte(opEnd)
}

// emitZeroConst pushes a same-typed zero constant, used by "and"'s
// already-false then-arm.
func (cg *funcCodegen) emitZeroConst(t RunType) {
	switch t {
	case TypeI32:
		cg.w.byte(opI32Const)
		cg.w.sleb128(0)
	case TypeI64:
		cg.w.byte(opI64Const)
		cg.w.sleb128(0)
	case TypeF32:
		cg.w.byte(opF32Const)
		cg.w.f32(0)
	case TypeF64:
		cg.w.byte(opF64Const)
		cg.w.f64(0)
	}
}

// emitEqZero consumes a value of type t and pushes an i32 compare-equal-
// zero result: the native "eqz" test for integers, a compare against a
// zero constant for floats (the target VM has no float eqz instruction).
func (cg *funcCodegen) emitEqZero(t RunType) {
	switch t {
	case TypeI32:
		cg.w.byte(opI32Eqz)
	case TypeI64:
		cg.w.byte(opI64Eqz)
	case TypeF32:
		cg.w.byte(opF32Const)
		cg.w.f32(0)
		cg.w.byte(opF32Eq)
	case TypeF64:
		cg.w.byte(opF64Const)
		cg.w.f64(0)
		cg.w.byte(opF64Eq)
	}
}

// emitNeZero consumes a value of type t and pushes an i32 compare-not-
// equal-zero result, used for the if-condition coercion. For floats this
// preserves NaN-is-truthy: IEEE754 "ne" against 0.0 is true for NaN.
func (cg *funcCodegen) emitNeZero(t RunType) {
	switch t {
	case TypeI32:
		cg.w.byte(opI32Const)
		cg.w.sleb128(0)
		cg.w.byte(opI32Ne)
	case TypeI64:
		cg.w.byte(opI64Const)
		cg.w.sleb128(0)
		cg.w.byte(opI64Ne)
	case TypeF32:
		cg.w.byte(opF32Const)
		cg.w.f32(0)
		cg.w.byte(opF32Ne)
	case TypeF64:
		cg.w.byte(opF64Const)
		cg.w.f64(0)
		cg.w.byte(opF64Ne)
	}
}

func (cg *funcCodegen) emitAssign(n *ASTNode) {
	target, value := n.Children[0], n.Children[1]
	switch target.Kind {
	case KindIdentRef:
		def := target.Meta.Def
		cg.emitExpr(value)
		if def.Kind == DefGlobal {
			cg.teeLocal(n.Meta.TempLocal)
			cg.w.byte(opGlobalSet)
			cg.w.uleb128(uint64(def.Index))
			if !n.DropValue {
				cg.getVar(n.Meta.TempLocal)
			}
		} else {
			if n.DropValue {
				cg.setVar(def)
			} else {
				cg.teeLocal(def)
			}
		}
	case KindIndex:
		cg.emitAddress(target)
		cg.emitExpr(value)
		cg.teeLocal(n.Meta.TempLocal)
		cg.w.byte(storeOpFor(n.Meta.Storage))
		cg.w.byte(byte(n.Meta.Alignment))
		cg.w.uleb128(uint64(n.Meta.ByteOffset))
		if !n.DropValue {
			cg.getVar(n.Meta.TempLocal)
		}
	}
}

// emitAddress computes a memory access's effective i32 address: the index
// plus the pointer variable's value, scaled by the storage element's byte
// width — (index + pointer) * size (spec §4.8, concrete scenario 5).
func (cg *funcCodegen) emitAddress(idxNode *ASTNode) {
	base, idx := idxNode.Children[0], idxNode.Children[1]
	cg.emitExpr(idx)
	cg.getVar(base.Meta.Def)
	cg.w.byte(opI32Add)
	size := idxNode.Meta.Storage.SizeBytes()
	if size > 1 {
		cg.w.byte(opI32Const)
		cg.w.sleb128(int64(size))
		cg.w.byte(opI32Mul)
	}
}

func (cg *funcCodegen) emitIndexLoad(n *ASTNode) {
	cg.emitAddress(n)
	cg.w.byte(loadOpFor(n.Meta.Storage))
	cg.w.byte(byte(n.Meta.Alignment))
	cg.w.uleb128(uint64(n.Meta.ByteOffset))
}

func (cg *funcCodegen) emitSuffix(n *ASTNode, isIncr bool) {
	target := n.Children[0]
	addOp, subOp := byte(0), byte(0)
	switch target.RunType {
	case TypeI32:
		addOp, subOp = opI32Add, opI32Sub
	case TypeI64:
		addOp, subOp = opI64Add, opI64Sub
	case TypeF32:
		addOp, subOp = opF32Add, opF32Sub
	case TypeF64:
		addOp, subOp = opF64Add, opF64Sub
	}
	step := func() {
		switch target.RunType {
		case TypeI32:
			cg.w.byte(opI32Const)
			cg.w.sleb128(1)
		case TypeI64:
			cg.w.byte(opI64Const)
			cg.w.sleb128(1)
		case TypeF32:
			cg.w.byte(opF32Const)
			cg.w.f32(1)
		case TypeF64:
			cg.w.byte(opF64Const)
			cg.w.f64(1)
		}
	}
	op := addOp
	if !isIncr {
		op = subOp
	}

	switch target.Kind {
	case KindIdentRef:
		def := target.Meta.Def
		cg.getVar(def)
		cg.teeLocal(n.Meta.TempLocal)
		step()
		cg.w.byte(op)
		cg.setVar(def)
	case KindIndex:
		cg.emitAddress(target)
		cg.w.byte(loadOpFor(target.Meta.Storage))
		cg.w.byte(byte(target.Meta.Alignment))
		cg.w.uleb128(uint64(target.Meta.ByteOffset))
		cg.teeLocal(n.Meta.TempLocal)
		step()
		cg.w.byte(op)
		cg.teeLocal(n.Meta.TempLocal2)
		cg.w.byte(opDrop)
		cg.emitAddress(target)
		cg.getVar(n.Meta.TempLocal2)
		cg.w.byte(storeOpFor(target.Meta.Storage))
		cg.w.byte(byte(target.Meta.Alignment))
		cg.w.uleb128(uint64(target.Meta.ByteOffset))
	}
	if !n.DropValue {
		cg.getVar(n.Meta.TempLocal)
	}
}

func (cg *funcCodegen) emitCall(n *ASTNode) {
	callee, args := n.Children[0], n.Children[1]
	for _, a := range args.Children {
		cg.emitExpr(a)
	}
	def := callee.Meta.Def
	if def.IsFuncPointer {
		cg.getVar(def)
		cg.w.byte(opCallIndirect)
		cg.w.uleb128(uint64(def.SigIndex))
		cg.w.uleb128(0) // table index, always 0
		return
	}
	cg.w.byte(opCall)
	cg.w.uleb128(uint64(def.Index))
}
