package main

const (
	secType     byte = 1
	secImport   byte = 2
	secFunction byte = 3
	secTable    byte = 4
	secMemory   byte = 5
	secGlobal   byte = 6
	secExport   byte = 7
	secStart    byte = 8
	secCode     byte = 10
)

const (
	extKindFunc   byte = 0
	extKindTable  byte = 1
	extKindMemory byte = 2
	extKindGlobal byte = 3
)

// EmitModule renders a fully resolved and validated program into a WASM
// MVP binary module (spec §5): magic/version, then the sections that have
// content, in canonical order, with every size field back-patched.
func EmitModule(root *ASTNode) ([]byte, *CompileError) {
	scope := root.Scope
	assignIndices(scope)

	w := newByteWriter()
	w.bytes([]byte{0x00, 0x61, 0x73, 0x6D}) // magic: "\0asm"
	w.bytes([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	if len(scope.Signatures.list) > 0 {
		w.withSection(secType, func() { emitTypeSection(w, scope) })
	}

	imports := collectImports(scope)
	if len(imports) > 0 {
		w.withSection(secImport, func() { emitImportSection(w, imports) })
	}

	if len(*scope.Functions) > 0 {
		w.withSection(secFunction, func() { emitFunctionSection(w, *scope.Functions) })
	}

	if *scope.DefaultTable != nil && (*scope.DefaultTable).ImportModule == "" {
		w.withSection(secTable, func() { emitTableSection(w, *scope.DefaultTable) })
	}

	if *scope.DefaultMemory != nil && (*scope.DefaultMemory).ImportModule == "" {
		w.withSection(secMemory, func() { emitMemorySection(w, *scope.DefaultMemory) })
	}

	if len(*scope.Globals) > 0 {
		w.withSection(secGlobal, func() { emitGlobalSection(w, *scope.Globals) })
	}

	if len(*scope.Exports) > 0 {
		w.withSection(secExport, func() { emitExportSection(w, *scope.Exports, scope) })
	}

	if startFn := findMainFunction(*scope.Functions); startFn != nil {
		w.withSection(secStart, func() { w.uleb128(uint64(startFn.Index)) })
	}

	if len(*scope.Functions) > 0 {
		w.withSection(secCode, func() { emitCodeSection(w, root, *scope.Functions) })
	}

	return w.buf, nil
}

// assignIndices lays out the function and global index spaces: imported
// entities first (spec's testable property #4 — imports always occupy the
// low indices), then locally defined ones in declaration order.
func assignIndices(scope *Scope) {
	idx := 0
	for _, d := range *scope.ImportedFuncs {
		d.Index = idx
		idx++
	}
	for _, d := range *scope.Functions {
		d.Index = idx
		idx++
	}
	idx = 0
	for _, d := range *scope.ImportedGlobals {
		d.Index = idx
		idx++
	}
	for _, d := range *scope.Globals {
		d.Index = idx
		idx++
	}
}

type importEntry struct {
	module, field string
	kind          byte
	def           *Definition
}

func collectImports(scope *Scope) []importEntry {
	var entries []importEntry
	for _, d := range *scope.ImportedFuncs {
		entries = append(entries, importEntry{d.ImportModule, d.ImportField, extKindFunc, d})
	}
	for _, d := range *scope.ImportedGlobals {
		entries = append(entries, importEntry{d.ImportModule, d.ImportField, extKindGlobal, d})
	}
	if m := *scope.DefaultMemory; m != nil && m.ImportModule != "" {
		entries = append(entries, importEntry{m.ImportModule, m.ImportField, extKindMemory, m})
	}
	if t := *scope.DefaultTable; t != nil && t.ImportModule != "" {
		entries = append(entries, importEntry{t.ImportModule, t.ImportField, extKindTable, t})
	}
	return entries
}

func emitTypeSection(w *byteWriter, scope *Scope) {
	w.uleb128(uint64(len(scope.Signatures.list)))
	for _, sig := range scope.Signatures.list {
		w.byte(0x60) // func type tag
		w.uleb128(uint64(len(sig.Params)))
		for _, p := range sig.Params {
			w.byte(p.valueTypeTag())
		}
		if sig.Result == TypeVoid {
			w.uleb128(0)
		} else {
			w.uleb128(1)
			w.byte(sig.Result.valueTypeTag())
		}
	}
}

func emitImportSection(w *byteWriter, imports []importEntry) {
	w.uleb128(uint64(len(imports)))
	for _, im := range imports {
		w.name(im.module)
		w.name(im.field)
		w.byte(im.kind)
		switch im.kind {
		case extKindFunc:
			w.uleb128(uint64(im.def.SigIndex))
		case extKindGlobal:
			w.byte(im.def.RunType.valueTypeTag())
			w.byte(boolByte(im.def.Mutable))
		case extKindMemory:
			emitLimits(w, im.def)
		case extKindTable:
			w.byte(0x70) // anyfunc
			emitLimits(w, im.def)
		}
	}
}

func emitFunctionSection(w *byteWriter, fns []*Definition) {
	w.uleb128(uint64(len(fns)))
	for _, f := range fns {
		w.uleb128(uint64(f.SigIndex))
	}
}

func emitTableSection(w *byteWriter, t *Definition) {
	w.uleb128(1)
	w.byte(0x70)
	emitLimits(w, t)
}

func emitMemorySection(w *byteWriter, m *Definition) {
	w.uleb128(1)
	emitLimits(w, m)
}

func emitLimits(w *byteWriter, d *Definition) {
	if d.HasMemoryMax {
		w.byte(0x01)
		w.uleb128(uint64(d.MemoryInitial))
		w.uleb128(uint64(d.MemoryMax))
	} else {
		w.byte(0x00)
		w.uleb128(uint64(d.MemoryInitial))
	}
}

func emitGlobalSection(w *byteWriter, globals []*Definition) {
	w.uleb128(uint64(len(globals)))
	for _, g := range globals {
		w.byte(g.RunType.valueTypeTag())
		w.byte(boolByte(g.Mutable))
		emitConstExpr(w, g.Initializer, g.RunType)
		w.byte(opEnd)
	}
}

// emitConstExpr emits a global initializer, which spec §4.6 restricts to a
// literal (possibly negated) or a reference to an already-imported
// immutable global.
func emitConstExpr(w *byteWriter, n *ASTNode, rt RunType) {
	if n.Kind == KindIdentRef {
		w.byte(opGlobalGet)
		w.uleb128(uint64(n.Meta.Def.Index))
		return
	}
	emitLiteralConst(w, n, rt)
}

func emitLiteralConst(w *byteWriter, n *ASTNode, rt RunType) {
	switch rt {
	case TypeI32:
		w.byte(opI32Const)
		w.sleb128(n.Meta.Value)
	case TypeI64:
		w.byte(opI64Const)
		w.sleb128(n.Meta.Value)
	case TypeF32:
		w.byte(opF32Const)
		w.f32(float32(n.Meta.FValue))
	case TypeF64:
		w.byte(opF64Const)
		w.f64(n.Meta.FValue)
	}
}

func emitExportSection(w *byteWriter, exports []ExportEntry, scope *Scope) {
	w.uleb128(uint64(len(exports)))
	for _, e := range exports {
		w.name(e.Name)
		kind, idx := exportTarget(e.Def, scope)
		w.byte(kind)
		w.uleb128(uint64(idx))
	}
}

func exportTarget(d *Definition, scope *Scope) (byte, int) {
	switch d.Kind {
	case DefFunction:
		return extKindFunc, d.Index
	case DefGlobal:
		return extKindGlobal, d.Index
	case DefMemory:
		return extKindMemory, 0
	case DefTable:
		return extKindTable, 0
	default:
		return extKindFunc, d.Index
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// findMainFunction looks for a locally defined, non-imported, nullary
// function literally named "main" and returning void to populate the start
// section (spec §4.7): the module's own entrypoint convention, distinct
// from exports. The target VM's start function is not permitted to leave a
// value on the stack, so a "main" with a non-void return type doesn't
// qualify and is left to be reached only via an explicit export/call.
func findMainFunction(fns []*Definition) *Definition {
	for _, f := range fns {
		if f.Name == "main" && len(f.ParamTypes) == 0 && f.RunType == TypeVoid {
			return f
		}
	}
	return nil
}
