package main

// Resolve walks the scope tree built by the parser and performs the
// bookkeeping of spec §4.4 in three passes over the tree: classify every
// Definition, bind every reference to the Definition it names, then bind
// exports. Along the way it populates the program-wide tables (functions,
// globals, default memory/table, imports, exports) and catches
// name-resolution-level errors (unresolvable references, duplicate
// defaults, bad export targets).
func Resolve(root *ASTNode) *ErrorList {
	r := &resolver{}
	r.classifyDefinitions(root)
	r.bindReferences(root)
	r.bindExports(root)
	return &r.errs
}

type resolver struct {
	errs ErrorList
}

// classifyDefinitions walks every KindDefinition/KindDeclaration node and
// fills in its Definition's Kind, RunType, and program-table membership.
// Scope nesting already tells us local vs. global: only the root scope's
// direct definitions can be functions/globals/memory/table.
func (r *resolver) classifyDefinitions(n *ASTNode) {
	switch n.Kind {
	case KindDefinition:
		r.classifyOne(n, n.Scope.IsGlobal)
	case KindDeclaration:
		if n.Meta.Def.Kind == DefFunction || isImportDeclaration(n) {
			r.classifyImportDeclaration(n)
		}
	}
	for _, c := range n.Children {
		r.classifyDefinitions(c)
	}
}

func isImportDeclaration(n *ASTNode) bool {
	return n.Parent != nil && n.Parent.Kind == KindImport
}

func (r *resolver) classifyOne(n *ASTNode, isGlobalScope bool) {
	def := n.Meta.Def
	if len(n.Children) == 0 {
		r.errs.Append(newErrf(ErrBadInitializer, tokenOf(n), "'%s' has no initializer", def.Name))
		return
	}
	val := n.Children[0]

	switch val.Kind {
	case KindFuncLiteral:
		if !isGlobalScope {
			r.errs.Append(newErrf(ErrBadFunctionPlacement, tokenOf(n), "function '%s' must be defined at the top level", def.Name))
			return
		}
		def.Kind = DefFunction
		def.RunType = val.Meta.TypeSpec.Base
		def.FuncNode = val
		params := val.Children[0]
		sig := FuncSignature{Result: val.Meta.TypeSpec.Base}
		for _, pn := range params.Children {
			sig.Params = append(sig.Params, pn.Meta.TypeSpec.RunType())
			def.ParamTypes = append(def.ParamTypes, pn.Meta.TypeSpec)
		}
		def.SigIndex = n.Scope.Signatures.intern(sig)
		*n.Scope.Functions = append(*n.Scope.Functions, def)

	case KindMemoryLiteral:
		if !isGlobalScope {
			r.errs.Append(newErrf(ErrBadFunctionPlacement, tokenOf(n), "memory '%s' must be defined at the top level", def.Name))
			return
		}
		if *n.Scope.DefaultMemory != nil {
			r.errs.Append(newErrf(ErrDuplicateDefaultMemoryOrTable, tokenOf(n), "a memory is already defined"))
			return
		}
		def.Kind = DefMemory
		def.RunType = TypeI32
		def.MemoryInitial = int(val.Meta.Value)
		if val.Meta.Opcode == 1 {
			def.HasMemoryMax = true
			def.MemoryMax = int(val.Meta.FValue)
		}
		*n.Scope.DefaultMemory = def

	case KindTableLiteral:
		if !isGlobalScope {
			r.errs.Append(newErrf(ErrBadFunctionPlacement, tokenOf(n), "table '%s' must be defined at the top level", def.Name))
			return
		}
		if *n.Scope.DefaultTable != nil {
			r.errs.Append(newErrf(ErrDuplicateDefaultMemoryOrTable, tokenOf(n), "a table is already defined"))
			return
		}
		def.Kind = DefTable
		def.RunType = TypeI32
		def.MemoryInitial = int(val.Meta.Value)
		if val.Meta.Opcode == 1 {
			def.HasMemoryMax = true
			def.MemoryMax = int(val.Meta.FValue)
		}
		*n.Scope.DefaultTable = def

	default:
		rt := n.Meta.TypeSpec.RunType()
		def.RunType = rt
		if n.Meta.TypeSpec.Kind == KindPointerType {
			def.IsPointer = true
			def.Storage = n.Meta.TypeSpec.Storage
		}
		if n.Meta.TypeSpec.Kind == KindFuncPointerType {
			def.IsFuncPointer = true
			def.SigIndex = n.Meta.TypeSpec.SigIndex
		}
		if isGlobalScope {
			def.Kind = DefGlobal
			def.Initializer = val
			*n.Scope.Globals = append(*n.Scope.Globals, def)
		} else {
			def.Kind = DefLocal
			fn := n.Scope.enclosingFunction()
			if fn != nil {
				fn.Scope.Variables = append(fn.Scope.Variables, def)
			}
		}
	}
}

// classifyImportDeclaration fills in an import target's Definition and
// files it into the program's imported-function or imported-global table.
func (r *resolver) classifyImportDeclaration(n *ASTNode) {
	def := n.Meta.Def
	if len(n.Children) == 0 {
		def.Kind = DefGlobal
		def.RunType = n.Meta.TypeSpec.RunType()
		*n.Scope.ImportedGlobals = append(*n.Scope.ImportedGlobals, def)
		return
	}
	switch n.Children[0].Kind {
	case KindFuncSignature:
		sigNode := n.Children[0]
		sig := FuncSignature{Result: sigNode.Meta.TypeSpec.Base}
		for _, tn := range sigNode.Children[0].Children {
			sig.Params = append(sig.Params, tn.Meta.TypeSpec.RunType())
			def.ParamTypes = append(def.ParamTypes, tn.Meta.TypeSpec)
		}
		def.Kind = DefFunction
		def.RunType = sig.Result
		def.SigIndex = n.Scope.Signatures.intern(sig)
		*n.Scope.ImportedFuncs = append(*n.Scope.ImportedFuncs, def)
	case KindMemoryLiteral:
		def.Kind = DefMemory
		lit := n.Children[0]
		def.MemoryInitial = int(lit.Meta.Value)
		if lit.Meta.Opcode == 1 {
			def.HasMemoryMax = true
			def.MemoryMax = int(lit.Meta.FValue)
		}
		if *n.Scope.DefaultMemory != nil {
			r.errs.Append(newErrf(ErrDuplicateDefaultMemoryOrTable, tokenOf(n), "a memory is already defined"))
			return
		}
		*n.Scope.DefaultMemory = def
	case KindTableLiteral:
		def.Kind = DefTable
		lit := n.Children[0]
		def.MemoryInitial = int(lit.Meta.Value)
		if lit.Meta.Opcode == 1 {
			def.HasMemoryMax = true
			def.MemoryMax = int(lit.Meta.FValue)
		}
		if *n.Scope.DefaultTable != nil {
			r.errs.Append(newErrf(ErrDuplicateDefaultMemoryOrTable, tokenOf(n), "a table is already defined"))
			return
		}
		*n.Scope.DefaultTable = def
	default:
		def.Kind = DefGlobal
		def.RunType = n.Meta.TypeSpec.RunType()
		*n.Scope.ImportedGlobals = append(*n.Scope.ImportedGlobals, def)
	}
}

// bindReferences walks every KindIdentRef and resolves it against the
// scope chain (spec §4.4 step 4), reporting UnresolvableReference when a
// name was never declared anywhere visible.
func (r *resolver) bindReferences(n *ASTNode) {
	if n.Kind == KindIdentRef {
		name := n.text()
		def := n.Scope.lookup(name)
		if def == nil {
			r.errs.Append(newErrf(ErrUnresolvableReference, tokenOf(n), "'%s' is not defined", name))
		} else {
			n.Meta.Def = def
		}
	}
	for _, c := range n.Children {
		r.bindReferences(c)
	}
}

// bindExports resolves every KindExport's target and records it in the
// program's export table, checking the target actually exists and (for
// named identifiers) isn't a mutable global (spec's MutableExport rule).
func (r *resolver) bindExports(n *ASTNode) {
	if n.Kind == KindExport {
		target := n.Children[0]
		name := n.Meta.Op
		switch target.Kind {
		case KindExportType:
			var def *Definition
			if target.text() == "memory" {
				def = *n.Scope.DefaultMemory
			} else {
				def = *n.Scope.DefaultTable
			}
			if def == nil {
				r.errs.Append(newErrf(ErrNonExistentExport, tokenOf(n), "export %q has no matching memory/table", name))
			} else {
				def.ExportName = name
				*n.Scope.Exports = append(*n.Scope.Exports, ExportEntry{Name: name, Def: def})
			}
		case KindIdentRef:
			def := target.Meta.Def
			if def == nil {
				break // already reported as unresolvable
			}
			if def.Kind == DefGlobal && def.Mutable {
				r.errs.Append(newErrf(ErrMutableExport, tokenOf(n), "exported global %q must be immutable", name))
				break
			}
			def.ExportName = name
			*n.Scope.Exports = append(*n.Scope.Exports, ExportEntry{Name: name, Def: def})
		}
	}
	for _, c := range n.Children {
		r.bindExports(c)
	}
}
