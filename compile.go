package main

// Parse lexes and parses source into a program AST without running name
// resolution or validation. Useful on its own for tooling (an AST dumper,
// the literate test harness) that wants the tree before deciding whether
// to continue the pipeline.
func Parse(source []byte) (*ASTNode, error) {
	src := ensureNulTerminated(source)
	p := NewParser(src)
	root := p.parseProgramWith()
	if p.Errors.HasErrors() {
		return root, p.Errors.Err()
	}
	return root, nil
}

// Compile runs the full pipeline (spec §2's leaf-to-root component order:
// lex -> parse -> resolve -> validate -> emit) and returns the finished
// WASM binary. The first stage to report an error aborts the pipeline; no
// stage after it runs.
func Compile(source []byte) ([]byte, error) {
	root, err := Parse(source)
	if err != nil {
		return nil, err
	}

	if errs := Resolve(root); errs.HasErrors() {
		return nil, errs.Err()
	}
	if errs := Validate(root); errs.HasErrors() {
		return nil, errs.Err()
	}

	bin, cerr := EmitModule(root)
	if cerr != nil {
		return nil, cerr
	}
	return bin, nil
}

func ensureNulTerminated(source []byte) []byte {
	if len(source) > 0 && source[len(source)-1] == 0 {
		return source
	}
	out := make([]byte, len(source)+1)
	copy(out, source)
	return out
}
