// Package config loads the optional wisp.cue project manifest.
package config

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Manifest holds the project-wide defaults wispc falls back to when a
// build/check invocation doesn't override them on the command line.
type Manifest struct {
	OutputPath         string `json:"outputPath"`
	MainExportName     string `json:"mainExportName"`
	MemoryInitialPages int    `json:"memoryInitialPages"`
}

const schemaSrc = `
outputPath?:         string
mainExportName?:     string
memoryInitialPages?: int & >=0
`

// Load reads and validates a wisp.cue manifest at path. A missing file is
// not an error: Load returns the zero Manifest so callers can apply
// built-in defaults.
func Load(path string) (Manifest, error) {
	var m Manifest

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return m, err
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + schemaSrc + "})")
	if err := schema.Err(); err != nil {
		return m, fmt.Errorf("internal manifest schema: %w", err)
	}

	value := ctx.CompileBytes(content, cue.Filename(path))
	if err := value.Err(); err != nil {
		return m, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := schema.Unify(value).Validate(); err != nil {
		return m, fmt.Errorf("validating %s: %w", path, err)
	}

	if err := value.Decode(&m); err != nil {
		return m, fmt.Errorf("decoding %s: %w", path, err)
	}
	return m, nil
}
