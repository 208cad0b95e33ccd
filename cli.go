package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/wisplang/wispc/internal/config"
)

const defaultManifestPath = "wisp.cue"

func showUsage() {
	fmt.Fprintf(os.Stderr, `wispc - Wisp compiler, targets WebAssembly

Usage:
    wispc <command> [arguments]

Commands:
    build <file>    Compile a .wisp file to a WebAssembly module
    check <file>    Parse, resolve and validate a .wisp file without emitting
    help            Show this help message

Examples:
    wispc build -o program.wasm hello.wisp
    wispc check hello.wisp

Use "wispc <command> -h" for more information about a command.
`)
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	output := fs.String("o", "", "Output file path (default: <filename>.wasm)")
	manifestPath := fs.String("c", defaultManifestPath, "Project manifest path")
	verbose := fs.Bool("v", false, "Show the parsed AST and stage progress")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wispc build [-o output] [-c manifest] [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Compile a .wisp file to a WebAssembly module\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	filename := fs.Arg(0)

	manifest, err := config.Load(*manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading manifest %s: %v\n", *manifestPath, err)
		os.Exit(1)
	}

	outputFile := *output
	if outputFile == "" {
		outputFile = manifest.OutputPath
	}
	if outputFile == "" {
		outputFile = strings.TrimSuffix(filename, ".wisp") + ".wasm"
	}

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Parsing %s...\n", filename)
	}
	root, err := Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parsing failed:\n%v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Printf("AST: %s\n", dumpAST(root))
	}

	if errs := Resolve(root); errs.HasErrors() {
		fmt.Fprintf(os.Stderr, "Resolution failed:\n%s\n", errs.String())
		os.Exit(1)
	}
	if errs := Validate(root); errs.HasErrors() {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", errs.String())
		os.Exit(1)
	}

	wasmBytes, cerr := EmitModule(root)
	if cerr != nil {
		fmt.Fprintf(os.Stderr, "Emission failed:\n%v\n", cerr)
		os.Exit(1)
	}

	if err := os.WriteFile(outputFile, wasmBytes, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WASM file %s: %v\n", outputFile, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s (%d bytes)\n", outputFile, len(wasmBytes))
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show the parsed AST")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wispc check [-v] <file>\n")
		fmt.Fprintf(os.Stderr, "Parse, resolve and validate a .wisp file without emitting\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one file argument\n")
		fs.Usage()
		os.Exit(1)
	}
	filename := fs.Arg(0)

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file %s: %v\n", filename, err)
		os.Exit(1)
	}

	root, err := Parse(source)
	if err != nil {
		fmt.Printf("Parsing errors in %s:\n%v\n", filename, err)
		os.Exit(1)
	}

	if errs := Resolve(root); errs.HasErrors() {
		fmt.Printf("Resolution errors in %s:\n%s\n", filename, errs.String())
		os.Exit(1)
	}

	if errs := Validate(root); errs.HasErrors() {
		fmt.Printf("Validation errors in %s:\n%s\n", filename, errs.String())
		os.Exit(1)
	}

	fmt.Printf("%s: no errors found\n", filename)

	if *verbose {
		fmt.Printf("AST: %s\n", dumpAST(root))
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
