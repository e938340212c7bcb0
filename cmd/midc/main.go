// Command midc reads a MidIR JSON module, validates it, lowers it via
// codegen.ToLLVM and writes LLVM IR text, ready for assembly to bitcode.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/arclang/midc/internal/codegen"
	"github.com/arclang/midc/internal/constval"
	"github.com/arclang/midc/internal/gcmeta"
	"github.com/arclang/midc/internal/memaccess"
	"github.com/arclang/midc/internal/midir"
	"github.com/arclang/midc/internal/validate"
)

func main() {
	var input string
	var output string
	var format string
	var parallel bool
	flag.StringVar(&input, "file", "", "MidIR JSON file to compile (reads from stdin if not provided)")
	flag.StringVar(&output, "o", "", "Output file (default: input file with the -format extension, or output.<format> when reading stdin)")
	flag.StringVar(&format, "format", "ll", "Output format: ll (LLVM IR text) or bc (writes LLVM IR text and prints the llvm-as command that assembles the bitcode)")
	flag.BoolVar(&parallel, "parallel", false, "Lower function bodies concurrently across GOMAXPROCS workers")
	flag.Parse()

	data, err := readInput(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	var module midir.Module
	if err := json.Unmarshal(data, &module); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing MidIR JSON: %v\n", err)
		os.Exit(1)
	}

	if err := validate.Module(&module); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%v\n", err)
		os.Exit(1)
	}

	opts := codegen.Options{
		ConstVal: constval.New(),
		MemAcc:   memaccess.New(),
		GCMeta:   gcmeta.New(),
	}
	if parallel {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	llvmModule, err := codegen.ToLLVM(&module, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Code generation failed: %+v\n", err)
		os.Exit(1)
	}

	if output == "" {
		if input == "" {
			output = "output." + format
		} else {
			base := strings.TrimSuffix(input, filepath.Ext(input))
			output = base + "." + format
		}
	}

	switch format {
	case "ll":
		if err := os.WriteFile(output, []byte(llvmModule.String()), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing LLVM IR: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("LLVM IR written to %s\n", output)

	case "bc":
		// Bitcode assembly is deferred to llvm-as.
		llFile := strings.TrimSuffix(output, ".bc") + ".ll"
		if err := os.WriteFile(llFile, []byte(llvmModule.String()), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing LLVM IR: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("LLVM IR written to %s\n", llFile)
		fmt.Printf("To generate bitcode, run: llvm-as %s -o %s\n", llFile, output)

	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s\n", format)
		os.Exit(1)
	}
}

func readInput(input string) ([]byte, error) {
	if input == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(input)
}
