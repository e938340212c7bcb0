// Command midc-validate runs structural validation on a MidIR JSON module
// and reports every diagnostic found.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/arclang/midc/internal/midir"
	"github.com/arclang/midc/internal/validate"
)

func main() {
	var input string
	flag.StringVar(&input, "file", "", "MidIR JSON file to validate (reads from stdin if not provided)")
	flag.Parse()

	var data []byte
	var err error
	if input == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(input)
	}
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
		fmt.Fprintf(os.Stderr, "Validation failed:\n")
		if errs, ok := err.(validate.Errors); ok {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "  - %s\n", e)
			}
		} else {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Println("Validation successful!")
}
