// Command model validates and projects documents against schema definition
// files, and exports those schemas as JSON Schema.
//
// Validate a request body:
//
//	model validate --schema item.yaml --input body.json
//
// Shape a validated value for output:
//
//	model project --schema item.yaml --input body.json --include name,price
//
// Export and check the JSON Schema:
//
//	model jsonschema --schema item.yaml --check
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
