// uigen serves LLM-driven UI code generation backed by a component catalog,
// a documentation vector index, and an external TypeScript compiler.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
