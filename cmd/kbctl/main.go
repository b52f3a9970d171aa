// Command kbctl manages the regulation knowledge base: schema bootstrap,
// document extraction, graph ingestion, and ad-hoc questions and checks.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
