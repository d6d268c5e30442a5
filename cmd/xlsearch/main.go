// xlsearch - Cross-link MS/MS search engine
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/xlsearch/cmd/xlsearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
