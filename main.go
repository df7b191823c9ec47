package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/AndyXT/doccheck/cmd"
	"github.com/AndyXT/doccheck/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "doccheck:", err)

		var confErr *errors.ConfigurationError
		if stderrors.As(err, &confErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
