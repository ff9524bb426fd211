// Command attrs builds models from JSON input using types declared in a
// YAML schema file.
//
//	attrs assign  --schema team.yaml --type Team --input team.json --update patch.json
//	attrs inspect --schema team.yaml --type Team < team.json
//	attrs types   --schema team.yaml
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	cmd := newRootCmd(in, out, errOut)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintln(errOut, "attrs:", err)
		return 1
	}
	return 0
}
