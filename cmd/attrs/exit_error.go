package main

import "fmt"

// exitError ends the command with code after its output was written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}
