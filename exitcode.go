package main

import "fmt"

// exitCodeError carries a process exit code through Cobra's RunE ->
// Execute() -> main() path without main needing to know which command
// produced it. Cobra's SilenceErrors means this is never printed — only
// its code is read.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", int(e))
}
