package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
)

// globals used to patch over calls to os.Exit() during test
var (
	logFatalln = log.Fatalln
	osExit     = os.Exit

	// results go to stdout, logs to stderr
	output io.Writer = os.Stdout
)

// jsonResult is satisfied by every result type the library returns.
type jsonResult interface {
	JSON() ([]byte, error)
}

// writeResult prints the operation's JSON result and exits non-zero
// when the operation did not succeed. The result already carries the
// failure details, so the error itself is not printed twice.
func writeResult(res jsonResult, ok bool) {
	data, err := res.JSON()
	if err != nil {
		logFatalln(err)
		return
	}
	fmt.Fprintln(output, string(data))
	if !ok {
		osExit(1)
	}
}
