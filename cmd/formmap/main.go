// Package main provides the formmap command line.
//
// formmap compiles a map document and transforms intake-form answer
// documents into QuestionnaireResponse-shaped target documents:
//   - transform: one document, target on stdout, errors on stderr
//   - batch: many documents concurrently
//   - check: load-time validation of a map
//   - inspect: dump the compiled plan
//
// Exit codes: 0 no errors, 1 field-level errors, 2 malformed map,
// structural mismatch or unreadable input.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
