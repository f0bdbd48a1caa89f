// Package engine compiles a map document and transforms source documents
// with it.
//
// A compiled Engine is immutable: Transform may be called from any number
// of goroutines. Each call walks the states
//
//	Loaded -> Validating -> Extracting -> Assembling -> Done | Failed
//
// Validation is fail-fast for the document. Extraction aggregates every
// field-level problem. Assembly is best-effort unless strict mode is on.
package engine
