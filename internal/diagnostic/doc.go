// Package diagnostic provides the structured error report shared by every
// stage of a transform.
//
// Kinds, in the order a document meets them:
//   - MalformedMap: defect in the map document itself, fatal for the engine
//   - SchemaMismatch: source document does not conform to the declared shape,
//     fatal for that document only
//   - MissingRequiredField: required target path with no source value
//   - UnknownChoiceValue: coded source value missing from its vocabulary
//   - AssertionFailed: an output assertion evaluated to false
//
// The last three are aggregated: a transform keeps going and reports all of
// them together. Every diagnostic names the leaf id and/or linkid that caused
// it so a caller can correlate it back to the form.
package diagnostic
