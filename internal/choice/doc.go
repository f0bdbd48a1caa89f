// Package choice translates coded source answers into target codes.
//
// Each mapped choice leaf owns a Vocabulary compiled from its choiceMap.
// Lookup is exact first; on a miss the raw value is normalized with the
// configured Mode and looked up once more. Two source codes that collapse to
// the same normalized key but map to different targets make the vocabulary
// ambiguous, which is reported when the map is loaded.
//
// Key functions:
//   - ParseMode / Mode.Normalize: normalization modes (exact, casefold, ident)
//   - NormalizeIdent: identifier normalization used by the ident mode
//   - Compile: builds a Vocabulary and reports ambiguity
//   - Vocabulary.Translate: resolves a raw value
//   - Vocabulary.Suggest: ranks declared codes close to an unknown value
package choice
