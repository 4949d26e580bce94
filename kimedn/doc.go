// Package kimedn implements KIM-EDN, the subset of EDN used by the OpenKIM
// project to exchange structured scientific metadata.
//
// KIM-EDN is JSON with three changes:
//   - Commas are whitespace
//   - The colon between a map key and its value is optional
//   - A ';' outside a string starts a comment that runs to the end of the line
//
// # Data Model
//
// Scalars: string, integer (arbitrary precision), float, bool
// Containers: map (ordered, unique string keys), vector
//
// There is no null.
//
// Decoded values use these Go types:
//
//	string    string
//	integer   int64, or *big.Int when it does not fit
//	float     float64
//	bool      bool
//	map       *Map
//	vector    []any
//
// The encoder also accepts named types of those kinds, the other integer and
// float types, Go maps with string, integer, float or bool keys, and slices
// and arrays. Other values go through the WithDefault hook.
//
// # Syntax
//
//	{
//	  "property-id" "tag:staff@noreply.openkim.org,2014-04-15:property/cohesive-energy-relation-cubic-crystal"
//	  "instance-id" 1
//	  ; lattice constants in angstrom
//	  "a" {"source-value" [3.9 4.0 4.1] "source-unit" "angstrom"}
//	}
//
// # Errors
//
// Malformed input yields a *DecodeError whose message ends with the line,
// column and character offset of the offending character:
//
//	Expecting value: line 1 column 5 (char 4)
//
// Encoding failures wrap one of ErrUnsupportedKey, ErrNotSerializable,
// ErrCircularReference, ErrOutOfRangeFloat or ErrNestingTooDeep.
package kimedn
