// Package safe provides total accessors over untrusted data.
//
// Remote responses arrive loosely typed and sometimes malformed. The helpers
// in this package let page code traverse them without guarding every step:
//   - Map, Filter, Reduce: run caller callbacks over a sequence
//   - Get, Lookup, Decode: walk a dotted path through maps, structs and slices
//   - Call: evaluate a thunk
//   - Index, IndexAny: bounds-checked indexing
//   - IsEmpty, HasItems, Items: length predicates and sequence views
//
// None of them panic. A callback that panics or returns an error is a
// callback fault: it is logged through the context logger and the call
// returns its fallback. Map, Filter and Reduce are all-or-nothing, so one bad
// element yields the fallback for the whole call rather than a partial result.
package safe
