// Package collection implements the collection engine: an in-memory model
// of one user's collection document, lazily derived path and track
// indices over it, structural mutation operations with write-through
// persistence, and a heuristic comment categorizer.
//
// One Engine owns one parsed document. All public operations serialize
// behind the engine mutex; derived indices are invalidated on every
// structural mutation and rebuilt on the next read.
package collection
