// Package storage implements the engine's two storage collaborators: a
// blob store for serialized collection documents (filesystem-backed,
// overwrite semantics, no versioning) and a pointer-record repository
// (SQLite) mapping each owner to their current document location.
//
// The blob write and the pointer update are separate operations. A crash
// between them leaves the pointer referencing the previous content; that
// failure mode is documented and accepted, not repaired here.
package storage
