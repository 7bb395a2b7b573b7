// Package models defines the data shapes for the cratedex collection engine.
//
// The package contains three categories of types:
//
// 1. Source-of-truth document types, built once per engine by parsing the
// collection document and mutated only through engine operations:
//   - [Library] : the document root (node tree + flat track catalog)
//   - [RawNode] : a folder or playlist node in the tree
//   - [TrackEntry] : a catalog record keyed by volume+dir+file
//
// 2. Derived, cache-lifetime-scoped views, rebuilt on every index pass and
// never treated as owners of the underlying nodes:
//   - [NodeRef] : where a node was found during the last traversal
//   - [SidebarNode] : the read-only display projection of the tree
//
// 3. Field masks:
//   - [TrackUpdate] : optional-field patch applied to a TrackEntry in place
package models
