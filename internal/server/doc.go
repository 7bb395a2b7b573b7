// Package server provides the HTTP surface over the collection and
// matching engines.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// [LibraryHandler] serves the collection operations (sidebar, document,
// tracks, structural mutations, comment cleanup) plus the catalog match
// endpoint. Engines are resolved per owner through a [sessions.Manager];
// responses use a JSON envelope and map the collection error taxonomy to
// HTTP status codes.
package server
