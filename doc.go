// Package understory assembles bounded context bundles around a cursor
// position: the enclosing function, the declarations of the types it
// mentions, the functions it calls, and a capped snapshot of the workspace
// tree. Bundles are built from best-effort capability queries; a failed
// lookup narrows the bundle instead of failing it.
//
// # Pipeline
//
// For a query at (file, position) the engine:
//
//  1. Locates the enclosing function-like symbol, falling back to a
//     whole-document pseudo-function when nothing encloses the position.
//  2. Tokenizes the function body and resolves each surviving identifier to
//     its type declaration, then recursively resolves the types those
//     declarations mention, depth-bounded and cycle-safe.
//  3. Resolves call-shaped tokens to the functions they reference.
//  4. Renders a capped workspace file tree with the touched files marked.
//
// # Usage
//
// Create an Engine over a capability provider and query:
//
//	e, err := understory.New(p, "/path/to/workspace")
//	if err != nil { ... }
//
//	bundle, err := e.ContextAt(ctx, "internal/service/user.go", understory.Position{Line: 41, Col: 8})
//
// The provider is any implementation of the capability interface; the
// internal/index package ships one backed by a persistent tree-sitter symbol
// index.
//
// # Sweeps
//
// [Engine.Sweep] runs the same pipeline over every function in a set of
// files and [Consolidate] merges the results, deduplicating declarations
// that multiple functions share by their defining file and range.
package understory
