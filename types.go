package understory

import (
	"github.com/jward/understory/internal/filetree"
	"github.com/jward/understory/internal/locate"
	"github.com/jward/understory/internal/provider"
	"github.com/jward/understory/internal/resolve"
)

// Public type aliases for internal types surfaced in the Engine API. These
// are Go type aliases (=), identical to the internal types at compile time.

type Position = provider.Position
type Range = provider.Range
type Location = provider.Location
type Handle = provider.Handle
type Symbol = provider.Symbol
type Provider = provider.Provider

type FunctionDefinition = locate.FunctionDefinition
type TypeDefinition = resolve.TypeDefinition
type FileNode = filetree.Node

// EntireDocumentName is the pseudo-function name used when no symbol
// encloses the query position.
const EntireDocumentName = locate.EntireDocumentName
