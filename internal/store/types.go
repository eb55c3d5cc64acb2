package store

import "time"

// File is one indexed source file.
type File struct {
	ID          int64
	Path        string
	Language    string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Symbol is one extracted declaration. ParentSymbolID links nested
// declarations (methods under a class, fields under a struct) to their
// container.
type Symbol struct {
	ID             int64
	FileID         int64
	Name           string
	Kind           string
	StartLine      int
	StartCol       int
	EndLine        int
	EndCol         int
	ParentSymbolID *int64
}
