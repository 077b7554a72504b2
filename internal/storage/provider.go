// Package storage defines the read-only source document abstraction.
package storage

import "time"

// DocumentInfo describes one enumerable source document.
type DocumentInfo struct {
	// Name is the path relative to the corpus root, using forward slashes.
	Name    string
	ModTime time.Time
}

// Provider is the interface the corpus loader reads posts through.
type Provider interface {
	// List returns every .md document under the corpus root in lexical order.
	// An error means the corpus itself could not be enumerated.
	List() ([]DocumentInfo, error)
	// Read returns the raw bytes of the document name (relative to the root).
	Read(name string) ([]byte, error)
}
