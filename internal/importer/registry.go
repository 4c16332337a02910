package importer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Registry holds all registered parsers.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates an empty registry. Built-in parsers are registered by
// the caller to keep this package free of format-specific imports.
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// Register adds a parser.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// FindParser returns the first parser that accepts this file. The first 512
// bytes are read for header inspection; that is enough to detect the OFX
// header block and CSV header rows.
func (r *Registry) FindParser(path string) (Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	// EOF is fine, small export files may be shorter than 512 bytes.
	header = header[:n]

	for _, p := range r.parsers {
		if p.CanParse(path, header) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no parser found for file: %s", path)
}

// ListParsers returns the registered parser names.
func (r *Registry) ListParsers() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}

// Discover walks a path and returns every importable export file beneath it.
// A path to a regular file returns just that file.
func Discover(root string) ([]*Metadata, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		meta, err := NewMetadata(root, time.Now())
		if err != nil {
			return nil, err
		}
		return []*Metadata{meta}, nil
	}

	var results []*Metadata
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !isImportFile(path) {
			return nil
		}
		meta, err := NewMetadata(path, time.Now())
		if err != nil {
			return err
		}
		results = append(results, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	return results, nil
}

// isImportFile checks for a known export extension.
func isImportFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".ofx" || ext == ".qfx"
}
