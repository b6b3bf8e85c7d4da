package main

import (
	"fmt"

	"github.com/kfcio/kfc/internal/klog"
	"github.com/kfcio/kfc/pescan"
	"github.com/kfcio/kfc/reflection"
)

// loadRegistry memory-maps the executable at exePath and extracts the
// reflection type registry embedded in it. Every command that decodes
// descriptor bytes needs one.
func loadRegistry(exePath string) (*reflection.TypeRegistry, error) {
	if exePath == "" {
		return nil, fmt.Errorf("kfcdump: --exe is required")
	}

	logger := klog.NewNop()
	if verbose {
		logger = klog.New()
	}

	scanner, err := pescan.Open(exePath, &pescan.Options{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("kfcdump: open executable: %w", err)
	}
	defer scanner.Close()

	reg, err := reflection.Extract(scanner)
	if err != nil {
		return nil, fmt.Errorf("kfcdump: extract reflection registry: %w", err)
	}
	return reg, nil
}
