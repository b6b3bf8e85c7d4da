package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kfcio/kfc/catalog"
	"github.com/kfcio/kfc/guid"
)

var extractOut string

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <content-hash>",
		Short: "Write one blob's raw bytes to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireCatalog(); err != nil {
				return err
			}
			hash, err := guid.ParseContentHash(args[0])
			if err != nil {
				return fmt.Errorf("kfcdump: parse content hash: %w", err)
			}

			reader, err := catalog.Open(catalogPath)
			if err != nil {
				return fmt.Errorf("kfcdump: open catalog: %w", err)
			}
			defer reader.Close()

			data, err := reader.ReadBlob(hash)
			if err != nil {
				return fmt.Errorf("kfcdump: read blob: %w", err)
			}

			out := extractOut
			if out == "" {
				out = hash.String() + ".bin"
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("kfcdump: write %s: %w", out, err)
			}
			fmt.Printf("wrote %d bytes to %s\n", len(data), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&extractOut, "out", "o", "", "output file path (default: <hash>.bin)")
	return cmd
}
