package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kfcio/kfc/batch"
	"github.com/kfcio/kfc/codec"
	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/internal/klog"
)

var (
	exportDir     string
	exportWorkers int
	exportHuman   bool
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <guid> [guid...]",
		Short: "Batch-decode descriptors to JSON files in a directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireCatalog(); err != nil {
				return err
			}
			reg, err := loadRegistry(exePath)
			if err != nil {
				return err
			}

			descriptorIDs, err := parseDescriptorArgs(args)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(exportDir, 0o755); err != nil {
				return fmt.Errorf("kfcdump: create output dir: %w", err)
			}

			opts := []batch.Option{batch.WithWorkers(exportWorkers)}
			if verbose {
				opts = append(opts, batch.WithLogger(klog.New()))
			}
			convOpts := codec.Compact
			if exportHuman {
				convOpts = codec.HumanReadable
			}
			opts = append(opts, batch.WithConversionOptions(convOpts))

			exporter := batch.NewExporter(catalogPath, reg, opts...)
			results, err := exporter.ExportAll(descriptorIDs)
			if err != nil {
				return fmt.Errorf("kfcdump: export: %w", err)
			}

			failures := 0
			for _, res := range results {
				if res.Err != nil {
					failures++
					fmt.Fprintf(os.Stderr, "kfcdump: %s: %v\n", res.ID.QualifiedString(), res.Err)
					continue
				}
				path := filepath.Join(exportDir, res.ID.QualifiedString()+".json")
				if err := os.WriteFile(path, res.JSON, 0o644); err != nil {
					return fmt.Errorf("kfcdump: write %s: %w", path, err)
				}
			}
			fmt.Printf("exported %d/%d descriptors to %s\n", len(results)-failures, len(results), exportDir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&exportDir, "dir", "d", "export", "output directory for exported JSON files")
	cmd.Flags().IntVarP(&exportWorkers, "workers", "w", 0, "worker count (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&exportHuman, "human", false, "decode enums/bitmasks/guids as names/strings instead of raw integers")
	cmd.Flags().Uint32Var(&catTypeHash, "type-hash", 0, "descriptor type hash for bare (non-qualified) guid arguments")
	cmd.Flags().Uint32Var(&catPart, "part", 0, "descriptor part index for bare (non-qualified) guid arguments")
	return cmd
}

func parseDescriptorArgs(args []string) ([]guid.DescriptorID, error) {
	ids := make([]guid.DescriptorID, 0, len(args))
	for _, a := range args {
		id, err := parseDescriptorArg(a)
		if err != nil {
			return nil, fmt.Errorf("kfcdump: parse %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
