package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/kfcio/kfc/catalog"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Print a summary of a catalog's header",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireCatalog(); err != nil {
				return err
			}
			reader, err := catalog.Open(catalogPath)
			if err != nil {
				return fmt.Errorf("kfcdump: open catalog: %w", err)
			}
			defer reader.Close()

			f := reader.File()
			fmt.Printf("game version:     %s\n", f.GameVersion)
			fmt.Printf("descriptors:      %d\n", len(f.DescriptorGuids))
			fmt.Printf("blobs:            %d\n", len(f.BlobGuids))
			fmt.Printf("descriptor types: %d\n", len(f.DescriptorTypeBundles))
			fmt.Printf("dat shards:       %d\n", len(f.DatInfos))
			for i, d := range f.DatInfos {
				path := catalog.DatShardPath(catalogPath, uint16(i))
				size := "unknown"
				if info, err := os.Stat(path); err == nil {
					size = humanize.Bytes(uint64(info.Size()))
				}
				fmt.Printf("  [%03d] %s  blobs=%d  largest-chunk=%s  (%s)\n",
					i, path, d.Count, humanize.Bytes(uint64(d.LargestChunkSize)), size)
			}
			return nil
		},
	}
}
