// Command kfcdump is a thin cobra CLI wrapping the library packages in
// this module: inspect a catalog header, cat a single descriptor as JSON,
// extract a blob's raw bytes, or batch-export many descriptors at once.
// Behavior lives in the packages it imports, not here.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	catalogPath string
	exePath     string
	verbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "kfcdump",
		Short: "Inspect and extract KFC catalog archives",
		Long:  "kfcdump reads KFC catalog/.dat archives and the reflection registry embedded in a game executable.",
	}
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "path to the .kfc catalog file")
	root.PersistentFlags().StringVar(&exePath, "exe", "", "path to the host executable carrying the reflection registry")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(newInspectCmd())
	root.AddCommand(newCatCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("kfcdump 0.1.0")
		},
	}
}

func requireCatalog() error {
	if catalogPath == "" {
		return fmt.Errorf("kfcdump: --catalog is required")
	}
	return nil
}
