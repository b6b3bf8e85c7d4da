package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kfcio/kfc/catalog"
	"github.com/kfcio/kfc/codec"
	"github.com/kfcio/kfc/guid"
)

var (
	catTypeHash  uint32
	catPart      uint32
	catHumanRead bool
)

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <guid>",
		Short: "Decode one descriptor and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireCatalog(); err != nil {
				return err
			}
			id, err := parseDescriptorArg(args[0])
			if err != nil {
				return err
			}

			reg, err := loadRegistry(exePath)
			if err != nil {
				return err
			}
			reader, err := catalog.Open(catalogPath)
			if err != nil {
				return fmt.Errorf("kfcdump: open catalog: %w", err)
			}
			defer reader.Close()

			raw, err := reader.ReadDescriptor(id)
			if err != nil {
				return fmt.Errorf("kfcdump: read descriptor: %w", err)
			}
			typeMeta, err := reg.ByQualifiedHash(id.TypeHash)
			if err != nil {
				return fmt.Errorf("kfcdump: resolve type: %w", err)
			}

			opts := codec.Compact
			if catHumanRead {
				opts = codec.HumanReadable
			}
			value, err := codec.Decode(reg, typeMeta.Index, raw, opts)
			if err != nil {
				return fmt.Errorf("kfcdump: decode descriptor: %w", err)
			}
			out, err := codec.MarshalDescriptorRoot(reg, typeMeta.Index, id.Data, id.Part, value, opts)
			if err != nil {
				return fmt.Errorf("kfcdump: marshal descriptor: %w", err)
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, out, "", "  "); err != nil {
				fmt.Println(string(out))
				return nil
			}
			fmt.Println(pretty.String())
			return nil
		},
	}
	cmd.Flags().Uint32Var(&catTypeHash, "type-hash", 0, "descriptor type hash (ignored if the guid argument is the qualified GUID_xxxx_n form)")
	cmd.Flags().Uint32Var(&catPart, "part", 0, "descriptor part index (ignored if the guid argument is the qualified form)")
	cmd.Flags().BoolVar(&catHumanRead, "human", false, "decode enums/bitmasks/guids as names/strings instead of raw integers")
	return cmd
}

// parseDescriptorArg accepts either the qualified `GUID_{hash}_{part}` form
// or a bare guid paired with the --type-hash/--part flags.
func parseDescriptorArg(s string) (guid.DescriptorID, error) {
	if id, err := guid.ParseQualifiedDescriptorID(s); err == nil {
		return id, nil
	}
	return guid.ParseDescriptorID(s, catTypeHash, catPart)
}
