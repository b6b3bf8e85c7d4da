package descname

import (
	"strings"

	"github.com/kfcio/kfc/codec"
	"github.com/kfcio/kfc/guid"
	"github.com/kfcio/kfc/reflection"
)

// nameFieldCandidates lists the field names, in priority order, that
// conventionally carry a human-readable descriptor name when no
// localization reference is present.
var nameFieldCandidates = []string{"name", "debugName", "dbgName"}

// Namer resolves a display name for a decoded descriptor Value.
type Namer struct {
	registry *reflection.TypeRegistry
	table    *Table
}

// NewNamer builds a Namer over registry. table may be nil, in which case
// localization-reference fields are skipped and the namer falls through
// to the BlobString/GUID fallbacks.
func NewNamer(registry *reflection.TypeRegistry, table *Table) *Namer {
	return &Namer{registry: registry, table: table}
}

// NameFor returns the best available display name for value, a struct
// decoded against the type at typeIdx: first a field whose type name marks
// it as a localization reference (resolved through the loaded table),
// then a conventionally-named BlobString field, then fallback's canonical
// qualified GUID string.
func (n *Namer) NameFor(value codec.Value, typeIdx reflection.TypeIndex, fallback guid.DescriptorID) string {
	if value.Kind == codec.KindStruct {
		if s := n.registry; s != nil {
			if name, ok := n.fromLocalizationField(value, typeIdx); ok {
				return name
			}
		}
		if name, ok := n.fromNameField(value); ok {
			return name
		}
	}
	return fallback.QualifiedString()
}

// fromLocalizationField looks for a struct field whose declared type's
// name identifies it as a localization id (loosely matched, case
// insensitive, against "localiz"/"locid"/"loc_id" substrings — the
// registry carries no dedicated primitive kind for this, only a
// conventionally named type), reads its integer value, and resolves it
// through the loaded table.
func (n *Namer) fromLocalizationField(value codec.Value, typeIdx reflection.TypeIndex) (string, bool) {
	if n.table == nil {
		return "", false
	}
	fields, err := n.registry.IterFields(typeIdx)
	if err != nil {
		return "", false
	}
	st := value.AsStruct()
	if st == nil {
		return "", false
	}
	for _, f := range fields {
		ft, err := n.registry.ByIndex(f.Type)
		if err != nil || !isLocalizationRefType(ft) {
			continue
		}
		fv, ok := st.Get(f.Name)
		if !ok {
			continue
		}
		id := uint32(fv.AsUInt())
		if name, ok := n.table.Lookup(id); ok && name != "" {
			return name, true
		}
	}
	return "", false
}

func isLocalizationRefType(t *reflection.TypeMetadata) bool {
	name := strings.ToLower(t.Name)
	return strings.Contains(name, "localiz") || strings.Contains(name, "locid") || strings.Contains(name, "loc_id")
}

// fromNameField checks nameFieldCandidates in priority order for a
// BlobString-shaped field (decoded as a non-empty string Value).
func (n *Namer) fromNameField(value codec.Value) (string, bool) {
	st := value.AsStruct()
	if st == nil {
		return "", false
	}
	for _, candidate := range nameFieldCandidates {
		fv, ok := st.Get(candidate)
		if !ok || fv.Kind != codec.KindString {
			continue
		}
		if s := fv.AsString(); s != "" {
			return s, true
		}
	}
	return "", false
}
