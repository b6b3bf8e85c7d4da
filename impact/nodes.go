package impact

import (
	"github.com/kfcio/kfc/khash"
	"github.com/kfcio/kfc/reflection"
)

const (
	impactNodeName            = "keen::impact_nodes::ImpactNode"
	impactNodeExecution       = "$ImpactNodeExecution"
	impactNodeExecutionBranch = "keen::impact_nodes::ImpactNodeExecutionBranch"

	attrInput     = "impact_node_input"
	attrOutput    = "impact_node_output"
	attrConfig    = "impact_config"
	attrValue     = "impact_node_value"
	attrMandatory = "impact_mandatory_connection"
)

var (
	impactNodeHash           = khash.FNV1aString(impactNodeName)
	impactNodeExecutionHash  = khash.FNV1aString(impactNodeExecution)
	impactNodeExecBranchHash = khash.FNV1aString(impactNodeExecutionBranch)
)

// TypeRef names a type by its qualified name and FNV-1a hash, the
// lightweight reference impact node pins carry instead of a full
// TypeMetadata.
type TypeRef struct {
	Name string
	Hash uint32
}

// Pin is one named, typed connection point on a Node: an input, output,
// config, or value slot.
type Pin struct {
	Name        string
	Type        TypeRef
	IsMandatory bool
}

// IsExecution reports whether pin carries control flow rather than data —
// true for the two reflection types the engine uses to thread execution
// through a node graph.
func (p Pin) IsExecution() bool {
	return p.Type.Hash == impactNodeExecutionHash || p.Type.Hash == impactNodeExecBranchHash
}

// Node describes one impact node type's shape: its own type reference,
// its ancestor chain, and its categorized pins.
type Node struct {
	Name       string
	Hash       uint32
	Type       TypeRef
	SuperTypes []TypeRef
	Inputs     []Pin
	Outputs    []Pin
	Configs    []Pin
	Values     []Pin
}

// DecodeNodes derives the impact node catalog from registry: every
// registered type that inherits (directly or transitively) from
// ImpactNode, classified into input/output/config/value pins by its
// struct fields' attribute tags.
func DecodeNodes(registry *reflection.TypeRegistry) (map[uint32]*Node, error) {
	nodeTypes, err := impactNodeTypes(registry)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uint32]*Node, len(nodeTypes))
	for _, idx := range nodeTypes {
		if _, err := buildNode(registry, idx, nodes); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// impactNodeTypes returns every type index whose inheritance chain
// reaches ImpactNode and that does not carry the has-ds flag (fields using
// the runtime data-structure containers DsArray/DsString/DsOptional/
// DsVariant).
func impactNodeTypes(registry *reflection.TypeRegistry) ([]reflection.TypeIndex, error) {
	var out []reflection.TypeIndex
	for i := 0; i < registry.Len(); i++ {
		idx := reflection.TypeIndex(i)
		t, err := registry.ByIndex(idx)
		if err != nil {
			return nil, err
		}
		if t.Flags.Has(reflection.FlagHasDs) {
			continue
		}
		chain, err := registry.InheritanceChain(idx)
		if err != nil {
			return nil, err
		}
		for _, anc := range chain {
			at, err := registry.ByIndex(anc)
			if err != nil {
				return nil, err
			}
			if at.QualifiedHash == impactNodeHash {
				out = append(out, idx)
				break
			}
		}
	}
	return out, nil
}

func buildNode(registry *reflection.TypeRegistry, idx reflection.TypeIndex, nodes map[uint32]*Node) (*Node, error) {
	t, err := registry.ByIndex(idx)
	if err != nil {
		return nil, err
	}
	if existing, ok := nodes[khash.FNV1aString(t.Name)]; ok {
		return existing, nil
	}

	var superTypes []TypeRef
	inner := t.InnerType
	for inner != nil {
		at, err := registry.ByIndex(*inner)
		if err != nil {
			return nil, err
		}
		superTypes = append(superTypes, TypeRef{Name: at.QualifiedName(), Hash: at.QualifiedHash})
		inner = at.InnerType
	}

	var inputs, outputs, configs, values []Pin

	if len(superTypes) > 0 {
		if superIdx, err := registry.ByQualifiedHash(superTypes[0].Hash); err == nil {
			superNode, err := buildNode(registry, superIdx.Index, nodes)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, superNode.Inputs...)
			outputs = append(outputs, superNode.Outputs...)
			configs = append(configs, superNode.Configs...)
			values = append(values, superNode.Values...)
		}
	}

	for _, f := range t.StructFields {
		ft, err := registry.ByIndex(f.Type)
		if err != nil {
			return nil, err
		}
		ref := TypeRef{Name: ft.QualifiedName(), Hash: ft.QualifiedHash}

		switch {
		case hasAttribute(f, attrInput):
			inputs = append(inputs, Pin{Name: f.Name, Type: ref, IsMandatory: hasAttribute(f, attrMandatory)})
		case hasAttribute(f, attrOutput) || ft.QualifiedHash == impactNodeExecBranchHash:
			outputs = append(outputs, Pin{Name: f.Name, Type: ref, IsMandatory: hasAttribute(f, attrMandatory)})
		case hasAttribute(f, attrConfig):
			configs = append(configs, Pin{Name: f.Name, Type: ref})
		case hasAttribute(f, attrValue):
			values = append(values, Pin{Name: f.Name, Type: ref})
		}
	}

	node := &Node{
		Name:       t.Name,
		Hash:       khash.FNV1aString(t.Name),
		Type:       TypeRef{Name: t.QualifiedName(), Hash: t.QualifiedHash},
		SuperTypes: superTypes,
		Inputs:     inputs,
		Outputs:    outputs,
		Configs:    configs,
		Values:     values,
	}
	nodes[node.Hash] = node
	return node, nil
}

func hasAttribute(f reflection.StructField, name string) bool {
	for _, a := range f.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}
