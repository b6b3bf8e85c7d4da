package reflection

// TypeRegistry is the immutable-after-Build type graph: every type
// discovered in the host executable, indexed by position, qualified hash,
// and impact hash.
type TypeRegistry struct {
	types            []TypeMetadata
	byQualifiedHash  map[uint32]TypeIndex
	byImpactHash     map[uint32]TypeIndex
}

// Build constructs a TypeRegistry from already-decoded type metadata (the
// reflection package doesn't know how to extract records from an
// executable — that's pescan's job; Build just assembles the graph and
// validates hash uniqueness).
func Build(types []TypeMetadata) (*TypeRegistry, error) {
	reg := &TypeRegistry{
		types:           make([]TypeMetadata, len(types)),
		byQualifiedHash: make(map[uint32]TypeIndex, len(types)),
		byImpactHash:    make(map[uint32]TypeIndex, len(types)),
	}
	copy(reg.types, types)

	for i := range reg.types {
		reg.types[i].Index = TypeIndex(i)
		t := &reg.types[i]

		if _, exists := reg.byQualifiedHash[t.QualifiedHash]; exists {
			return nil, ErrDuplicateQualifiedHash
		}
		reg.byQualifiedHash[t.QualifiedHash] = t.Index

		if t.ImpactHash != 0 {
			if _, exists := reg.byImpactHash[t.ImpactHash]; exists {
				return nil, ErrDuplicateImpactHash
			}
			reg.byImpactHash[t.ImpactHash] = t.Index
		}
	}

	for i := range reg.types {
		if err := reg.checkTypedefTerminates(TypeIndex(i)); err != nil {
			return nil, err
		}
		if err := reg.checkInheritanceTerminates(TypeIndex(i)); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

// Len returns the number of registered types.
func (r *TypeRegistry) Len() int { return len(r.types) }

// ByIndex returns the type at idx.
func (r *TypeRegistry) ByIndex(idx TypeIndex) (*TypeMetadata, error) {
	if idx < 0 || int(idx) >= len(r.types) {
		return nil, ErrUnknownIndex
	}
	return &r.types[idx], nil
}

// ByQualifiedHash looks up a type by the FNV-1a hash of its qualified name.
func (r *TypeRegistry) ByQualifiedHash(h uint32) (*TypeMetadata, error) {
	idx, ok := r.byQualifiedHash[h]
	if !ok {
		return nil, ErrUnknownQualifiedHash
	}
	return &r.types[idx], nil
}

// ByImpactHash looks up a type by its impact-name hash.
func (r *TypeRegistry) ByImpactHash(h uint32) (*TypeMetadata, error) {
	idx, ok := r.byImpactHash[h]
	if !ok {
		return nil, ErrUnknownImpactHash
	}
	return &r.types[idx], nil
}

// UnwrapTypedef follows InnerType through any chain of Typedef types,
// returning the first non-typedef type reached.
func (r *TypeRegistry) UnwrapTypedef(idx TypeIndex) (*TypeMetadata, error) {
	seen := make(map[TypeIndex]bool)
	for {
		t, err := r.ByIndex(idx)
		if err != nil {
			return nil, err
		}
		if t.PrimitiveType != PrimitiveTypedef {
			return t, nil
		}
		if seen[idx] {
			return nil, ErrTypedefCycle
		}
		seen[idx] = true
		if t.InnerType == nil {
			return t, nil
		}
		idx = *t.InnerType
	}
}

func (r *TypeRegistry) checkTypedefTerminates(idx TypeIndex) error {
	_, err := r.UnwrapTypedef(idx)
	return err
}

// IsSubtype reports whether child inherits from parent by walking child's
// InnerType (the struct-inheritance chain) up to the root.
func (r *TypeRegistry) IsSubtype(parent, child TypeIndex) (bool, error) {
	chain, err := r.InheritanceChain(child)
	if err != nil {
		return false, err
	}
	for _, idx := range chain {
		if idx == parent {
			return true, nil
		}
	}
	return false, nil
}

// InheritanceChain returns idx followed by each ancestor reached via
// InnerType, nearest ancestor first.
func (r *TypeRegistry) InheritanceChain(idx TypeIndex) ([]TypeIndex, error) {
	var chain []TypeIndex
	seen := make(map[TypeIndex]bool)
	for {
		t, err := r.ByIndex(idx)
		if err != nil {
			return nil, err
		}
		chain = append(chain, idx)
		if seen[idx] {
			return nil, ErrInheritanceCycle
		}
		seen[idx] = true
		if t.PrimitiveType != PrimitiveStruct || t.InnerType == nil {
			return chain, nil
		}
		idx = *t.InnerType
	}
}

func (r *TypeRegistry) checkInheritanceTerminates(idx TypeIndex) error {
	_, err := r.InheritanceChain(idx)
	return err
}

// IterFields walks idx's inheritance chain deepest-ancestor-first, then
// idx's own fields, matching declaration order within each type.
func (r *TypeRegistry) IterFields(idx TypeIndex) ([]StructField, error) {
	chain, err := r.InheritanceChain(idx)
	if err != nil {
		return nil, err
	}

	var fields []StructField
	for i := len(chain) - 1; i >= 0; i-- {
		t, err := r.ByIndex(chain[i])
		if err != nil {
			return nil, err
		}
		fields = append(fields, t.StructFields...)
	}
	return fields, nil
}
