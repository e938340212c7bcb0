package midir

// ResolveNamed follows a Named type through the type table to its
// definition, returning ok=false if the index is out of range.
func (m *Module) ResolveNamed(idx int) (*NamedType, bool) {
	if idx < 0 || idx >= len(m.Types) {
		return nil, false
	}
	return &m.Types[idx], true
}

// DisplayName returns the display name of the type at idx, or "" if idx is
// out of range.
func (m *Module) DisplayName(idx int) string {
	if nt, ok := m.ResolveNamed(idx); ok {
		return nt.DisplayName
	}
	return ""
}

// CombineMutability applies the effective-constancy rule along a field
// path: mutable combined with Immutable is const, const combined with
// anything stays const, anything else stays mutable.
func CombineMutability(parent, field Mutability) Mutability {
	if parent.Kind != MutMutable {
		return parent
	}
	if field.Kind == MutImmutable {
		return Immutable()
	}
	return Mut()
}
