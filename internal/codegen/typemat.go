package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/arclang/midc/internal/midir"
)

// TypeTable is the read-only result of materialising a Module's named type
// table: one LLVM type per MidIR named-type index.
type TypeTable struct {
	byIndex []types.Type
}

// At returns the materialised type for the named-type index idx.
func (t *TypeTable) At(idx int) types.Type {
	return t.byIndex[idx]
}

// materializerState tracks the two-phase seed/fill pass.
type materializerState struct {
	m       *midir.Module
	mod     *ir.Module
	seeded  []types.Type // phase 1 result; opaque structs or nil sentinel
	filling []bool       // true once phase 2 has begun resolving the entry
}

// MaterializeTypes runs TypeMaterialiser over m.Types, creating named opaque
// LLVM structs to break cycles and filling their bodies in a second pass.
func MaterializeTypes(mod *ir.Module, m *midir.Module) (*TypeTable, error) {
	st := &materializerState{
		m:       m,
		mod:     mod,
		seeded:  make([]types.Type, len(m.Types)),
		filling: make([]bool, len(m.Types)),
	}

	// Phase 1 — seeding: every struct-bodied or opaque entry gets a named
	// opaque LLVM struct up front, so mutual references resolve.
	for idx, nt := range m.Types {
		if nt.Body == nil || nt.Body.Kind == midir.KindStruct {
			named := &types.StructType{TypeName: nt.DisplayName, Opaque: true}
			mod.NewTypeDef(nt.DisplayName, named)
			st.seeded[idx] = named
		}
	}

	// Phase 2 — filling: struct bodies get their field types installed;
	// everything else is translated recursively on first demand.
	for idx := range m.Types {
		if _, err := st.resolve(idx); err != nil {
			return nil, errors.Wrapf(err, "materializing type %d", idx)
		}
	}

	return &TypeTable{byIndex: st.seeded}, nil
}

// resolve returns the final LLVM type for named-type index idx, filling its
// body if this is the first time it has been demanded.
func (st *materializerState) resolve(idx int) (types.Type, error) {
	if idx < 0 || idx >= len(st.m.Types) {
		return nil, &MalformedTypeError{TypeIndex: idx, Reason: "dangling named-type index"}
	}
	if st.filling[idx] {
		return st.seeded[idx], nil
	}

	nt := st.m.Types[idx]
	if nt.Body == nil {
		// Forward-declared opaque: stays opaque for the lifetime of this
		// module, LLVM permits pointers through it.
		st.filling[idx] = true
		return st.seeded[idx], nil
	}

	if nt.Body.Kind == midir.KindStruct {
		named, ok := st.seeded[idx].(*types.StructType)
		if !ok {
			return nil, &MalformedTypeError{TypeIndex: idx, Reason: "struct entry missing its seeded opaque"}
		}
		if !named.Opaque {
			return named, nil
		}
		st.filling[idx] = true // break recursion through self-referential fields
		fields := make([]types.Type, len(nt.Body.Fields))
		for i, f := range nt.Body.Fields {
			ft, err := st.translate(&f.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "field %q of type %d", f.Name, idx)
			}
			fields[i] = ft
		}
		named.Fields = fields
		named.Packed = nt.Body.Packed
		named.Opaque = false
		st.seeded[idx] = named
		return named, nil
	}

	st.filling[idx] = true
	resolved, err := st.translate(nt.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "type %d", idx)
	}
	st.seeded[idx] = resolved
	return resolved, nil
}

// translate recursively converts a MidIR Type to an LLVM type. Canonical
// integer widths reuse the shared predeclared types; a GC pointer is a plain
// address-space-0 pointer to the header's target type, with mobility and
// mutability carried by the descriptor global instead of the pointer type.
func (st *materializerState) translate(t *midir.Type) (types.Type, error) {
	switch t.Kind {
	case midir.KindInt:
		switch t.Width {
		case 1:
			return types.I1, nil
		case 8:
			return types.I8, nil
		case 16:
			return types.I16, nil
		case 32:
			return types.I32, nil
		case 64:
			return types.I64, nil
		default:
			return types.NewInt(uint64(t.Width)), nil
		}
	case midir.KindFloat:
		switch t.FloatWidth {
		case 32:
			return types.Float, nil
		case 64:
			return types.Double, nil
		case 128:
			return types.FP128, nil
		default:
			return nil, &MalformedTypeError{Reason: "float width must be 32, 64 or 128"}
		}
	case midir.KindArray:
		elem, err := st.translate(t.Elem)
		if err != nil {
			return nil, err
		}
		if t.Size == nil {
			return types.NewArray(0, elem), nil
		}
		return types.NewArray(*t.Size, elem), nil
	case midir.KindPtr:
		switch t.PtrKind {
		case midir.PtrBasicObj:
			elem, err := st.translate(t.PtrElem)
			if err != nil {
				return nil, err
			}
			return types.NewPointer(elem), nil
		case midir.PtrGCObj:
			if t.GCHeader < 0 || t.GCHeader >= len(st.m.GCHeaders) {
				return nil, &MalformedTypeError{Reason: "dangling gc-header index"}
			}
			pointee, err := st.resolve(st.m.GCHeaders[t.GCHeader].TypeIndex)
			if err != nil {
				return nil, err
			}
			return types.NewPointer(pointee), nil
		default:
			return nil, &MalformedTypeError{Reason: "unknown pointer kind"}
		}
	case midir.KindNamed:
		return st.resolve(t.NamedIndex)
	case midir.KindStruct:
		fields := make([]types.Type, len(t.Fields))
		for i, f := range t.Fields {
			ft, err := st.translate(&f.Type)
			if err != nil {
				return nil, err
			}
			fields[i] = ft
		}
		return types.NewStruct(fields...), nil
	default:
		return nil, &MalformedTypeError{Reason: "unknown type kind"}
	}
}
