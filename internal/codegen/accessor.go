package codegen

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"

	"github.com/arclang/midc/internal/midir"
)

// AccessorTable records, for every scalar-leaf path reachable through a
// named type, the read declaration and, when the path is not effectively
// const, the write declaration.
type AccessorTable struct {
	reads  map[string]*ir.Func
	writes map[string]*ir.Func
}

// Read returns the .read declaration for path, or nil.
func (a *AccessorTable) Read(path string) *ir.Func { return a.reads[path] }

// Write returns the .write declaration for path, or nil if the path is
// effectively const.
func (a *AccessorTable) Write(path string) *ir.Func { return a.writes[path] }

// EmitAccessors walks every named type with a body and emits, for each
// scalar-leaf field/element path, a read declaration and, unless the path
// is effectively const, a write declaration.
func EmitAccessors(mod *ir.Module, m *midir.Module, tt *TypeTable) (*AccessorTable, error) {
	table := &AccessorTable{reads: make(map[string]*ir.Func), writes: make(map[string]*ir.Func)}

	for idx, nt := range m.Types {
		if nt.Body == nil {
			continue
		}
		objPtr := types.NewPointer(tt.At(idx))
		w := &accessorWalk{mod: mod, m: m, tt: tt, table: table, objType: objPtr}
		if err := w.walk("core.types", nt.Body, midir.Mut(), nil); err != nil {
			return nil, err
		}
	}

	return table, nil
}

type accessorWalk struct {
	mod     *ir.Module
	m       *midir.Module
	tt      *TypeTable
	table   *AccessorTable
	objType types.Type
}

// walk descends t, emitting one accessor pair per scalar leaf. indices
// accumulates the i32 array-index parameters encountered along the descent,
// in descent order; they are reversed immediately before building the final
// parameter list, which is the order generated call sites elsewhere in the
// toolchain expect.
func (w *accessorWalk) walk(path string, t *midir.Type, mut midir.Mutability, indices []bool) error {
	switch t.Kind {
	case midir.KindStruct:
		for _, f := range t.Fields {
			combined := midir.CombineMutability(mut, f.Mutability)
			if err := w.walk(path+"."+f.Name, &f.Type, combined, indices); err != nil {
				return err
			}
		}
		return nil
	case midir.KindArray:
		return w.walk(path, t.Elem, mut, append(indices, true))
	case midir.KindNamed:
		nt, ok := w.m.ResolveNamed(t.NamedIndex)
		if !ok || nt.Body == nil {
			return &MalformedTypeError{TypeIndex: t.NamedIndex, Reason: "accessor path through dangling or opaque named type"}
		}
		return w.walk(path, nt.Body, mut, indices)
	default:
		return w.emitLeaf(path, t, mut, indices)
	}
}

// emitLeaf emits the .read declaration, and the .write declaration unless
// mut is effectively const.
func (w *accessorWalk) emitLeaf(path string, leaf *midir.Type, mut midir.Mutability, indices []bool) error {
	leafType, err := resolveInlineType(w.m, w.tt, *leaf)
	if err != nil {
		return err
	}

	params := make([]*ir.Param, 0, len(indices)+2)
	params = append(params, ir.NewParam("self", w.objType))
	// Index parameters emit in reverse of descent order.
	for i := len(indices) - 1; i >= 0; i-- {
		params = append(params, ir.NewParam("idx"+strconv.Itoa(i), types.I32))
	}

	readFn := w.mod.NewFunc(path+".read", leafType, cloneParams(params)...)
	readFn.FuncAttrs = append(readFn.FuncAttrs, enum.FuncAttrNoUnwind, enum.FuncAttrReadOnly, enum.FuncAttrAlwaysInline)
	w.table.reads[path] = readFn

	if mut.Kind == midir.MutImmutable {
		return nil
	}

	writeParams := append(cloneParams(params), ir.NewParam("value", leafType))
	writeFn := w.mod.NewFunc(path+".write", types.Void, writeParams...)
	writeFn.FuncAttrs = append(writeFn.FuncAttrs, enum.FuncAttrNoUnwind, enum.FuncAttrAlwaysInline)
	w.table.writes[path] = writeFn

	return nil
}

func cloneParams(params []*ir.Param) []*ir.Param {
	out := make([]*ir.Param, len(params))
	for i, p := range params {
		out[i] = ir.NewParam(p.LocalName, p.Typ)
	}
	return out
}
