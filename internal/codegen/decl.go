package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/arclang/midc/internal/midir"
)

// DeclTable maps a global index (into Module.Globals) to the LLVM value
// declared for it: an *ir.Func for functions, an *ir.Global for variables.
type DeclTable struct {
	funcs   map[int]*ir.Func
	globals map[int]*ir.Global
}

// Func returns the function declared for global index idx, or nil if idx
// names a variable.
func (t *DeclTable) Func(idx int) *ir.Func { return t.funcs[idx] }

// Global returns the variable declared for global index idx, or nil if idx
// names a function.
func (t *DeclTable) Global(idx int) *ir.Global { return t.globals[idx] }

// EmitDecls translates every Module.Globals entry into an LLVM declaration:
// a non-variadic function type for functions, an external global for
// variables.
func EmitDecls(mod *ir.Module, m *midir.Module, tt *TypeTable) (*DeclTable, error) {
	table := &DeclTable{
		funcs:   make(map[int]*ir.Func),
		globals: make(map[int]*ir.Global),
	}

	for idx, g := range m.Globals {
		switch g.Kind {
		case midir.GlobalFunction:
			fn, err := declareFunction(mod, m, tt, g)
			if err != nil {
				return nil, errors.Wrapf(err, "global %d (%s)", idx, g.Name)
			}
			table.funcs[idx] = fn
		case midir.GlobalVariable:
			gv, err := declareVariable(mod, m, tt, g)
			if err != nil {
				return nil, errors.Wrapf(err, "global %d (%s)", idx, g.Name)
			}
			table.globals[idx] = gv
		default:
			return nil, &MalformedIRError{Reason: "unknown global kind for " + g.Name}
		}
	}

	return table, nil
}

func declareFunction(mod *ir.Module, m *midir.Module, tt *TypeTable, g midir.Global) (*ir.Func, error) {
	retType, err := resolveInlineType(m, tt, g.Return)
	if err != nil {
		return nil, err
	}

	paramTypes := make([]types.Type, len(g.Params))
	for i, varID := range g.Params {
		vt, ok := paramVarType(g, varID)
		if !ok {
			return nil, &MalformedIRError{VarID: varID, Reason: "parameter id has no declared type"}
		}
		pt, err := resolveInlineType(m, tt, vt)
		if err != nil {
			return nil, err
		}
		paramTypes[i] = pt
	}

	params := make([]*ir.Param, len(paramTypes))
	for i, pt := range paramTypes {
		params[i] = ir.NewParam("", pt)
	}

	fn := mod.NewFunc(g.Name, retType, params...)
	return fn, nil
}

func declareVariable(mod *ir.Module, m *midir.Module, tt *TypeTable, g midir.Global) (*ir.Global, error) {
	vt, err := resolveInlineType(m, tt, g.VarType)
	if err != nil {
		return nil, err
	}
	return mod.NewGlobal(g.Name, vt), nil
}

func paramVarType(g midir.Global, varID int) (midir.Type, bool) {
	if g.Body == nil {
		return midir.Type{}, false
	}
	t, ok := g.Body.VarTypes[varID]
	return t, ok
}

// resolveInlineType translates a MidIR type appearing directly on a Global
// (a return type, a parameter type, or a variable's declared type). Named
// references are answered from the already-materialised type table rather
// than re-run through TypeMaterialiser, so no duplicate LLVM type
// definitions are ever created.
func resolveInlineType(m *midir.Module, tt *TypeTable, t midir.Type) (types.Type, error) {
	switch t.Kind {
	case midir.KindNamed:
		return tt.At(t.NamedIndex), nil
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
		elem, err := resolveInlineType(m, tt, *t.Elem)
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
			elem, err := resolveInlineType(m, tt, *t.PtrElem)
			if err != nil {
				return nil, err
			}
			return types.NewPointer(elem), nil
		case midir.PtrGCObj:
			if t.GCHeader < 0 || t.GCHeader >= len(m.GCHeaders) {
				return nil, &MalformedTypeError{Reason: "dangling gc-header index"}
			}
			return types.NewPointer(tt.At(m.GCHeaders[t.GCHeader].TypeIndex)), nil
		default:
			return nil, &MalformedTypeError{Reason: "unknown pointer kind"}
		}
	case midir.KindStruct:
		fields := make([]types.Type, len(t.Fields))
		for i, f := range t.Fields {
			ft, err := resolveInlineType(m, tt, f.Type)
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
