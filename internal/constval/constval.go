// Package constval lowers literal MidIR constants to LLVM constant values.
// It exists so that codegen.ToLLVM is callable end-to-end without a separate
// front-end attached; codegen itself only depends on the ConstValue
// interface, not on this package.
package constval

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/arclang/midc/internal/codegen"
	"github.com/arclang/midc/internal/midir"
)

// Lowerer is the concrete ConstValue implementation wired into cmd/midc.
// It carries no state: every constant is self-describing (it names its own
// MidIR type), so nothing needs to be threaded between calls.
type Lowerer struct{}

// New returns a ready-to-use constant lowerer.
func New() *Lowerer { return &Lowerer{} }

// GenConst implements codegen.ConstValue. mod is unused by this minimal
// implementation (no string-literal globals are interned here) but is part
// of the interface so richer implementations can create supporting globals.
func (l *Lowerer) GenConst(mod *ir.Module, tt *codegen.TypeTable, c *midir.Const) (value.Value, error) {
	switch c.Kind {
	case midir.ConstInt:
		llt, err := intLLVMType(c.Type)
		if err != nil {
			return nil, errors.Wrap(err, "int constant")
		}
		return constant.NewInt(llt, c.Int), nil

	case midir.ConstBool:
		v := int64(0)
		if c.Bool {
			v = 1
		}
		return constant.NewInt(types.I1, v), nil

	case midir.ConstFloat:
		llt, err := floatLLVMType(c.Type)
		if err != nil {
			return nil, errors.Wrap(err, "float constant")
		}
		f, err := constant.NewFloatFromString(llt, c.Float)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing float literal %q", c.Float)
		}
		return f, nil

	case midir.ConstNull:
		return constant.NewNull(nullLLVMType(tt, c.Type)), nil

	case midir.ConstUndef:
		llt, err := anyLLVMType(tt, c.Type)
		if err != nil {
			return nil, errors.Wrap(err, "undef constant")
		}
		return constant.NewUndef(llt), nil

	default:
		return nil, errors.Errorf("constval: unknown constant kind %q", c.Kind)
	}
}

func intLLVMType(t midir.Type) (*types.IntType, error) {
	if t.Kind != midir.KindInt {
		return nil, errors.Errorf("int constant carries non-int type %q", t.Kind)
	}
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
}

func floatLLVMType(t midir.Type) (*types.FloatType, error) {
	if t.Kind != midir.KindFloat {
		return nil, errors.Errorf("float constant carries non-float type %q", t.Kind)
	}
	switch t.FloatWidth {
	case 32:
		return types.Float, nil
	case 64:
		return types.Double, nil
	case 128:
		return types.FP128, nil
	default:
		return nil, errors.Errorf("float width must be 32, 64 or 128, got %d", t.FloatWidth)
	}
}

// nullLLVMType resolves the pointer type a Null constant should carry.
// Fronts that leave the type unset get a plain i8*.
func nullLLVMType(tt *codegen.TypeTable, t midir.Type) *types.PointerType {
	if t.Kind == midir.KindPtr && t.PtrKind == midir.PtrBasicObj && t.PtrElem != nil {
		if elem, err := anyLLVMType(tt, *t.PtrElem); err == nil {
			return types.NewPointer(elem)
		}
	}
	return types.I8Ptr
}

// anyLLVMType resolves the (possibly named) type of an Undef constant
// through the already-materialised type table where possible, falling back
// to a structural translation for inline scalar types.
func anyLLVMType(tt *codegen.TypeTable, t midir.Type) (types.Type, error) {
	if t.Kind == midir.KindNamed {
		return tt.At(t.NamedIndex), nil
	}
	switch t.Kind {
	case midir.KindInt:
		return intLLVMType(t)
	case midir.KindFloat:
		return floatLLVMType(t)
	default:
		return nil, errors.Errorf("constval: undef of composite type %q requires a named type", t.Kind)
	}
}
