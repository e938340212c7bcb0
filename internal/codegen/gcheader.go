package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/arclang/midc/internal/midir"
)

// TypeDescStructName is the name of the named opaque struct every GC type
// descriptor global is typed as. Its body is filled in by the GCMetadata
// collaborator, not here.
const TypeDescStructName = "core.gc.typedesc"

// GCHeaderTable maps a GC-header index (into Module.GCHeaders) to the
// global variable declared for it.
type GCHeaderTable struct {
	byIndex []*ir.Global
}

// At returns the global for GC-header index idx.
func (t *GCHeaderTable) At(idx int) *ir.Global {
	return t.byIndex[idx]
}

// EmitGCHeaders creates the shared core.gc.typedesc named opaque struct and
// one private constant global per GC header, named
// core.gc.typedesc.<display-name>.<mobility>.<mutability>.
func EmitGCHeaders(mod *ir.Module, m *midir.Module) (*GCHeaderTable, *types.StructType, error) {
	descType := &types.StructType{TypeName: TypeDescStructName, Opaque: true}
	mod.NewTypeDef(TypeDescStructName, descType)

	table := &GCHeaderTable{byIndex: make([]*ir.Global, len(m.GCHeaders))}

	for idx, hdr := range m.GCHeaders {
		name, err := gcHeaderName(m, hdr)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "gc header %d", idx)
		}
		g := mod.NewGlobal(name, descType)
		g.Immutable = true
		g.Linkage = enum.LinkagePrivate
		g.Init = constant.NewZeroInitializer(descType)
		table.byIndex[idx] = g
	}

	return table, descType, nil
}

func gcHeaderName(m *midir.Module, hdr midir.GCHeader) (string, error) {
	display := m.DisplayName(hdr.TypeIndex)
	if display == "" {
		return "", &MalformedTypeError{TypeIndex: hdr.TypeIndex, Reason: "gc header points at dangling named type"}
	}

	mob, err := mobilityTag(hdr.Mobility)
	if err != nil {
		return "", err
	}
	mut := mutabilityTag(hdr.Mutability)

	return fmt.Sprintf("core.gc.typedesc.%s.%s.%s", display, mob, mut), nil
}

func mobilityTag(m midir.Mobility) (string, error) {
	switch m {
	case midir.Mobile:
		return "mobile", nil
	case midir.Immobile:
		return "immobile", nil
	default:
		return "", &MalformedTypeError{Reason: "unknown mobility"}
	}
}

func mutabilityTag(m midir.Mutability) string {
	switch m.Kind {
	case midir.MutImmutable:
		return "const"
	case midir.MutWriteOnce:
		return "writeonce"
	case midir.MutMutable:
		return "mutable"
	case midir.MutCustom:
		return m.Custom
	default:
		return "mutable"
	}
}
