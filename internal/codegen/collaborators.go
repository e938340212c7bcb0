package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/arclang/midc/internal/midir"
)

// ConstValue lowers a literal MidIR constant to an LLVM value. Package
// constval supplies the implementation wired into cmd/midc.
type ConstValue interface {
	GenConst(mod *ir.Module, tt *TypeTable, c *midir.Const) (value.Value, error)
}

// MemAccess emits loads and stores annotated with mutability-derived
// metadata. Package memaccess supplies the implementation wired into
// cmd/midc.
type MemAccess interface {
	GenLoad(block *ir.Block, addr value.Value, mut midir.Mutability, ty types.Type) (value.Value, error)
	GenStore(block *ir.Block, val value.Value, addr value.Value, mut midir.Mutability, ty types.Type) error
}

// GCMetadata populates the body of the shared core.gc.typedesc struct and
// any module-level metadata GC runtimes expect. Package gcmeta supplies the
// implementation wired into cmd/midc.
type GCMetadata interface {
	GenMetadata(mod *ir.Module, descType *types.StructType) error
}
