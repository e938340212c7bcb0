// Package gcmeta fills in the body of the shared core.gc.typedesc struct
// that every GC header global is typed as, and records the module-level
// metadata a GC runtime needs to find it. codegen itself only depends on
// the GCMetadata interface, not on this package.
package gcmeta

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"
)

// versionFlagName is the module-level named metadata a GC runtime probes to
// confirm the typedesc layout below is the one it understands.
const versionFlagName = "core.gc.version"

// typedescVersion is bumped whenever the core.gc.typedesc field layout
// changes incompatibly.
const typedescVersion = "1"

// Populator is the concrete GCMetadata implementation wired into cmd/midc.
type Populator struct{}

// New returns a ready-to-use metadata populator.
func New() *Populator { return &Populator{} }

// GenMetadata implements codegen.GCMetadata: fills descType's body with
// { i32 mobility, i32 mutabilityTag, i8* customTag } and records the
// typedesc layout version as module-level named metadata.
func (p *Populator) GenMetadata(mod *ir.Module, descType *types.StructType) error {
	if !descType.Opaque {
		return nil // already populated
	}
	if descType.Fields != nil {
		return errors.New("gcmeta: typedesc struct has fields but is still marked opaque")
	}

	descType.Fields = []types.Type{
		types.I32,                  // mobility: 0 = mobile, 1 = immobile
		types.I32,                  // mutability tag: 0..3 for the fixed kinds
		types.NewPointer(types.I8), // customTag: nul-terminated name for Custom(string) mutability, null otherwise
	}
	descType.Packed = false
	descType.Opaque = false

	version := &metadata.Tuple{
		Fields: []metadata.Field{&metadata.String{Value: typedescVersion}},
	}
	mod.MetadataDefs = append(mod.MetadataDefs, version)
	if mod.NamedMetadataDefs == nil {
		mod.NamedMetadataDefs = make(map[string]*metadata.NamedDef)
	}
	mod.NamedMetadataDefs[versionFlagName] = &metadata.NamedDef{
		Name:  versionFlagName,
		Nodes: []metadata.Node{version},
	}

	return nil
}
