// Package memaccess emits loads and stores annotated with metadata derived
// from a MidIR mutability tag. codegen itself only depends on the MemAccess
// interface, not on this package.
package memaccess

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/arclang/midc/internal/midir"
)

// metadataKind names the metadata attachment key used on loads/stores.
const metadataKind = "core.mut"

// Accessor is the concrete MemAccess implementation wired into cmd/midc.
type Accessor struct{}

// New returns a ready-to-use memory accessor.
func New() *Accessor { return &Accessor{} }

// GenLoad implements codegen.MemAccess: emits a load of ty from addr,
// attaching metadata naming the mutability the front-end declared for this
// access so downstream passes (alias analysis, the GC barrier inserter) can
// tell an Immutable load from a Mutable one without re-deriving it.
func (a *Accessor) GenLoad(block *ir.Block, addr value.Value, mut midir.Mutability, ty types.Type) (value.Value, error) {
	inst := block.NewLoad(ty, addr)
	inst.Metadata = append(inst.Metadata, mutabilityAttachment(mut))
	return inst, nil
}

// GenStore implements codegen.MemAccess: emits a store of val to addr,
// annotated the same way as GenLoad.
func (a *Accessor) GenStore(block *ir.Block, val value.Value, addr value.Value, mut midir.Mutability, ty types.Type) error {
	inst := block.NewStore(val, addr)
	inst.Metadata = append(inst.Metadata, mutabilityAttachment(mut))
	return nil
}

// mutabilityAttachment builds the !core.mut metadata node for mut: a single
// metadata string naming the mutability kind (and, for Custom, the tag).
func mutabilityAttachment(mut midir.Mutability) *metadata.Attachment {
	tag := string(mut.Kind)
	if mut.Kind == midir.MutCustom {
		tag = mut.Custom
	}
	return &metadata.Attachment{
		Name: metadataKind,
		Node: &metadata.Tuple{
			Fields: []metadata.Field{&metadata.String{Value: tag}},
		},
	}
}
