package gcmeta

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
)

func TestGenMetadataFillsOpaqueStruct(t *testing.T) {
	p := New()
	mod := ir.NewModule()
	descType := &types.StructType{TypeName: "core.gc.typedesc", Opaque: true}

	if err := p.GenMetadata(mod, descType); err != nil {
		t.Fatalf("GenMetadata: %v", err)
	}
	if descType.Opaque {
		t.Error("expected descType to no longer be opaque")
	}
	if len(descType.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(descType.Fields))
	}
	if descType.Fields[0] != types.I32 || descType.Fields[1] != types.I32 {
		t.Errorf("expected first two fields i32, got %v, %v", descType.Fields[0], descType.Fields[1])
	}
	if _, ok := descType.Fields[2].(*types.PointerType); !ok {
		t.Errorf("expected third field to be a pointer, got %T", descType.Fields[2])
	}

	found := false
	for _, nd := range mod.NamedMetadataDefs {
		if nd.Name == versionFlagName {
			found = true
			if len(nd.Nodes) != 1 {
				t.Fatalf("expected one metadata node, got %d", len(nd.Nodes))
			}
			tuple, ok := nd.Nodes[0].(*metadata.Tuple)
			if !ok || len(tuple.Fields) != 1 {
				t.Fatalf("expected a single-field tuple node")
			}
			str, ok := tuple.Fields[0].(*metadata.String)
			if !ok || str.Value != typedescVersion {
				t.Errorf("expected version string %q, got %v", typedescVersion, tuple.Fields[0])
			}
		}
	}
	if !found {
		t.Errorf("expected named metadata %q to be recorded", versionFlagName)
	}
}

func TestGenMetadataAlreadyFilledIsNoOp(t *testing.T) {
	p := New()
	mod := ir.NewModule()
	descType := &types.StructType{TypeName: "core.gc.typedesc", Opaque: false, Fields: []types.Type{types.I32}}

	if err := p.GenMetadata(mod, descType); err != nil {
		t.Fatalf("GenMetadata: %v", err)
	}
	if len(descType.Fields) != 1 {
		t.Error("expected already-filled struct to be left untouched")
	}
}

func TestGenMetadataOpaqueButHasFieldsIsError(t *testing.T) {
	p := New()
	mod := ir.NewModule()
	descType := &types.StructType{TypeName: "core.gc.typedesc", Opaque: true, Fields: []types.Type{types.I32}}

	if err := p.GenMetadata(mod, descType); err == nil {
		t.Error("expected error for inconsistent opaque-but-has-fields struct")
	}
}
