package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"

	"github.com/arclang/midc/internal/midir"
)

func TestEmitGCHeadersNaming(t *testing.T) {
	m := &midir.Module{
		Types: []midir.NamedType{
			{DisplayName: "Node", Body: &midir.Type{Kind: midir.KindStruct}},
		},
		GCHeaders: []midir.GCHeader{
			{TypeIndex: 0, Mobility: midir.Mobile, Mutability: midir.Mut()},
			{TypeIndex: 0, Mobility: midir.Immobile, Mutability: midir.Immutable()},
			{TypeIndex: 0, Mobility: midir.Mobile, Mutability: midir.CustomMut("readonce")},
		},
	}

	mod := ir.NewModule()
	table, descType, err := EmitGCHeaders(mod, m)
	if err != nil {
		t.Fatalf("EmitGCHeaders: %v", err)
	}
	if descType.TypeName != TypeDescStructName {
		t.Errorf("expected desc type named %q, got %q", TypeDescStructName, descType.TypeName)
	}
	if !descType.Opaque {
		t.Error("expected desc type to remain opaque until gcmeta fills it")
	}

	wantNames := []string{
		"core.gc.typedesc.Node.mobile.mutable",
		"core.gc.typedesc.Node.immobile.const",
		"core.gc.typedesc.Node.mobile.readonce",
	}
	for i, want := range wantNames {
		g := table.At(i)
		if g.GlobalName != want {
			t.Errorf("header %d: expected name %q, got %q", i, want, g.GlobalName)
		}
		if !g.Immutable {
			t.Errorf("header %d: expected global to be immutable", i)
		}
	}
}

func TestEmitGCHeadersDanglingTypeIndex(t *testing.T) {
	m := &midir.Module{
		GCHeaders: []midir.GCHeader{{TypeIndex: 5, Mobility: midir.Mobile, Mutability: midir.Mut()}},
	}
	mod := ir.NewModule()
	if _, _, err := EmitGCHeaders(mod, m); err == nil {
		t.Error("expected error for gc header pointing at a dangling named type")
	}
}
