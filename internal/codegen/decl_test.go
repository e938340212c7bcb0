package codegen

import (
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/arclang/midc/internal/midir"
)

func intT(w uint32) midir.Type { return midir.Type{Kind: midir.KindInt, Signed: true, Width: w} }

func TestEmitDeclsFunction(t *testing.T) {
	m := &midir.Module{
		Globals: []midir.Global{
			{
				Kind:   midir.GlobalFunction,
				Name:   "add",
				Params: []int{0, 1},
				Return: intT(32),
				Body: &midir.FunctionBody{
					VarTypes: map[int]midir.Type{0: intT(32), 1: intT(32)},
				},
			},
		},
	}

	mod := ir.NewModule()
	tt, err := MaterializeTypes(mod, m)
	if err != nil {
		t.Fatalf("MaterializeTypes: %v", err)
	}
	decls, err := EmitDecls(mod, m, tt)
	if err != nil {
		t.Fatalf("EmitDecls: %v", err)
	}

	fn := decls.Func(0)
	if fn == nil {
		t.Fatal("expected declared function at index 0")
	}
	if fn.GlobalName != "add" {
		t.Errorf("expected name add, got %s", fn.GlobalName)
	}
	if len(fn.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(fn.Params))
	}
	if fn.Sig.RetType != types.I32 {
		t.Errorf("expected i32 return type, got %v", fn.Sig.RetType)
	}
}

func TestEmitDeclsVariable(t *testing.T) {
	m := &midir.Module{
		Globals: []midir.Global{
			{Kind: midir.GlobalVariable, Name: "counter", VarType: intT(64)},
		},
	}
	mod := ir.NewModule()
	tt, err := MaterializeTypes(mod, m)
	if err != nil {
		t.Fatalf("MaterializeTypes: %v", err)
	}
	decls, err := EmitDecls(mod, m, tt)
	if err != nil {
		t.Fatalf("EmitDecls: %v", err)
	}
	gv := decls.Global(0)
	if gv == nil {
		t.Fatal("expected declared global at index 0")
	}
	if gv.GlobalName != "counter" {
		t.Errorf("expected name counter, got %s", gv.GlobalName)
	}
	if decls.Func(0) != nil {
		t.Error("expected Func(0) to be nil for a variable global")
	}
}
