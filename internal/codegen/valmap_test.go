package codegen

import (
	"testing"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

func TestValMapBindIsImmutable(t *testing.T) {
	vm := NewValMap(1)
	v1 := constant.NewInt(types.I32, 1)
	next := vm.Bind(0, Bind(v1))

	if _, ok := vm.Lookup(0); ok {
		t.Error("expected original ValMap to be unaffected by Bind")
	}
	loc, ok := next.Lookup(0)
	if !ok {
		t.Fatal("expected id 0 to be bound in the new snapshot")
	}
	if loc.Kind != LocBind || loc.Value != v1 {
		t.Error("expected bound location to carry v1")
	}
}

func TestValMapFreshMintsIncreasingIDs(t *testing.T) {
	vm := NewValMap(5)
	id1, vm1 := vm.Fresh()
	id2, vm2 := vm1.Fresh()

	if id1 != 5 || id2 != 6 {
		t.Errorf("expected ids 5 then 6, got %d then %d", id1, id2)
	}
	if vm.nextID != 5 {
		t.Error("expected original ValMap's counter to be untouched")
	}
	_ = vm2
}

func TestValMapLookupMiss(t *testing.T) {
	vm := NewValMap(0)
	if _, ok := vm.Lookup(42); ok {
		t.Error("expected lookup miss for an unbound id")
	}
}
