package codegen

import (
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/arclang/midc/internal/midir"
)

// LocationKind discriminates the Location sum type.
type LocationKind int

// Location kinds.
const (
	LocBind LocationKind = iota
	LocMem
	LocStruct
)

// Location is the per-variable representation at one program point: a
// direct SSA binding, a memory slot, or a decomposed aggregate whose
// fields are themselves variable ids.
type Location struct {
	Kind LocationKind

	// Bind
	Value value.Value

	// Mem
	MemType types.Type
	MemMut  midir.Mutability
	Addr    value.Value

	// Struct: field index -> variable id, in declared field order.
	Fields []int
}

// Bind builds a Bind location.
func Bind(v value.Value) Location { return Location{Kind: LocBind, Value: v} }

// Mem builds a Mem location.
func Mem(ty types.Type, mut midir.Mutability, addr value.Value) Location {
	return Location{Kind: LocMem, MemType: ty, MemMut: mut, Addr: addr}
}

// StructLoc builds a Struct location from an ordered list of field variable
// ids.
func StructLoc(fields []int) Location {
	return Location{Kind: LocStruct, Fields: fields}
}

// ValMap is an immutable snapshot of variable-id -> Location, plus the
// monotonic counter used to mint synthetic ids during aggregate expansion.
// Every Bind returns a new snapshot (a shallow map clone) rather than
// mutating the receiver, so DFS branches can each hold their own outgoing
// snapshot independently.
type ValMap struct {
	locs   map[int]Location
	nextID int
}

// NewValMap creates an empty ValMap whose synthetic-id counter starts at
// firstSyntheticID (conventionally max(declared ids)+1).
func NewValMap(firstSyntheticID int) *ValMap {
	return &ValMap{locs: make(map[int]Location), nextID: firstSyntheticID}
}

// Lookup returns the Location bound to id, or false if id has never been
// bound (a corrupt-IR condition for any id that should have been seeded).
func (vm *ValMap) Lookup(id int) (Location, bool) {
	loc, ok := vm.locs[id]
	return loc, ok
}

// Bind returns a new ValMap snapshot with id bound to loc; the receiver is
// left untouched.
func (vm *ValMap) Bind(id int, loc Location) *ValMap {
	next := make(map[int]Location, len(vm.locs)+1)
	for k, v := range vm.locs {
		next[k] = v
	}
	next[id] = loc
	return &ValMap{locs: next, nextID: vm.nextID}
}

// Fresh mints a new synthetic variable id without binding it to anything;
// the caller immediately follows with Bind. The returned ValMap has an
// advanced counter but is otherwise identical to the receiver.
func (vm *ValMap) Fresh() (int, *ValMap) {
	id := vm.nextID
	return id, &ValMap{locs: vm.locs, nextID: id + 1}
}
