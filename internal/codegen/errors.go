package codegen

import "fmt"

// MalformedTypeError reports an unsupported integer/float width or a
// dangling type-table index encountered by TypeMaterialiser.
type MalformedTypeError struct {
	TypeIndex int
	Reason    string
}

func (e *MalformedTypeError) Error() string {
	return fmt.Sprintf("malformed type at index %d: %s", e.TypeIndex, e.Reason)
}

// MalformedIRError reports structurally invalid MidIR: an undefined
// variable, a terminator naming an unknown block, or an extract/structure
// mismatch.
type MalformedIRError struct {
	BlockID int
	VarID   int
	Reason  string
}

func (e *MalformedIRError) Error() string {
	return fmt.Sprintf("malformed IR at block %d, var %d: %s", e.BlockID, e.VarID, e.Reason)
}

// InvariantViolationError reports a broken internal invariant: a ValMap
// lookup miss after seeding, or a φ plan referencing an id with no
// definition reaching it.
type InvariantViolationError struct {
	VarID  int
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation for var %d: %s", e.VarID, e.Reason)
}
