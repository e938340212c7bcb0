// Package midir defines the JSON-serializable intermediate representation
// consumed by the codegen package: named types, global declarations, GC
// headers and per-function control-flow graphs. The front-end that produces
// a midir.Module is external to this repository; midir only fixes the wire
// shape.
package midir

// TypeKind discriminates the sum type Type.
type TypeKind string

// Type kinds.
const (
	KindStruct TypeKind = "struct"
	KindArray  TypeKind = "array"
	KindPtr    TypeKind = "ptr"
	KindNamed  TypeKind = "named"
	KindInt    TypeKind = "int"
	KindFloat  TypeKind = "float"
)

// PtrKind discriminates what a Ptr type points at.
type PtrKind string

// Pointer kinds.
const (
	PtrBasicObj PtrKind = "basic"
	PtrGCObj    PtrKind = "gc"
)

// Type is the MidIR type sum: Struct, Array, Ptr, Named, Int or Float.
// Only the fields relevant to Kind are populated.
type Type struct {
	Kind TypeKind `json:"kind"`

	// Struct
	Packed bool    `json:"packed,omitempty"`
	Fields []Field `json:"fields,omitempty"`

	// Array: Size == nil means an unbounded ([0 x T]) array.
	Size *uint64 `json:"size,omitempty"`
	Elem *Type   `json:"elem,omitempty"`

	// Ptr
	PtrKind  PtrKind `json:"ptr_kind,omitempty"`
	PtrElem  *Type   `json:"ptr_elem,omitempty"` // BasicObj
	GCHeader int     `json:"gc_header,omitempty"` // GCObj: index into Module.GCHeaders

	// Named
	NamedIndex int `json:"named_index,omitempty"`

	// Int
	Signed bool   `json:"signed,omitempty"`
	Width  uint32 `json:"width,omitempty"`

	// Float
	FloatWidth uint32 `json:"float_width,omitempty"`
}

// Field is one (name, mutability, type) entry of a Struct.
type Field struct {
	Name       string     `json:"name"`
	Mutability Mutability `json:"mutability"`
	Type       Type       `json:"type"`
}

// MutKind discriminates the Mutability sum type.
type MutKind string

// Mutability kinds.
const (
	MutImmutable MutKind = "immutable"
	MutWriteOnce MutKind = "write_once"
	MutMutable   MutKind = "mutable"
	MutCustom    MutKind = "custom"
)

// Mutability is Immutable | WriteOnce | Mutable | Custom(string).
type Mutability struct {
	Kind   MutKind `json:"kind"`
	Custom string  `json:"custom,omitempty"`
}

// Immutable, WriteOnce and Mut are the non-custom Mutability constructors.
func Immutable() Mutability { return Mutability{Kind: MutImmutable} }
func WriteOnce() Mutability { return Mutability{Kind: MutWriteOnce} }
func Mut() Mutability       { return Mutability{Kind: MutMutable} }

// CustomMut builds a Mutability carrying a custom tag.
func CustomMut(tag string) Mutability { return Mutability{Kind: MutCustom, Custom: tag} }

// Mobility of a GC-tracked object: whether the collector may relocate it.
type Mobility string

// Mobility values.
const (
	Mobile   Mobility = "mobile"
	Immobile Mobility = "immobile"
)

// NamedType is one entry of Module.Types: a display name and an optional
// body. A nil Body means the type is forward-declared opaque.
type NamedType struct {
	DisplayName string `json:"display_name"`
	Body        *Type  `json:"body,omitempty"`
}
