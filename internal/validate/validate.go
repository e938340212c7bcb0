// Package validate performs structural validation of a decoded MidIR module
// before lowering begins, accumulating every violation found rather than
// aborting on the first one, so a caller sees the full picture in one pass.
package validate

import (
	"fmt"

	"github.com/arclang/midc/internal/midir"
)

// Errors is a non-empty collection of structural violations. It implements
// error so callers can treat validation failure as a single error value
// while still inspecting every individual violation.
type Errors []string

func (e Errors) Error() string {
	if len(e) == 1 {
		return e[0]
	}
	return fmt.Sprintf("%d validation errors, first: %s", len(e), e[0])
}

// Module runs every structural check against m and returns nil if m is
// well-formed, or an Errors value listing every violation found.
func Module(m *midir.Module) error {
	v := &validator{m: m}
	v.run()
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

type validator struct {
	m    *midir.Module
	errs Errors
}

func (v *validator) fail(format string, args ...interface{}) {
	v.errs = append(v.errs, fmt.Sprintf(format, args...))
}

func (v *validator) run() {
	if v.m.Name == "" {
		v.fail("module name cannot be empty")
	}
	v.validateTypes()
	v.validateGCHeaders()
	v.validateGlobals()
}

// validateTypes checks every named type's body is well-formed: struct field
// types and array/ptr/named references resolve, and int/float widths are
// supported.
func (v *validator) validateTypes() {
	for idx, nt := range v.m.Types {
		if nt.DisplayName == "" {
			v.fail("type %d: display name cannot be empty", idx)
		}
		if nt.Body == nil {
			continue
		}
		v.validateType(fmt.Sprintf("type %d (%s)", idx, nt.DisplayName), nt.Body)
	}
}

func (v *validator) validateType(where string, t *midir.Type) {
	switch t.Kind {
	case midir.KindStruct:
		seen := make(map[string]bool, len(t.Fields))
		for i, f := range t.Fields {
			if f.Name == "" {
				v.fail("%s: field %d has empty name", where, i)
			}
			if seen[f.Name] {
				v.fail("%s: duplicate field name %q", where, f.Name)
			}
			seen[f.Name] = true
			v.validateType(fmt.Sprintf("%s field %q", where, f.Name), &f.Type)
		}
	case midir.KindArray:
		if t.Elem == nil {
			v.fail("%s: array type missing element type", where)
			return
		}
		v.validateType(where+" element", t.Elem)
	case midir.KindPtr:
		switch t.PtrKind {
		case midir.PtrBasicObj:
			if t.PtrElem == nil {
				v.fail("%s: basic pointer missing pointee type", where)
				return
			}
			v.validateType(where+" pointee", t.PtrElem)
		case midir.PtrGCObj:
			if t.GCHeader < 0 || t.GCHeader >= len(v.m.GCHeaders) {
				v.fail("%s: gc pointer references out-of-range gc header %d", where, t.GCHeader)
			}
		default:
			v.fail("%s: unknown pointer kind %q", where, t.PtrKind)
		}
	case midir.KindNamed:
		if t.NamedIndex < 0 || t.NamedIndex >= len(v.m.Types) {
			v.fail("%s: named type references out-of-range index %d", where, t.NamedIndex)
		}
	case midir.KindInt:
		if t.Width == 0 {
			v.fail("%s: int type has zero width", where)
		}
	case midir.KindFloat:
		switch t.FloatWidth {
		case 32, 64, 128:
		default:
			v.fail("%s: float width must be 32, 64 or 128, got %d", where, t.FloatWidth)
		}
	default:
		v.fail("%s: unknown type kind %q", where, t.Kind)
	}
}

// validateGCHeaders checks every GC header names an in-range type and a
// recognised mobility/mutability.
func (v *validator) validateGCHeaders() {
	for idx, h := range v.m.GCHeaders {
		if h.TypeIndex < 0 || h.TypeIndex >= len(v.m.Types) {
			v.fail("gc header %d: references out-of-range type index %d", idx, h.TypeIndex)
			continue
		}
		switch h.Mobility {
		case midir.Mobile, midir.Immobile:
		default:
			v.fail("gc header %d: unknown mobility %q", idx, h.Mobility)
		}
		switch h.Mutability.Kind {
		case midir.MutImmutable, midir.MutWriteOnce, midir.MutMutable, midir.MutCustom:
		default:
			v.fail("gc header %d: unknown mutability %q", idx, h.Mutability.Kind)
		}
	}
}

// validateGlobals checks every function body: the entry node exists among
// its blocks, every terminator names an in-range successor, every statement
// references a variable with a declared type, and the return type and every
// parameter's declared type are well-formed. Store, load and non-parameter
// variable types are not checked here.
func (v *validator) validateGlobals() {
	names := make(map[string]bool, len(v.m.Globals))
	for idx, g := range v.m.Globals {
		if g.Name == "" {
			v.fail("global %d: name cannot be empty", idx)
		} else if names[g.Name] {
			v.fail("global %d: duplicate global name %q", idx, g.Name)
		}
		names[g.Name] = true

		switch g.Kind {
		case midir.GlobalFunction:
			v.validateType(fmt.Sprintf("global %d (%s) return type", idx, g.Name), &g.Return)
			v.validateFunctionBody(idx, g)
		case midir.GlobalVariable:
			v.validateType(fmt.Sprintf("global %d (%s) var type", idx, g.Name), &g.VarType)
		default:
			v.fail("global %d (%s): unknown global kind %q", idx, g.Name, g.Kind)
		}
	}
}

func (v *validator) validateFunctionBody(idx int, g midir.Global) {
	body := g.Body
	if body == nil {
		return // external declaration
	}
	where := fmt.Sprintf("global %d (%s)", idx, g.Name)

	if _, ok := body.BlockByID(body.Entry); !ok {
		v.fail("%s: entry node %d is not among its blocks", where, body.Entry)
	}

	blockIDs := make(map[int]bool, len(body.Blocks))
	for _, b := range body.Blocks {
		if blockIDs[b.ID] {
			v.fail("%s: duplicate block id %d", where, b.ID)
		}
		blockIDs[b.ID] = true
	}

	for _, pid := range g.Params {
		pt, ok := body.VarTypes[pid]
		if !ok {
			v.fail("%s: parameter id %d has no declared type", where, pid)
			continue
		}
		v.validateType(fmt.Sprintf("%s parameter %d type", where, pid), &pt)
	}

	for _, b := range body.Blocks {
		for i, s := range b.Stmts {
			v.validateStmt(fmt.Sprintf("%s block %d stmt %d", where, b.ID, i), body, &s)
		}
		v.validateTerm(fmt.Sprintf("%s block %d terminator", where, b.ID), body, blockIDs, &b.Term)
	}
}

func (v *validator) validateStmt(where string, body *midir.FunctionBody, s *midir.Stmt) {
	switch s.Kind {
	case midir.StmtMove:
		if _, ok := body.VarTypes[s.Target]; !ok {
			v.fail("%s: move target %d has no declared type", where, s.Target)
		}
		v.validateExpr(where+" value", body, &s.Value)
	case midir.StmtStore:
		v.validateExpr(where+" addr", body, &s.Addr)
		v.validateExpr(where+" value", body, &s.Value)
	case midir.StmtEval:
		v.validateExpr(where+" value", body, &s.Value)
	default:
		v.fail("%s: unknown statement kind %q", where, s.Kind)
	}
}

func (v *validator) validateExpr(where string, body *midir.FunctionBody, e *midir.Expr) {
	switch e.Kind {
	case midir.ExprVar:
		if _, ok := body.VarTypes[e.Var]; !ok {
			v.fail("%s: reference to undeclared variable %d", where, e.Var)
		}
	case midir.ExprConst:
		if e.Const == nil {
			v.fail("%s: const expression missing its literal", where)
		}
	case midir.ExprBinOp:
		if e.Lhs == nil || e.Rhs == nil {
			v.fail("%s: binop missing an operand", where)
			return
		}
		v.validateExpr(where+" lhs", body, e.Lhs)
		v.validateExpr(where+" rhs", body, e.Rhs)
	case midir.ExprCall:
		if e.Callee < 0 || e.Callee >= len(v.m.Globals) {
			v.fail("%s: call references out-of-range global %d", where, e.Callee)
		}
		for i := range e.Args {
			v.validateExpr(fmt.Sprintf("%s arg %d", where, i), body, &e.Args[i])
		}
	case midir.ExprLoad:
		if e.Addr == nil || e.LoadType == nil {
			v.fail("%s: load missing address or type", where)
			return
		}
		v.validateExpr(where+" addr", body, e.Addr)
	default:
		v.fail("%s: unknown expression kind %q", where, e.Kind)
	}
}

func (v *validator) validateTerm(where string, body *midir.FunctionBody, blockIDs map[int]bool, t *midir.Term) {
	switch t.Kind {
	case midir.TermJump:
		if !blockIDs[t.Target] {
			v.fail("%s: jump to unknown block %d", where, t.Target)
		}
	case midir.TermBranch:
		v.validateExpr(where+" cond", body, &t.Cond)
		if !blockIDs[t.IfTrue] {
			v.fail("%s: branch true-target %d is not a block in this function", where, t.IfTrue)
		}
		if !blockIDs[t.IfFalse] {
			v.fail("%s: branch false-target %d is not a block in this function", where, t.IfFalse)
		}
	case midir.TermReturn:
		if t.HasValue {
			v.validateExpr(where+" value", body, &t.Value)
		}
	case midir.TermUnreachable:
	default:
		v.fail("%s: unknown terminator kind %q", where, t.Kind)
	}
}
