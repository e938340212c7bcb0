package codegen_test

import (
	"strings"
	"testing"

	"github.com/arclang/midc/internal/codegen"
	"github.com/arclang/midc/internal/constval"
	"github.com/arclang/midc/internal/gcmeta"
	"github.com/arclang/midc/internal/memaccess"
	"github.com/arclang/midc/internal/midir"
)

func defaultOpts() codegen.Options {
	return codegen.Options{
		ConstVal: constval.New(),
		MemAcc:   memaccess.New(),
		GCMeta:   gcmeta.New(),
	}
}

func i32() midir.Type { return midir.Type{Kind: midir.KindInt, Signed: true, Width: 32} }

func varExpr(id int) midir.Expr { return midir.Expr{Kind: midir.ExprVar, Var: id} }

func constExpr(v int64) midir.Expr {
	return midir.Expr{Kind: midir.ExprConst, Const: &midir.Const{Kind: midir.ConstInt, Type: i32(), Int: v}}
}

// TestIdentityFunction: one function taking one i32 parameter, returning it
// unchanged via a single-block body reached through the synthetic entry
// branch.
func TestIdentityFunction(t *testing.T) {
	m := &midir.Module{
		Name: "identity",
		Globals: []midir.Global{
			{
				Kind:   midir.GlobalFunction,
				Name:   "id",
				Params: []int{0},
				Return: i32(),
				Body: &midir.FunctionBody{
					Entry:  1,
					VarMin: 0,
					VarMax: 0,
					VarTypes: map[int]midir.Type{
						0: i32(),
					},
					Blocks: []midir.Block{
						{ID: 1, Term: midir.Term{Kind: midir.TermReturn, HasValue: true, Value: varExpr(0)}},
					},
				},
			},
		},
	}

	mod, err := codegen.ToLLVM(m, defaultOpts())
	if err != nil {
		t.Fatalf("ToLLVM: %v", err)
	}

	ll := mod.String()
	if !strings.Contains(ll, "define i32 @id(i32 %0)") {
		t.Errorf("expected define i32 @id(i32 %%0), got:\n%s", ll)
	}
	if !strings.Contains(ll, "entry:") || !strings.Contains(ll, "L1:") {
		t.Errorf("expected entry and L1 blocks, got:\n%s", ll)
	}
	if !strings.Contains(ll, "ret i32 %0") {
		t.Errorf("expected ret i32 %%0, got:\n%s", ll)
	}
}

// TestStraightLineReassignment: two blocks B0 -> B1 with no merging
// predecessor, so no phi should be created for the reassigned variable.
func TestStraightLineReassignment(t *testing.T) {
	m := &midir.Module{
		Name: "straightline",
		Globals: []midir.Global{
			{
				Kind: midir.GlobalFunction,
				Name: "straight",
				Return: i32(),
				Body: &midir.FunctionBody{
					Entry:    0,
					VarMin:   1,
					VarMax:   1,
					VarTypes: map[int]midir.Type{1: i32()},
					Blocks: []midir.Block{
						{
							ID:    0,
							Stmts: []midir.Stmt{{Kind: midir.StmtMove, Target: 1, Value: constExpr(7)}},
							Term:  midir.Term{Kind: midir.TermJump, Target: 1},
						},
						{
							ID:   1,
							Term: midir.Term{Kind: midir.TermReturn, HasValue: true, Value: varExpr(1)},
						},
					},
				},
			},
		},
	}

	mod, err := codegen.ToLLVM(m, defaultOpts())
	if err != nil {
		t.Fatalf("ToLLVM: %v", err)
	}

	ll := mod.String()
	if strings.Contains(ll, "phi") {
		t.Errorf("expected no phi in straight-line reassignment, got:\n%s", ll)
	}
	if !strings.Contains(ll, "ret i32 7") {
		t.Errorf("expected ret i32 7 (constant propagated through binding), got:\n%s", ll)
	}
}

// TestDiamondRequiresOnePhi: entry branches to T or F, both jump to J; T
// assigns x=1, F assigns x=2, J returns x. Expect exactly one i32 phi in J
// with incomings (1, T) and (2, F).
func TestDiamondRequiresOnePhi(t *testing.T) {
	m := &midir.Module{
		Name: "diamond",
		Globals: []midir.Global{
			{
				Kind:   midir.GlobalFunction,
				Name:   "diamond",
				Params: []int{0},
				Return: i32(),
				Body: &midir.FunctionBody{
					Entry:  0,
					VarMin: 0,
					VarMax: 1,
					VarTypes: map[int]midir.Type{
						0: i32(),
						1: i32(),
					},
					Blocks: []midir.Block{
						{ID: 0, Term: midir.Term{Kind: midir.TermBranch, Cond: varExpr(0), IfTrue: 1, IfFalse: 2}},
						{
							ID:    1,
							Stmts: []midir.Stmt{{Kind: midir.StmtMove, Target: 1, Value: constExpr(1)}},
							Term:  midir.Term{Kind: midir.TermJump, Target: 3},
						},
						{
							ID:    2,
							Stmts: []midir.Stmt{{Kind: midir.StmtMove, Target: 1, Value: constExpr(2)}},
							Term:  midir.Term{Kind: midir.TermJump, Target: 3},
						},
						{
							ID:   3,
							Term: midir.Term{Kind: midir.TermReturn, HasValue: true, Value: varExpr(1)},
						},
					},
				},
			},
		},
	}

	mod, err := codegen.ToLLVM(m, defaultOpts())
	if err != nil {
		t.Fatalf("ToLLVM: %v", err)
	}

	ll := mod.String()
	if got := strings.Count(ll, "= phi i32"); got != 1 {
		t.Fatalf("expected exactly one i32 phi, found %d:\n%s", got, ll)
	}
	if !strings.Contains(ll, "%L1") || !strings.Contains(ll, "%L2") {
		t.Errorf("expected phi incomings to reference %%L1 and %%L2, got:\n%s", ll)
	}
}

// TestLoopHeaderPhi: entry -> header; header branches to body or exit; body jumps
// back to header, incrementing i. Expect a phi at the header with incomings
// from entry and from body.
func TestLoopHeaderPhi(t *testing.T) {
	m := &midir.Module{
		Name: "loop",
		Globals: []midir.Global{
			{
				Kind:   midir.GlobalFunction,
				Name:   "loop",
				Params: []int{0},
				Return: i32(),
				Body: &midir.FunctionBody{
					Entry:  0,
					VarMin: 0,
					VarMax: 1,
					VarTypes: map[int]midir.Type{
						0: i32(),
						1: i32(),
					},
					Blocks: []midir.Block{
						{
							ID:    0,
							Stmts: []midir.Stmt{{Kind: midir.StmtMove, Target: 1, Value: constExpr(0)}},
							Term:  midir.Term{Kind: midir.TermJump, Target: 1},
						},
						{ID: 1, Term: midir.Term{Kind: midir.TermBranch, Cond: varExpr(0), IfTrue: 2, IfFalse: 3}},
						{
							ID: 2,
							Stmts: []midir.Stmt{{
								Kind:   midir.StmtMove,
								Target: 1,
								Value: midir.Expr{
									Kind: midir.ExprBinOp,
									Op:   midir.OpAdd,
									Lhs:  ptrExpr(varExpr(1)),
									Rhs:  ptrExpr(constExpr(1)),
								},
							}},
							Term: midir.Term{Kind: midir.TermJump, Target: 1},
						},
						{ID: 3, Term: midir.Term{Kind: midir.TermReturn, HasValue: true, Value: varExpr(1)}},
					},
				},
			},
		},
	}

	mod, err := codegen.ToLLVM(m, defaultOpts())
	if err != nil {
		t.Fatalf("ToLLVM: %v", err)
	}

	ll := mod.String()
	if got := strings.Count(ll, "= phi i32"); got != 1 {
		t.Fatalf("expected exactly one i32 phi at the loop header, found %d:\n%s", got, ll)
	}
}

// TestStructParameterExpansion: a function taking a {i32, i32} parameter
// returns it unchanged. Seeding decomposes the incoming struct value into
// per-field ids via extractvalue (expandAggregate), and returning the
// struct-typed id recombines them via insertvalue (reconstructValue); no
// phi is ever created for the aggregate id itself since it never resolves
// to a direct SSA binding.
func TestStructParameterExpansion(t *testing.T) {
	pairType := midir.Type{Kind: midir.KindStruct, Fields: []midir.Field{
		{Name: "a", Mutability: midir.Mut(), Type: i32()},
		{Name: "b", Mutability: midir.Mut(), Type: i32()},
	}}

	m := &midir.Module{
		Name: "pair",
		Globals: []midir.Global{
			{
				Kind:   midir.GlobalFunction,
				Name:   "identityPair",
				Params: []int{0},
				Return: pairType,
				Body: &midir.FunctionBody{
					Entry:    1,
					VarMin:   0,
					VarMax:   0,
					VarTypes: map[int]midir.Type{0: pairType},
					Blocks: []midir.Block{
						{
							ID:   1,
							Term: midir.Term{Kind: midir.TermReturn, HasValue: true, Value: varExpr(0)},
						},
					},
				},
			},
		},
	}

	mod, err := codegen.ToLLVM(m, defaultOpts())
	if err != nil {
		t.Fatalf("ToLLVM: %v", err)
	}

	ll := mod.String()
	if got := strings.Count(ll, "extractvalue"); got != 2 {
		t.Fatalf("expected two extractvalue instructions (one per field), found %d:\n%s", got, ll)
	}
	if got := strings.Count(ll, "insertvalue"); got != 2 {
		t.Fatalf("expected two insertvalue instructions (one per field), found %d:\n%s", got, ll)
	}
	if strings.Contains(ll, "phi") {
		t.Errorf("expected no phi for the aggregate parameter, got:\n%s", ll)
	}
}

// TestMutuallyRecursiveTypes: A = {i32, *B}, B = {i32, *A}. Both named
// opaque structs must be created before either body is filled, and bodies
// must reference each other by pointer once filled.
func TestMutuallyRecursiveTypes(t *testing.T) {
	m := &midir.Module{
		Name: "recursive",
		Types: []midir.NamedType{
			{DisplayName: "A", Body: &midir.Type{Kind: midir.KindStruct, Fields: []midir.Field{
				{Name: "n", Mutability: midir.Mut(), Type: i32()},
				{Name: "next", Mutability: midir.Mut(), Type: midir.Type{
					Kind: midir.KindPtr, PtrKind: midir.PtrBasicObj,
					PtrElem: &midir.Type{Kind: midir.KindNamed, NamedIndex: 1},
				}},
			}}},
			{DisplayName: "B", Body: &midir.Type{Kind: midir.KindStruct, Fields: []midir.Field{
				{Name: "n", Mutability: midir.Mut(), Type: i32()},
				{Name: "next", Mutability: midir.Mut(), Type: midir.Type{
					Kind: midir.KindPtr, PtrKind: midir.PtrBasicObj,
					PtrElem: &midir.Type{Kind: midir.KindNamed, NamedIndex: 0},
				}},
			}}},
		},
	}

	mod, err := codegen.ToLLVM(m, defaultOpts())
	if err != nil {
		t.Fatalf("ToLLVM: %v", err)
	}

	ll := mod.String()
	if !strings.Contains(ll, "%A = type") || !strings.Contains(ll, "%B = type") {
		t.Fatalf("expected named struct definitions for %%A and %%B, got:\n%s", ll)
	}
	if !strings.Contains(ll, "%B*") || !strings.Contains(ll, "%A*") {
		t.Errorf("expected each struct to reference the other by pointer, got:\n%s", ll)
	}
}

func ptrExpr(e midir.Expr) *midir.Expr { return &e }
