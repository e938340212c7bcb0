package codegen

import (
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/arclang/midc/internal/midir"
	"github.com/arclang/midc/internal/midir/ssa"
)

// lowerCtx bundles the read-only inputs every function lowering needs: the
// frozen type/decl/gc-header tables and the collaborator implementations.
// It is built once in the single-threaded preamble and shared across however
// many functions are lowered afterward, including concurrently.
type lowerCtx struct {
	mod       *ir.Module
	m         *midir.Module
	tt        *TypeTable
	decls     *DeclTable
	gcHeaders *GCHeaderTable
	constVal  ConstValue
	memAccess MemAccess
}

type phiEntry struct {
	varID int
	phi   *ir.InstPhi
}

// LowerFunction lowers one function global's CFG to SSA form: block
// allocation, ValMap seeding, φ creation in plan order, DFS lowering of
// statements and terminators, and φ incoming-edge wiring.
func LowerFunction(ctx *lowerCtx, fn *ir.Func, global midir.Global) error {
	body := global.Body
	if body == nil {
		return nil // external declaration only
	}

	entry := fn.NewBlock("entry")
	llBlocks := make(map[int]*ir.Block, len(body.Blocks))
	for _, b := range body.Blocks {
		llBlocks[b.ID] = fn.NewBlock("L" + strconv.Itoa(b.ID))
	}

	vm, err := seedValMap(entry, fn, ctx, global)
	if err != nil {
		return errors.Wrapf(err, "seeding %s", global.Name)
	}

	cfgEntry, ok := llBlocks[body.Entry]
	if !ok {
		return &MalformedIRError{BlockID: body.Entry, Reason: "function entry node is not among its blocks"}
	}
	entry.NewBr(cfgEntry)

	phiTable, err := createPhis(ctx, body, llBlocks)
	if err != nil {
		return errors.Wrapf(err, "placing phis for %s", global.Name)
	}

	l := &functionLowering{
		ctx:      ctx,
		body:     body,
		llBlocks: llBlocks,
		phiTable: phiTable,
		started:  make(map[int]bool),
	}

	// The synthetic entry branch is a real predecessor of the CFG entry, so
	// any φ planned there receives its seeded values along that edge first.
	if err := l.wirePhis(body.Entry, vm, entry); err != nil {
		return errors.Wrapf(err, "lowering %s", global.Name)
	}
	if _, err := l.process(body.Entry, vm); err != nil {
		return errors.Wrapf(err, "lowering %s", global.Name)
	}

	// Blocks never reached from the entry still need a terminator to keep
	// the emitted function well-formed.
	for _, b := range body.Blocks {
		if !l.started[b.ID] {
			llBlocks[b.ID].NewUnreachable()
		}
	}

	return nil
}

// createPhis creates, for every (block, ids) pair in the φ-placement plan,
// an empty φ per id in plan order. Incoming edges are added later, as the
// DFS reaches each predecessor.
func createPhis(ctx *lowerCtx, body *midir.FunctionBody, llBlocks map[int]*ir.Block) (map[int][]phiEntry, error) {
	plan := ssa.PlanPhis(body)
	table := make(map[int][]phiEntry)

	for _, blockID := range plan.Blocks() {
		for _, varID := range plan.Vars(blockID) {
			t, ok := body.VarTypes[varID]
			if !ok {
				return nil, &MalformedIRError{VarID: varID, BlockID: blockID, Reason: "phi planned for id with no declared type"}
			}
			llt, err := resolveInlineType(ctx.m, ctx.tt, t)
			if err != nil {
				return nil, err
			}
			phi := &ir.InstPhi{Typ: llt}
			llBlocks[blockID].Insts = append(llBlocks[blockID].Insts, phi)
			table[blockID] = append(table[blockID], phiEntry{varID: varID, phi: phi})
		}
	}
	return table, nil
}

// functionLowering holds the per-function DFS state: which blocks have
// already been lowered, so back-edges only wire φ incoming edges without
// re-lowering.
type functionLowering struct {
	ctx      *lowerCtx
	body     *midir.FunctionBody
	llBlocks map[int]*ir.Block
	phiTable map[int][]phiEntry
	started  map[int]bool
}

// wirePhis adds the incoming (value, from) edge to every φ planned at
// blockID, reading each source id's value out of vout.
func (l *functionLowering) wirePhis(blockID int, vout *ValMap, from *ir.Block) error {
	for _, pe := range l.phiTable[blockID] {
		loc, ok := vout.Lookup(pe.varID)
		if !ok {
			return &InvariantViolationError{VarID: pe.varID, Reason: "phi source id unbound at predecessor exit"}
		}
		if loc.Kind != LocBind {
			return &InvariantViolationError{VarID: pe.varID, Reason: "phi source id did not resolve to a direct SSA binding"}
		}
		pe.phi.Incs = append(pe.phi.Incs, ir.NewIncoming(loc.Value, from))
	}
	return nil
}

// process lowers blockID exactly once, then wires φs at each successor and
// recurses into the ones not yet visited. Inside the block a planned φ
// overrides whatever binding came in along the edge.
func (l *functionLowering) process(blockID int, vin *ValMap) (*ValMap, error) {
	l.started[blockID] = true

	b, ok := l.body.BlockByID(blockID)
	if !ok {
		return nil, &MalformedIRError{BlockID: blockID, Reason: "successor names a block absent from the function body"}
	}
	blockLL := l.llBlocks[blockID]

	v := vin
	for _, pe := range l.phiTable[blockID] {
		v = v.Bind(pe.varID, Bind(pe.phi))
	}

	for i := range b.Stmts {
		next, err := lowerStmt(blockLL, v, &b.Stmts[i], l.ctx, l.body.VarTypes)
		if err != nil {
			return nil, errors.Wrapf(err, "block %d statement %d", blockID, i)
		}
		v = next
	}

	if err := lowerTerm(blockLL, v, &b.Term, l.ctx, l.llBlocks, l.body.VarTypes); err != nil {
		return nil, errors.Wrapf(err, "block %d terminator", blockID)
	}

	for _, succ := range b.Term.Successors() {
		if err := l.wirePhis(succ, v, blockLL); err != nil {
			return nil, errors.Wrapf(err, "wiring phi at block %d from block %d", succ, blockID)
		}
		if !l.started[succ] {
			if _, err := l.process(succ, v); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// seedValMap binds every declared variable before the CFG entry runs:
// parameters take the corresponding LLVM function parameter (struct-typed
// ones are field-expanded), and everything else starts as undef of its
// declared type.
func seedValMap(entry *ir.Block, fn *ir.Func, ctx *lowerCtx, global midir.Global) (*ValMap, error) {
	body := global.Body

	maxDeclared := body.VarMax
	for _, id := range global.Params {
		if id > maxDeclared {
			maxDeclared = id
		}
	}
	vm := NewValMap(maxDeclared + 1)

	for i, id := range global.Params {
		t, ok := body.VarTypes[id]
		if !ok {
			return nil, &MalformedIRError{VarID: id, Reason: "parameter id has no declared type"}
		}
		paramVal := fn.Params[i]
		loc, next := expandAggregate(entry, vm, &t, paramVal)
		vm = next.Bind(id, loc)
	}

	for id := body.VarMin; id <= body.VarMax; id++ {
		if _, ok := vm.Lookup(id); ok {
			continue
		}
		t, ok := body.VarTypes[id]
		if !ok {
			continue
		}
		loc, next, err := expandUndefAggregate(ctx, vm, &t)
		if err != nil {
			return nil, err
		}
		vm = next.Bind(id, loc)
	}

	return vm, nil
}

// expandAggregate decomposes a struct-typed SSA value, field by field, into
// freshly synthesised variable ids whose own locations are computed
// recursively. No struct-typed id ever resolves to Bind; nested structs
// bottom out at non-struct leaves.
func expandAggregate(block *ir.Block, vm *ValMap, t *midir.Type, val value.Value) (Location, *ValMap) {
	if t.Kind != midir.KindStruct {
		return Bind(val), vm
	}

	fields := make([]int, len(t.Fields))
	cur := vm
	for i, f := range t.Fields {
		fv := block.NewExtractValue(val, uint64(i))
		fieldLoc, next := expandAggregate(block, cur, &f.Type, fv)
		id, next2 := next.Fresh()
		cur = next2.Bind(id, fieldLoc)
		fields[i] = id
	}
	return StructLoc(fields), cur
}

// expandUndefAggregate builds the undef-valued Location for a declared but
// not-yet-bound variable, recursing through struct fields.
func expandUndefAggregate(ctx *lowerCtx, vm *ValMap, t *midir.Type) (Location, *ValMap, error) {
	if t.Kind != midir.KindStruct {
		llt, err := resolveInlineType(ctx.m, ctx.tt, *t)
		if err != nil {
			return Location{}, nil, err
		}
		return Bind(constant.NewUndef(llt)), vm, nil
	}

	fields := make([]int, len(t.Fields))
	cur := vm
	for i, f := range t.Fields {
		fieldLoc, next, err := expandUndefAggregate(ctx, cur, &f.Type)
		if err != nil {
			return Location{}, nil, err
		}
		id, next2 := next.Fresh()
		cur = next2.Bind(id, fieldLoc)
		fields[i] = id
	}
	return StructLoc(fields), cur, nil
}

// reconstructValue rebuilds a single LLVM SSA value for varID, insertvalue-
// chaining struct fields back together when the Location is a Struct.
func reconstructValue(block *ir.Block, vm *ValMap, varID int, ty types.Type) (value.Value, error) {
	loc, ok := vm.Lookup(varID)
	if !ok {
		return nil, &InvariantViolationError{VarID: varID, Reason: "reference to unbound variable"}
	}

	switch loc.Kind {
	case LocBind:
		return loc.Value, nil
	case LocStruct:
		st, ok := ty.(*types.StructType)
		if !ok {
			return nil, &MalformedIRError{VarID: varID, Reason: "struct location paired with a non-struct declared type"}
		}
		cur := value.Value(constant.NewUndef(ty))
		for i, fieldID := range loc.Fields {
			fv, err := reconstructValue(block, vm, fieldID, st.Fields[i])
			if err != nil {
				return nil, err
			}
			cur = block.NewInsertValue(cur, fv, uint64(i))
		}
		return cur, nil
	default:
		return nil, &MalformedIRError{VarID: varID, Reason: "memory location referenced directly; expected a Load expression"}
	}
}

func lowerExpr(block *ir.Block, vm *ValMap, e *midir.Expr, ctx *lowerCtx, varTypes map[int]midir.Type) (value.Value, error) {
	switch e.Kind {
	case midir.ExprVar:
		t, ok := varTypes[e.Var]
		if !ok {
			return nil, &MalformedIRError{VarID: e.Var, Reason: "reference to a variable with no declared type"}
		}
		llt, err := resolveInlineType(ctx.m, ctx.tt, t)
		if err != nil {
			return nil, err
		}
		return reconstructValue(block, vm, e.Var, llt)

	case midir.ExprConst:
		return ctx.constVal.GenConst(ctx.mod, ctx.tt, e.Const)

	case midir.ExprBinOp:
		lhs, err := lowerExpr(block, vm, e.Lhs, ctx, varTypes)
		if err != nil {
			return nil, err
		}
		rhs, err := lowerExpr(block, vm, e.Rhs, ctx, varTypes)
		if err != nil {
			return nil, err
		}
		return lowerBinOp(block, e.Op, lhs, rhs)

	case midir.ExprCall:
		callee := ctx.decls.Func(e.Callee)
		if callee == nil {
			return nil, &MalformedIRError{Reason: "call to an undeclared global"}
		}
		args := make([]value.Value, len(e.Args))
		for i := range e.Args {
			av, err := lowerExpr(block, vm, &e.Args[i], ctx, varTypes)
			if err != nil {
				return nil, err
			}
			args[i] = av
		}
		return block.NewCall(callee, args...), nil

	case midir.ExprLoad:
		addr, err := lowerExpr(block, vm, e.Addr, ctx, varTypes)
		if err != nil {
			return nil, err
		}
		ty, err := resolveInlineType(ctx.m, ctx.tt, *e.LoadType)
		if err != nil {
			return nil, err
		}
		return ctx.memAccess.GenLoad(block, addr, e.LoadMut, ty)

	default:
		return nil, &MalformedIRError{Reason: "unknown expression kind"}
	}
}

// lowerBinOp resolves op to a concrete instruction based on the LLVM type
// of its operands: float operands take the ordered-comparison and f-series
// arithmetic forms, everything else the signed integer forms.
func lowerBinOp(block *ir.Block, op midir.BinOp, lhs, rhs value.Value) (value.Value, error) {
	if isFloatType(lhs.Type()) {
		switch op {
		case midir.OpAdd:
			return block.NewFAdd(lhs, rhs), nil
		case midir.OpSub:
			return block.NewFSub(lhs, rhs), nil
		case midir.OpMul:
			return block.NewFMul(lhs, rhs), nil
		case midir.OpDiv:
			return block.NewFDiv(lhs, rhs), nil
		case midir.OpMod:
			return block.NewFRem(lhs, rhs), nil
		case midir.OpEq:
			return block.NewFCmp(enum.FPredOEQ, lhs, rhs), nil
		case midir.OpNe:
			return block.NewFCmp(enum.FPredONE, lhs, rhs), nil
		case midir.OpLt:
			return block.NewFCmp(enum.FPredOLT, lhs, rhs), nil
		case midir.OpLe:
			return block.NewFCmp(enum.FPredOLE, lhs, rhs), nil
		case midir.OpGt:
			return block.NewFCmp(enum.FPredOGT, lhs, rhs), nil
		case midir.OpGe:
			return block.NewFCmp(enum.FPredOGE, lhs, rhs), nil
		default:
			return nil, &MalformedIRError{Reason: "logical operator applied to float operands"}
		}
	}

	switch op {
	case midir.OpAdd:
		return block.NewAdd(lhs, rhs), nil
	case midir.OpSub:
		return block.NewSub(lhs, rhs), nil
	case midir.OpMul:
		return block.NewMul(lhs, rhs), nil
	case midir.OpDiv:
		return block.NewSDiv(lhs, rhs), nil
	case midir.OpMod:
		return block.NewSRem(lhs, rhs), nil
	case midir.OpEq:
		return block.NewICmp(enum.IPredEQ, lhs, rhs), nil
	case midir.OpNe:
		return block.NewICmp(enum.IPredNE, lhs, rhs), nil
	case midir.OpLt:
		return block.NewICmp(enum.IPredSLT, lhs, rhs), nil
	case midir.OpLe:
		return block.NewICmp(enum.IPredSLE, lhs, rhs), nil
	case midir.OpGt:
		return block.NewICmp(enum.IPredSGT, lhs, rhs), nil
	case midir.OpGe:
		return block.NewICmp(enum.IPredSGE, lhs, rhs), nil
	case midir.OpAnd:
		return block.NewAnd(lhs, rhs), nil
	case midir.OpOr:
		return block.NewOr(lhs, rhs), nil
	default:
		return nil, &MalformedIRError{Reason: "unknown binary operator"}
	}
}

func isFloatType(t types.Type) bool {
	_, ok := t.(*types.FloatType)
	return ok
}

func lowerStmt(block *ir.Block, vm *ValMap, s *midir.Stmt, ctx *lowerCtx, varTypes map[int]midir.Type) (*ValMap, error) {
	switch s.Kind {
	case midir.StmtMove:
		t, ok := varTypes[s.Target]
		if !ok {
			return nil, &MalformedIRError{VarID: s.Target, Reason: "move target has no declared type"}
		}
		val, err := lowerExpr(block, vm, &s.Value, ctx, varTypes)
		if err != nil {
			return nil, err
		}
		if t.Kind == midir.KindStruct {
			loc, next := expandAggregate(block, vm, &t, val)
			return next.Bind(s.Target, loc), nil
		}
		return vm.Bind(s.Target, Bind(val)), nil

	case midir.StmtStore:
		addr, err := lowerExpr(block, vm, &s.Addr, ctx, varTypes)
		if err != nil {
			return nil, err
		}
		val, err := lowerExpr(block, vm, &s.Value, ctx, varTypes)
		if err != nil {
			return nil, err
		}
		ty, err := resolveInlineType(ctx.m, ctx.tt, s.StoreType)
		if err != nil {
			return nil, err
		}
		if err := ctx.memAccess.GenStore(block, val, addr, s.StoreMut, ty); err != nil {
			return nil, err
		}
		return vm, nil

	case midir.StmtEval:
		if _, err := lowerExpr(block, vm, &s.Value, ctx, varTypes); err != nil {
			return nil, err
		}
		return vm, nil

	default:
		return nil, &MalformedIRError{Reason: "unknown statement kind"}
	}
}

func lowerTerm(block *ir.Block, vm *ValMap, t *midir.Term, ctx *lowerCtx, llBlocks map[int]*ir.Block, varTypes map[int]midir.Type) error {
	switch t.Kind {
	case midir.TermJump:
		target, ok := llBlocks[t.Target]
		if !ok {
			return &MalformedIRError{BlockID: t.Target, Reason: "jump to unknown block"}
		}
		block.NewBr(target)
		return nil

	case midir.TermBranch:
		cond, err := lowerExpr(block, vm, &t.Cond, ctx, varTypes)
		if err != nil {
			return err
		}
		ifTrue, ok1 := llBlocks[t.IfTrue]
		ifFalse, ok2 := llBlocks[t.IfFalse]
		if !ok1 || !ok2 {
			return &MalformedIRError{Reason: "branch to unknown block"}
		}
		block.NewCondBr(cond, ifTrue, ifFalse)
		return nil

	case midir.TermReturn:
		if !t.HasValue {
			block.NewRet(nil)
			return nil
		}
		val, err := lowerExpr(block, vm, &t.Value, ctx, varTypes)
		if err != nil {
			return err
		}
		block.NewRet(val)
		return nil

	case midir.TermUnreachable:
		block.NewUnreachable()
		return nil

	default:
		return &MalformedIRError{Reason: "unknown terminator kind"}
	}
}
