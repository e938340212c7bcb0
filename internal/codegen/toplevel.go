package codegen

import (
	"sync"

	"github.com/llir/llvm/ir"
	"github.com/pkg/errors"

	"github.com/arclang/midc/internal/midir"
)

// Options configures ToLLVM. The zero value is invalid: ConstVal, MemAcc and
// GCMeta must name concrete collaborator implementations (cmd/midc wires
// constval.New(), memaccess.New() and gcmeta.New()); they are expressed as
// interfaces so this package never imports its own collaborators.
type Options struct {
	ConstVal ConstValue
	MemAcc   MemAccess
	GCMeta   GCMetadata

	// Workers, when > 1, lowers independent function bodies concurrently
	// across a worker pool once the type table, declaration table and
	// GC-header table have been built in the single-threaded preamble.
	// 0 or 1 means sequential, in function-table order.
	Workers int
}

// ToLLVM lowers a whole MidIR module to an LLVM module ready for bitcode
// writing or further passes.
func ToLLVM(m *midir.Module, opts Options) (*ir.Module, error) {
	if opts.ConstVal == nil || opts.MemAcc == nil || opts.GCMeta == nil {
		return nil, errors.New("codegen: Options.ConstVal, MemAcc and GCMeta must all be supplied")
	}

	mod := ir.NewModule()
	mod.SourceFilename = m.Name

	tt, err := MaterializeTypes(mod, m)
	if err != nil {
		return nil, errors.Wrap(err, "materializing types")
	}

	gcHeaders, descType, err := EmitGCHeaders(mod, m)
	if err != nil {
		return nil, errors.Wrap(err, "emitting gc headers")
	}
	if err := opts.GCMeta.GenMetadata(mod, descType); err != nil {
		return nil, errors.Wrap(err, "populating gc typedesc metadata")
	}

	decls, err := EmitDecls(mod, m, tt)
	if err != nil {
		return nil, errors.Wrap(err, "emitting declarations")
	}

	if _, err := EmitAccessors(mod, m, tt); err != nil {
		return nil, errors.Wrap(err, "emitting accessors")
	}

	ctx := &lowerCtx{
		mod:       mod,
		m:         m,
		tt:        tt,
		decls:     decls,
		gcHeaders: gcHeaders,
		constVal:  opts.ConstVal,
		memAccess: opts.MemAcc,
	}

	if err := lowerFunctions(ctx, m, decls, opts.Workers); err != nil {
		return nil, err
	}

	return mod, nil
}

// lowerFunctions lowers every function global's body, in parallel across
// workers goroutines when requested. The type/decl/gc-header tables built
// above are read-only from this point on, which is what makes concurrent
// lowering of independent functions safe: each worker only ever writes into
// its own *ir.Func via its own *ir.Block builders.
func lowerFunctions(ctx *lowerCtx, m *midir.Module, decls *DeclTable, workers int) error {
	type job struct {
		idx    int
		global midir.Global
		fn     *ir.Func
	}

	jobs := make([]job, 0, len(m.Globals))
	for idx, g := range m.Globals {
		if g.Kind != midir.GlobalFunction || g.Body == nil {
			continue
		}
		fn := decls.Func(idx)
		if fn == nil {
			return errors.Errorf("codegen: global %d (%s) has a body but no declared function", idx, g.Name)
		}
		jobs = append(jobs, job{idx: idx, global: g, fn: fn})
	}

	if workers <= 1 || len(jobs) <= 1 {
		for _, j := range jobs {
			if err := LowerFunction(ctx, j.fn, j.global); err != nil {
				return errors.Wrapf(err, "lowering function %d (%s)", j.idx, j.global.Name)
			}
		}
		return nil
	}

	// Worker pool of size min(workers, len(jobs)) draining a shared job
	// channel; failures collect into a buffered error channel so no send
	// blocks after a worker exits.
	n := workers
	if n > len(jobs) {
		n = len(jobs)
	}

	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	errCh := make(chan error, len(jobs))
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if err := LowerFunction(ctx, j.fn, j.global); err != nil {
					errCh <- errors.Wrapf(err, "lowering function %d (%s)", j.idx, j.global.Name)
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			return err
		}
	}
	return nil
}
