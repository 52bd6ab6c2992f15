// Copyright © 2024 The ELPS authors

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/luthersystems/corelisp/lisp/x/profiler"
	"github.com/spf13/cobra"
)

// ProfileCommand returns a command running a sample workload through the
// invocation protocol under a profiler.
func ProfileCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var (
		callgrindFile string
		pprofFile     string
		docFilter     bool
		depth         int
		threads       int
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile a sample workload",
		Long: `Run a sample workload exercising direct, exact and packing calls on
one or more threads.  With --callgrind a callgrind profile of the lisp
call graph is written.  With --pprof a Go CPU profile is written with
samples labelled by lisp function and namespace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if callgrindFile != "" && pprofFile != "" {
				return errors.New("only one of --callgrind and --pprof may be given")
			}
			if depth < 0 || threads < 1 {
				return errors.New("depth must be non-negative and threads positive")
			}
			rt, err := cfg.newRuntime()
			if err != nil {
				return err
			}
			var popts []profiler.Option
			if docFilter {
				popts = append(popts, profiler.WithDocFilter(), profiler.WithDocLabeler())
			}
			var p lisp.Profiler
			switch {
			case callgrindFile != "":
				cg := profiler.NewCallgrindProfiler(rt, popts...)
				if err := cg.SetFile(callgrindFile); err != nil {
					return err
				}
				p = cg
			case pprofFile != "":
				f, err := os.Create(pprofFile) //#nosec G304
				if err != nil {
					return err
				}
				defer f.Close()
				if err := pprof.StartCPUProfile(f); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
				p = profiler.NewPprofAnnotator(rt, cmd.Context(), popts...)
			}
			if p != nil {
				if err := p.Enable(); err != nil {
					return err
				}
			}
			results, err := runWorkload(cmd.Context(), rt, depth, threads)
			if p != nil {
				if cerr := p.Complete(); err == nil {
					err = cerr
				}
			}
			if err != nil {
				return err
			}
			for i, v := range results {
				fmt.Fprintf(cfg.out, "thread %d: %s\n", i, lisp.Print(v))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&callgrindFile, "callgrind", "", "Write a callgrind profile to the named file.")
	cmd.Flags().StringVar(&pprofFile, "pprof", "", "Write a labelled Go CPU profile to the named file.")
	cmd.Flags().BoolVar(&docFilter, "doc-filter", false,
		"Only profile functions whose doc string contains @trace, labelled by it.")
	cmd.Flags().IntVar(&depth, "depth", 12, "Size of the workload.")
	cmd.Flags().IntVar(&threads, "threads", 1, "Number of threads running the workload.")
	return cmd
}

// runWorkload runs the workload on threads futures and returns their
// results in order.
func runWorkload(ctx context.Context, rt *lisp.Runtime, depth, threads int) ([]lisp.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	main := defineWorkload(rt)
	futures := make([]*lisp.Future, threads)
	for i := range futures {
		futures[i] = rt.Spawn(ctx, nil, main, lisp.Int(int64(depth)))
	}
	results := make([]lisp.Value, threads)
	for i, fut := range futures {
		v, err := fut.Await(ctx)
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}

func intValue(v lisp.Value) (int64, error) {
	x, ok := v.(*lisp.Integer)
	if !ok {
		return 0, fmt.Errorf("expected integer: %s", lisp.Print(v))
	}
	return x.I, nil
}

// workloadFun interns a function under the user namespace.
func workloadFun(rt *lisp.Runtime, name, doc string, clause lisp.FunArity) *lisp.Var {
	user := rt.UserNamespace().Name
	fun := lisp.MustFunction(user+"/"+name, clause)
	fun.Doc = doc
	return rt.InternVar(user, name).BindRoot(fun).SetDoc(doc)
}

// defineWorkload interns the workload functions and returns the var holding
// the entry point.  Given n the entry point returns the vector
// [fib(n) sum(0..4n) n].
func defineWorkload(rt *lisp.Runtime) *lisp.Var {
	var fib *lisp.Var
	fib = workloadFun(rt, "fib", "@trace{ fib }", lisp.FunArity{Required: 1, Fn: func(t *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		n, err := intValue(args[0])
		if err != nil {
			return nil, err
		}
		if n < 2 {
			return args[0], nil
		}
		a, err := lisp.DynamicCall(t, fib, lisp.Int(n-1))
		if err != nil {
			return nil, err
		}
		b, err := lisp.DynamicCall(t, fib, lisp.Int(n-2))
		if err != nil {
			return nil, err
		}
		x, _ := intValue(a)
		y, _ := intValue(b)
		return lisp.Int(x + y), nil
	}})
	sum := workloadFun(rt, "sum", "@trace{ sum }", lisp.FunArity{Variadic: true, Fn: func(_ *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		rest, err := lisp.ToSlice(args[0])
		if err != nil {
			return nil, err
		}
		var total int64
		for _, v := range rest {
			x, err := intValue(v)
			if err != nil {
				return nil, err
			}
			total += x
		}
		return lisp.Int(total), nil
	}})
	return workloadFun(rt, "main", "", lisp.FunArity{Required: 1, Fn: func(t *lisp.Thread, args []lisp.Value) (lisp.Value, error) {
		n, err := intValue(args[0])
		if err != nil {
			return nil, err
		}
		f, err := lisp.DynamicCall(t, fib, args[0])
		if err != nil {
			return nil, err
		}
		r, err := lisp.NewIntegerRange(0, n*4, 1)
		if err != nil {
			return nil, err
		}
		s, err := lisp.Apply(t, sum, r)
		if err != nil {
			return nil, err
		}
		return lisp.NewVector(f, s, args[0]), nil
	}})
}
