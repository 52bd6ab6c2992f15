// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

type dispatchRow struct {
	N     int    `json:"n"`
	Case  string `json:"case,omitempty"`
	Slot  int    `json:"slot"`
	Split int    `json:"split"`
	Error string `json:"error,omitempty"`
}

// DispatchCommand returns a command explaining how calls with a given number
// of arguments are routed to the entry points of a callable.
func DispatchCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var (
		fixed     int
		variadic  bool
		ambiguous bool
	)
	cmd := &cobra.Command{
		Use:   "dispatch [flags] N...",
		Short: "Explain arity resolution for argument counts",
		Long: `Explain which entry point receives a call supplying N arguments to a
callable whose highest fixed arity is F.  For variadic callables F is the
number of required arguments preceding the rest parameter.`,
		Example: `  corelisp dispatch -F 2 3
  corelisp dispatch -F 1 -v 0 1 2 11
  corelisp dispatch -F 10 -v -a 10 11`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			flags, err := arityFlags(fixed, variadic, ambiguous)
			if err != nil {
				return err
			}
			rows := make([]dispatchRow, 0, len(args))
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil || n < 0 {
					return fmt.Errorf("invalid argument count: %q", arg)
				}
				rows = append(rows, dispatchPlan(flags, n))
			}
			if outputFormat() == formatJSON {
				enc := json.NewEncoder(cfg.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return writeDispatch(cfg.out, flags, rows)
		},
	}
	cmd.Flags().IntVarP(&fixed, "fixed", "F", 0, "Highest fixed arity of the callable.")
	cmd.Flags().BoolVarP(&variadic, "variadic", "v", false, "The callable has a rest parameter.")
	cmd.Flags().BoolVarP(&ambiguous, "ambiguous", "a", false,
		"The rest parameter attaches at an argument count that also has a fixed entry.")
	return cmd
}

func arityFlags(fixed int, variadic, ambiguous bool) (lisp.ArityFlags, error) {
	if fixed < 0 || fixed > lisp.MaxFixedArity {
		return 0, fmt.Errorf("fixed arity must be in [0, %d]: %d", lisp.MaxFixedArity, fixed)
	}
	if ambiguous && !variadic {
		return 0, errors.New("only variadic callables can be ambiguous")
	}
	return lisp.NewArityFlags(fixed, variadic, ambiguous), nil
}

func dispatchPlan(flags lisp.ArityFlags, n int) dispatchRow {
	plan, err := lisp.ResolveArity(flags, n)
	if err != nil {
		return dispatchRow{N: n, Error: fmt.Sprintf("invalid number of arguments: %d", n)}
	}
	return dispatchRow{N: n, Case: plan.Case.String(), Slot: plan.Slot, Split: plan.Split}
}

func writeDispatch(w io.Writer, flags lisp.ArityFlags, rows []dispatchRow) error {
	if _, err := fmt.Fprintf(w, "callable %s\n", flags); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "N=%d\n", row.N); err != nil {
			return err
		}
		text := indent.String(wordwrap.String(explainPlan(row), 68), 4)
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	return nil
}

func explainPlan(row dispatchRow) string {
	switch row.Case {
	case "":
		return fmt.Sprintf("rejected: %s.", row.Error)
	case lisp.CallExact.String():
		return fmt.Sprintf("exact: entry %d receives the %d supplied arguments followed by an empty rest marker.",
			row.Slot, row.N)
	case lisp.CallPacking.String():
		return fmt.Sprintf("packing: entry %d receives the first %d arguments followed by a packed rest sequence holding the remaining %d.",
			row.Slot, row.Split, row.N-row.Split)
	default:
		return fmt.Sprintf("direct: entry %d receives the %d supplied arguments unmodified.",
			row.Slot, row.N)
	}
}
