// Copyright © 2024 The ELPS authors

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/muesli/reflow/padding"
	"github.com/spf13/cobra"
)

type kindRow struct {
	Tag        int    `json:"tag"`
	Kind       string `json:"kind"`
	Capability string `json:"capability"`
}

// KindsCommand returns a command listing every value kind with its tag and
// dispatch capability.
func KindsCommand(opts ...Option) *cobra.Command {
	cfg := newCmdConfig(opts)
	var capability string
	cmd := &cobra.Command{
		Use:   "kinds",
		Short: "List value kinds and their capabilities",
		Long: `List the closed set of value kinds with their numeric tag and the
restricted dispatch group (seqable, map-like, set-like, number-like or
none) each kind belongs to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(); err != nil {
				return err
			}
			rows, err := kindRows(capability)
			if err != nil {
				return err
			}
			if outputFormat() == formatJSON {
				enc := json.NewEncoder(cfg.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			return writeKindTable(cfg.out, rows)
		},
	}
	cmd.Flags().StringVarP(&capability, "capability", "c", "",
		"Only list kinds in the named dispatch group.")
	return cmd
}

func kindRows(capability string) ([]kindRow, error) {
	if capability != "" && !validCapability(capability) {
		return nil, fmt.Errorf("unknown capability: %q", capability)
	}
	var rows []kindRow
	for _, k := range lisp.Kinds() {
		c := lisp.KindCapability(k).String()
		if capability != "" && c != capability {
			continue
		}
		rows = append(rows, kindRow{Tag: int(k), Kind: k.String(), Capability: c})
	}
	return rows, nil
}

func validCapability(name string) bool {
	for c := lisp.CapNone; c <= lisp.CapNumberLike; c++ {
		if c.String() == name {
			return true
		}
	}
	return false
}

func writeKindTable(w io.Writer, rows []kindRow) error {
	width := len("KIND")
	for _, row := range rows {
		if len(row.Kind) > width {
			width = len(row.Kind)
		}
	}
	col := uint(width + 2)
	_, err := fmt.Fprintf(w, "%s%sCAPABILITY\n", padding.String("TAG", 5), padding.String("KIND", col))
	if err != nil {
		return err
	}
	for _, row := range rows {
		_, err := fmt.Fprintf(w, "%s%s%s\n",
			padding.String(fmt.Sprint(row.Tag), 5),
			padding.String(row.Kind, col),
			row.Capability)
		if err != nil {
			return err
		}
	}
	return nil
}
