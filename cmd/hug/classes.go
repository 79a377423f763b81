package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/jward/treehugger"
)

var (
	flagClassName    string
	flagStaticOnly   bool
	flagInstanceOnly bool
)

var classesCmd = &cobra.Command{
	Use:   "classes [GLOB...]",
	Short: "List classes and their static and instance members",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClasses(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	classesCmd.Flags().StringVarP(&flagClassName, "name", "n", "", "only the class with this name")
	classesCmd.Flags().BoolVar(&flagStaticOnly, "static-only", false, "show only static members")
	classesCmd.Flags().BoolVar(&flagInstanceOnly, "instance-only", false, "show only instance members")
	classesCmd.MarkFlagsMutuallyExclusive("static-only", "instance-only")
}

func runClasses(ctx context.Context, w io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := newSession(ctx, args)
	if err != nil {
		return err
	}

	var all []FileClasses
	err = s.each(ctx, func(f *treehugger.File) error {
		classes, err := f.Classes()
		if err != nil {
			return err
		}
		classes = filterClasses(classes, flagClassName, flagStaticOnly, flagInstanceOnly)
		if len(classes) > 0 {
			all = append(all, FileClasses{File: f.Path(), Language: f.Language(), Classes: classes})
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := newPrinter(w, s.root)
	if flagJSON {
		if all == nil {
			all = []FileClasses{}
		}
		return out.json(all)
	}
	for _, fc := range all {
		out.fileHeader(fc.File, fc.Language)
		for _, c := range fc.Classes {
			out.class(c)
		}
		out.blank()
	}
	return out.err
}

// filterClasses keeps the named class (all when name is empty) and drops
// the members excluded by staticOnly or instanceOnly.
func filterClasses(classes []treehugger.ClassSummary, name string, staticOnly, instanceOnly bool) []treehugger.ClassSummary {
	var out []treehugger.ClassSummary
	for _, c := range classes {
		if name != "" && c.Class.Name != name {
			continue
		}
		if staticOnly {
			c.InstanceMethods, c.InstanceFields = nil, nil
		}
		if instanceOnly {
			c.StaticMethods, c.StaticFields = nil, nil
		}
		out = append(out, c)
	}
	return out
}
