package cmd

import (
	"github.com/spf13/cobra"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/formatter"
	"github.com/classmeta/internal/resource"
)

var hierarchyAll bool

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy <source> <class>",
	Short: "Show the supertypes and subtypes of a class",
	Long: `Load a class source and show the direct supertypes and subtypes of one
class. Supertypes outside the source are listed but have no parents of
their own. With --all the transitive closure is shown as well.`,
	Args: cobra.ExactArgs(2),
	RunE: runHierarchy,
}

func init() {
	rootCmd.AddCommand(hierarchyCmd)
	hierarchyCmd.Flags().BoolVarP(&hierarchyAll, "all", "a", false, "Include all transitive supertypes and subtypes")
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	res, _, err := svc.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	h := resource.NewHierarchy(res)
	if cycles, err := h.Cycles(); err == nil && len(cycles) > 0 {
		log.Warn("Source contains %d inheritance cycles", len(cycles))
	}

	name := classfile.InternalName(args[1])
	view, err := hierarchyView(h, name, hierarchyAll)
	if err != nil {
		return err
	}
	return render(cmd, view)
}

func hierarchyView(h *resource.Hierarchy, name string, all bool) (*formatter.HierarchyView, error) {
	parents, err := h.Parents(name)
	if err != nil {
		return nil, err
	}
	children, err := h.Children(name)
	if err != nil {
		return nil, err
	}
	view := &formatter.HierarchyView{Class: name, Parents: parents, Children: children}
	if !all {
		return view, nil
	}
	if view.AllParents, err = h.AllParents(name); err != nil {
		return nil, err
	}
	if view.AllChildren, err = h.AllChildren(name); err != nil {
		return nil, err
	}
	return view, nil
}
