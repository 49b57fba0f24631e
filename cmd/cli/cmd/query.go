package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/repository"
)

var queryDescriptor string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the class index",
	Long:  `Query classes previously stored with the index command.`,
}

var querySubclassesCmd = &cobra.Command{
	Use:   "subclasses <class>",
	Short: "List classes whose direct superclass is <class>",
	Args:  cobra.ExactArgs(1),
	RunE: withClasses(func(ctx context.Context, repo repository.ClassRepository, args []string) (any, error) {
		return repo.FindSubclasses(ctx, classfile.InternalName(args[0]))
	}),
}

var queryImplementorsCmd = &cobra.Command{
	Use:   "implementors <interface>",
	Short: "List classes that directly implement <interface>",
	Args:  cobra.ExactArgs(1),
	RunE: withClasses(func(ctx context.Context, repo repository.ClassRepository, args []string) (any, error) {
		return repo.FindImplementors(ctx, classfile.InternalName(args[0]))
	}),
}

var queryMembersCmd = &cobra.Command{
	Use:   "members <name>",
	Short: "List fields and methods called <name>",
	Args:  cobra.ExactArgs(1),
	RunE: withClasses(func(ctx context.Context, repo repository.ClassRepository, args []string) (any, error) {
		return repo.FindMembers(ctx, args[0], queryDescriptor)
	}),
}

var queryClassCmd = &cobra.Command{
	Use:   "class <class>",
	Short: "Show a stored class",
	Args:  cobra.ExactArgs(1),
	RunE: withClasses(func(ctx context.Context, repo repository.ClassRepository, args []string) (any, error) {
		return repo.GetClass(ctx, classfile.InternalName(args[0]))
	}),
}

var queryCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored classes",
	Args:  cobra.NoArgs,
	RunE: withClasses(func(ctx context.Context, repo repository.ClassRepository, _ []string) (any, error) {
		return repo.Count(ctx)
	}),
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(querySubclassesCmd, queryImplementorsCmd, queryMembersCmd, queryClassCmd, queryCountCmd)
	queryMembersCmd.Flags().StringVarP(&queryDescriptor, "descriptor", "d", "", "Descriptor prefix, e.g. '(Ljava/lang/String;'")
}

// withClasses opens the class index, runs fn and renders its result.
func withClasses(fn func(ctx context.Context, repo repository.ClassRepository, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()

		if err := svc.InitDatabase(); err != nil {
			return err
		}
		v, err := fn(cmd.Context(), svc.Classes(), args)
		if err != nil {
			return err
		}
		return render(cmd, v)
	}
}
