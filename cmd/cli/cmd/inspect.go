package cmd

import (
	"github.com/spf13/cobra"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/resource"
	apperrors "github.com/classmeta/pkg/errors"
)

var inspectFull bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.class | source> [class]",
	Short: "Print the structure of one class",
	Long: `Print the header, fields and methods of a class.

With one argument the path must be a .class file. With two arguments the
first is any source accepted by scan (directory, archive or storage:// key)
and the second names the class to show, in dotted or internal form.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectFull, "full", false, "Also decode method bodies and debug attributes")
}

func runInspect(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	var opts []resource.LoaderOption
	if inspectFull {
		opts = append(opts, resource.WithParser(classfile.NewParser(classfile.FullParseOptions())))
	}

	if len(args) == 1 {
		ci, err := svc.Loader(opts...).ReadClassFile(args[0])
		if err != nil {
			return err
		}
		return render(cmd, ci)
	}

	res, _, err := svc.Load(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}
	name := classfile.InternalName(args[1])
	ci, ok := res.GetClass(name)
	if !ok {
		return apperrors.New(apperrors.CodeNotFound, "class not found in "+args[0]+": "+args[1])
	}
	return render(cmd, ci)
}
