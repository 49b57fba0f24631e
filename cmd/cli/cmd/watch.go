package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/classmeta/internal/resource"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Load a class directory and print changes as they happen",
	Long: `Load every class under a directory, then watch it. Created or modified
class files are re-parsed and deleted ones are dropped; each batch of
changes is printed once the directory has been quiet for the debounce
interval. A class file that fails to parse keeps its previous version.

Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", resource.DefaultDebounce, "Quiet period before a batch of changes is applied")
}

func runWatch(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	res, report, err := svc.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	log.Info("Loaded %d classes from %s (%d failures)", report.Classes, args[0], len(report.Failures))

	onChange := func(changes []resource.Change) {
		if err := render(cmd, changes); err != nil {
			log.Error("Failed to print changes: %v", err)
		}
		log.Debug("Resource now holds %d classes", res.Len())
	}
	return svc.Watch(cmd.Context(), args[0], res,
		resource.WithDebounce(watchDebounce),
		resource.WithOnChange(onChange),
	)
}
