package cmd

import (
	"github.com/spf13/cobra"

	"github.com/classmeta/internal/service"
)

var indexBatchSize int

var indexCmd = &cobra.Command{
	Use:   "index <source>",
	Short: "Load a class source and store it in the class index",
	Long: `Load a class source like scan does and save every class, with its
interfaces and members, to the database named in the config file.

Classes are written in batches. A failed batch stops the run; batches
written before it stay in the index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().IntVarP(&indexBatchSize, "batch-size", "b", service.DefaultBatchSize, "Classes saved per transaction")
	indexCmd.Flags().StringSliceVar(&scanInclude, "include", nil, "Keep only classes matching these globs")
	indexCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Drop classes matching these globs")
	indexCmd.Flags().BoolVar(&scanSkipJDK, "skip-jdk", false, "Drop platform classes")
}

func runIndex(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	if appConfig != nil {
		applyWorkspaceFlags(appConfig)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	res, report, err := svc.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if report.HasFailures() {
		log.Warn("%d entries could not be parsed and are not indexed", len(report.Failures))
	}

	result, err := svc.Index(cmd.Context(), res, service.WithBatchSize(indexBatchSize))
	if err != nil {
		return err
	}
	return render(cmd, result)
}
