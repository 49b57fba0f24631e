package cmd

import (
	"github.com/spf13/cobra"

	"github.com/classmeta/internal/formatter"
	"github.com/classmeta/internal/resource"
	"github.com/classmeta/internal/statistics"
	"github.com/classmeta/pkg/config"
	"github.com/classmeta/pkg/filter"
	"github.com/classmeta/pkg/writer"
)

var (
	// Scan command flags
	scanInclude    []string
	scanExclude    []string
	scanSkipJDK    bool
	scanWorkers    int
	scanKeepFiles  bool
	scanNested     bool
	scanOutput     string
	scanUploadKey  string
	scanTopN       int
	scanBusiness   []string
	scanShowTiming bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <source>",
	Short: "Load a class source and summarize it",
	Long: `Load every class from a directory, a .class file, a jar/zip/war/ear archive
or a storage:// key and print a load report with class statistics.

Entries that fail to parse are listed in the report and do not stop the
scan. When several entries define the same class the last one wins.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	binName := BinName()
	scanCmd.Example = `  # Summarize a jar
  ` + binName + ` scan ./app.jar

  # Only com/acme classes, including classes of nested jars
  ` + binName + ` scan ./app.war --include 'com/acme/**' --nested

  # Save the summary and upload a gzipped copy to object storage
  ` + binName + ` scan storage://builds/app.jar -o summary.json --upload-report reports/app.json.gz`

	scanCmd.Flags().StringSliceVar(&scanInclude, "include", nil, "Keep only classes matching these globs (internal names, e.g. com/acme/**)")
	scanCmd.Flags().StringSliceVar(&scanExclude, "exclude", nil, "Drop classes matching these globs")
	scanCmd.Flags().BoolVar(&scanSkipJDK, "skip-jdk", false, "Drop java/, javax/, jdk/ and sun/ classes")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0, "Parse workers (0 uses the config value)")
	scanCmd.Flags().BoolVar(&scanKeepFiles, "keep-files", false, "Keep non-class entries in the resource")
	scanCmd.Flags().BoolVar(&scanNested, "nested", false, "Descend into archives found inside directories")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Also write the summary as JSON to this file")
	scanCmd.Flags().StringVar(&scanUploadKey, "upload-report", "", "Upload the summary as gzipped JSON under this storage key")
	scanCmd.Flags().IntVarP(&scanTopN, "top", "n", 15, "Number of packages to list (0 lists all)")
	scanCmd.Flags().StringSliceVar(&scanBusiness, "business", nil, "Package prefixes counted as business classes")
	scanCmd.Flags().BoolVar(&scanShowTiming, "timing", false, "Log per-phase timings")
}

// applyWorkspaceFlags overrides the workspace section with scan flags.
func applyWorkspaceFlags(cfg *config.Config) {
	if len(scanInclude) > 0 {
		cfg.Workspace.Include = scanInclude
	}
	if len(scanExclude) > 0 {
		cfg.Workspace.Exclude = append(cfg.Workspace.Exclude, scanExclude...)
	}
	if scanSkipJDK {
		cfg.Workspace.SkipJDK = true
	}
	if scanWorkers > 0 {
		cfg.Workspace.MaxWorker = scanWorkers
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	if appConfig != nil {
		applyWorkspaceFlags(appConfig)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	res, report, err := svc.Load(cmd.Context(), args[0],
		resource.WithKeepFiles(scanKeepFiles),
		resource.WithNestedArchives(scanNested),
		resource.WithTimings(scanShowTiming),
	)
	if err != nil {
		return err
	}
	if report.HasFailures() {
		log.Warn("%d entries could not be parsed", len(report.Failures))
	}

	classifier, err := filter.New(filter.Options{BusinessPrefixes: scanBusiness})
	if err != nil {
		return err
	}
	calc := statistics.NewCalculator(statistics.WithTopN(scanTopN), statistics.WithClassifier(classifier))
	summary := &formatter.ScanSummary{
		Report: report,
		Stats:  calc.Calculate(res.Classes()),
	}

	if scanUploadKey != "" {
		url, err := svc.UploadReport(cmd.Context(), scanUploadKey, summary)
		if err != nil {
			return err
		}
		summary.ReportURL = url
	}

	if scanOutput != "" {
		if err := writer.NewPrettyJSONWriter[*formatter.ScanSummary]().WriteToFile(summary, scanOutput); err != nil {
			return err
		}
		log.Info("Summary written to %s", scanOutput)
	}

	return render(cmd, summary)
}
