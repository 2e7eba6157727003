package cmd

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/remotehunt/jobscope/internal/utils"
	"github.com/remotehunt/jobscope/pkg/jobs"
	"github.com/remotehunt/jobscope/pkg/scrape"
	"github.com/remotehunt/jobscope/pkg/serper"
	"github.com/remotehunt/jobscope/pkg/storage"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a full scrape across all nine platforms and export a CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		technology, _ := cmd.Flags().GetString("technology")
		level, _ := cmd.Flags().GetString("level")
		outputDir, _ := cmd.Flags().GetString("output")
		targetMin, _ := cmd.Flags().GetInt("target-min")
		if outputDir == "" {
			outputDir = viper.GetString("output")
		}

		client := serper.NewClient(serperAPIKey())
		cfg := scrape.DefaultFetchConfig()
		if targetMin > 0 {
			cfg.TargetMin = targetMin
		}

		export := func(results []jobs.Listing) (string, error) {
			return storage.SaveResultsToCSV(results, outputDir, technology, level)
		}

		startedAt := time.Now().UTC()
		results, counts, err := scrape.RunFullScrape(cmd.Context(), client, technology, level, cfg, export, logEvents)
		if err != nil {
			return err
		}

		if dbPath := viper.GetString("db"); dbPath != "" {
			if err := persistRun(cmd.Context(), dbPath, technology, level, startedAt, results); err != nil {
				utils.Log.Warnf("could not persist run: %v", err)
			}
		}

		origins := make([]string, 0, len(counts))
		for o := range counts {
			origins = append(origins, o)
		}
		sort.Strings(origins)
		for _, o := range origins {
			utils.Log.Infof("%-18s %d", o, counts[o])
		}
		utils.Log.Infof("total: %d listings", len(results))
		return nil
	},
}

// logEvents narrates run progress on the log instead of an event stream.
func logEvents(ev scrape.Event) {
	switch ev.Type {
	case scrape.EventComplete:
		utils.Log.Infof("done: %d jobs, exported to %s", ev.TotalJobs, ev.File)
	case scrape.EventError:
		utils.Log.Warnf("error: %s", ev.Message)
	}
}

func persistRun(ctx context.Context, dbPath, technology, level string, startedAt time.Time, results []jobs.Listing) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.SaveRun(ctx, storage.RunRecord{
		RunID:      "cli-" + strconv.FormatInt(startedAt.UnixNano(), 36),
		Technology: technology,
		Level:      level,
		TotalJobs:  len(results),
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
	}, results)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("technology", "t", "php", "Technology preset key (see 'jobscope queries')")
	runCmd.Flags().StringP("level", "L", "any", "Seniority level preset key")
	runCmd.Flags().StringP("output", "o", "", "Output directory for CSV exports")
	runCmd.Flags().Int("target-min", 0, "Unique listings to collect per platform before moving on")
}
