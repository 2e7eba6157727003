package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/remotehunt/jobscope/internal/server"
	"github.com/remotehunt/jobscope/internal/utils"
	"github.com/remotehunt/jobscope/pkg/jobs"
	"github.com/remotehunt/jobscope/pkg/scrape"
	"github.com/remotehunt/jobscope/pkg/serper"
	"github.com/remotehunt/jobscope/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the jobscope web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		listenAddr, _ := cmd.Flags().GetString("listen")
		outputDir := viper.GetString("output")

		db, err := storage.Open(viper.GetString("db"))
		if err != nil {
			return err
		}
		defer db.Close()

		client := serper.NewClient(serperAPIKey())
		state := scrape.NewState(webRunner(client, db, outputDir))

		return server.New(state, db, client, outputDir).Start(listenAddr)
	},
}

// webRunner adapts RunFullScrape to the state machine: each admitted run
// exports a CSV and lands in the database so /api/jobs survives restarts.
func webRunner(client *serper.Client, db *storage.DB, outputDir string) scrape.RunnerFunc {
	return func(ctx context.Context, run scrape.Run, emit func(scrape.Event)) error {
		var csvFile string
		export := func(results []jobs.Listing) (string, error) {
			path, err := storage.SaveResultsToCSV(results, outputDir, run.Technology, run.Level)
			csvFile = path
			return path, err
		}

		results, _, err := scrape.RunFullScrape(ctx, client, run.Technology, run.Level, scrape.DefaultFetchConfig(), export, emit)
		if err != nil {
			return err
		}

		rec := storage.RunRecord{
			RunID:      run.ID,
			Technology: run.Technology,
			Level:      run.Level,
			TotalJobs:  len(results),
			CSVFile:    csvFile,
			StartedAt:  run.StartedAt,
			FinishedAt: time.Now().UTC(),
		}
		if err := db.SaveRun(ctx, rec, results); err != nil {
			// The CSV already has the data, so a storage hiccup should
			// not fail an otherwise successful run.
			utils.Log.Warnf("could not persist run %s: %v", run.ID, err)
		}
		return nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
}
