package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/remotehunt/jobscope/pkg/storage"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the latest run's stored job listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, _ := cmd.Flags().GetString("origin")
		search, _ := cmd.Flags().GetString("search")

		db, err := storage.Open(viper.GetString("db"))
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := db.LatestRun(cmd.Context())
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("no runs stored yet, try 'jobscope run'")
			return nil
		}

		listings, err := db.ListListings(cmd.Context(), storage.ListOptions{
			RunID:  rec.RunID,
			Origin: origin,
			Search: search,
		})
		if err != nil {
			return err
		}

		for _, l := range listings {
			fmt.Printf("%-18s %s\n%19s%s\n", l.Origin, l.Title, "", l.Link)
		}
		fmt.Printf("%d listings (run %s, %s/%s)\n", len(listings), rec.RunID, rec.Technology, rec.Level)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().String("origin", "", "Only listings from this platform (e.g. \"Lever\")")
	jobsCmd.Flags().String("search", "", "Substring match on title or snippet")
}
