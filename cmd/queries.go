package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remotehunt/jobscope/pkg/ats"
)

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print the search queries a scrape would issue, without running it",
	RunE: func(cmd *cobra.Command, args []string) error {
		technology, _ := cmd.Flags().GetString("technology")
		level, _ := cmd.Flags().GetString("level")

		queries, err := ats.BuildQueries(technology, level)
		if err != nil {
			return err
		}
		for _, q := range queries {
			fmt.Printf("%-18s %s\n", q.Origin, q.Query)
		}
		return nil
	},
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the available technology and level preset keys",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("technologies:", strings.Join(ats.TechnologyKeys(), ", "))
		fmt.Println("levels:      ", strings.Join(ats.LevelKeys(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(queriesCmd)
	rootCmd.AddCommand(presetsCmd)
	queriesCmd.Flags().StringP("technology", "t", "php", "Technology preset key")
	queriesCmd.Flags().StringP("level", "L", "any", "Seniority level preset key")
}
