package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/assessor-cli/internal/comps"
)

var compsCount int

var compsCmd = &cobra.Command{
	Use:   "comps",
	Short: "Comparable property discovery",
}

var compsFindCmd = &cobra.Command{
	Use:   "find <property-id>",
	Short: "Find comparable properties for a subject parcel",
	Long: `Scores every other parcel against the subject by property type,
square footage, bedroom count, and bathroom count, and prints the
best matches in ranked order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		count := compsCount
		if count == 0 {
			count = cfg.Discovery.DefaultCount
		}

		engine := comps.NewEngine(env.Store)
		candidates, err := engine.FindComparables(ctx, args[0], count)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			fmt.Println("no comparables found")
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	},
}

func init() {
	compsFindCmd.Flags().IntVar(&compsCount, "count", 0, "maximum candidates to return (default from config)")
	compsCmd.AddCommand(compsFindCmd)
	rootCmd.AddCommand(compsCmd)
}
