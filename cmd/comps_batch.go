package main

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/assessor-cli/internal/comps"
	"github.com/sells-group/assessor-cli/internal/model"
)

var (
	batchSubjects    string
	batchCount       int
	batchConcurrency int
)

var compsBatchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run discovery for several subject parcels concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		subjects := strings.Split(batchSubjects, ",")
		engine := comps.NewEngine(env.Store)

		results := make(map[string][]model.ComparableCandidate, len(subjects))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)
		for _, subject := range subjects {
			subject := strings.TrimSpace(subject)
			if subject == "" {
				continue
			}
			g.Go(func() error {
				candidates, err := engine.FindComparables(gctx, subject, batchCount)
				if err != nil {
					return err
				}
				mu.Lock()
				results[subject] = candidates
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("comps: batch discovery complete", zap.Int("subjects", len(results)))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	f := compsBatchCmd.Flags()
	f.StringVar(&batchSubjects, "subjects", "", "comma-separated subject property ids")
	f.IntVar(&batchCount, "count", 5, "maximum candidates per subject")
	f.IntVar(&batchConcurrency, "concurrency", 4, "concurrent discovery runs")
	_ = compsBatchCmd.MarkFlagRequired("subjects")
	compsCmd.AddCommand(compsBatchCmd)
}
