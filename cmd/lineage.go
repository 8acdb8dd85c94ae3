package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/assessor-cli/internal/model"
)

var lineageLimit int

var lineageCmd = &cobra.Command{
	Use:   "lineage",
	Short: "Query the field-level audit trail",
}

var lineageEntityCmd = &cobra.Command{
	Use:   "entity <entity-id> [field-name]",
	Short: "Show changes to an entity, newest first",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var records []model.LineageRecord
		if len(args) == 2 {
			records, err = env.Ledger.ByEntityAndField(ctx, args[0], args[1])
		} else {
			records, err = env.Ledger.ByEntity(ctx, args[0])
		}
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

var lineageUserCmd = &cobra.Command{
	Use:   "user <user-id>",
	Short: "Show changes made by a user, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Ledger.ByUser(ctx, args[0], lineageLimit)
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

var lineageSourceCmd = &cobra.Command{
	Use:   "source <source>",
	Short: "Show changes with a provenance tag (import|manual|api|calculated|validated|correction)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		src := model.ChangeSource(args[0])
		if !model.ValidSource(src) {
			return eris.Errorf("unknown source %q", args[0])
		}
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Ledger.BySource(ctx, src, lineageLimit)
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

var lineageRangeCmd = &cobra.Command{
	Use:   "range <start> <end>",
	Short: "Show changes in a date range (RFC3339), newest first",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		start, err := time.Parse(time.RFC3339, args[0])
		if err != nil {
			return eris.Wrap(err, "parse start")
		}
		end, err := time.Parse(time.RFC3339, args[1])
		if err != nil {
			return eris.Wrap(err, "parse end")
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Ledger.ByDateRange(ctx, start, end, lineageLimit)
		if err != nil {
			return err
		}
		return printRecords(records)
	},
}

func printRecords(records []model.LineageRecord) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func init() {
	lineageCmd.PersistentFlags().IntVar(&lineageLimit, "limit", 100, "maximum records to return")
	lineageCmd.AddCommand(lineageEntityCmd)
	lineageCmd.AddCommand(lineageUserCmd)
	lineageCmd.AddCommand(lineageSourceCmd)
	lineageCmd.AddCommand(lineageRangeCmd)
	rootCmd.AddCommand(lineageCmd)
}
