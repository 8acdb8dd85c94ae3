package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/assessor-cli/internal/model"
	"github.com/sells-group/assessor-cli/internal/reconcile"
)

var (
	reconcileFinalize bool
	reconcileApply    bool
	reconcileUser     string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Sales reconciliation",
}

var reconcileRunCmd = &cobra.Command{
	Use:   "run <analysis-id>",
	Short: "Compute the weighted value conclusion for an analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := reconcile.Options{
			Finalize:        reconcileFinalize,
			ApplyToProperty: reconcileApply,
		}
		if reconcileUser != "" {
			opts.UserID = &reconcileUser
		}

		engine := reconcile.NewEngine(env.Store, env.Updater)
		result, err := engine.Reconcile(ctx, args[0], opts)
		if err != nil {
			return err
		}

		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

var reconcileIncludeCmd = &cobra.Command{
	Use:   "set-entry <entry-id>",
	Short: "Adjust weight, inclusion, or value override on an analysis entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		patch := map[string]any{}
		if cmd.Flags().Changed("weight") {
			w, _ := cmd.Flags().GetString("weight")
			patch["weight"] = w
		}
		if cmd.Flags().Changed("include") {
			inc, _ := cmd.Flags().GetBool("include")
			patch["include_in_final_value"] = inc
		}
		if cmd.Flags().Changed("adjusted-value") {
			v, _ := cmd.Flags().GetString("adjusted-value")
			if v == "" {
				patch["adjusted_value"] = nil
			} else {
				patch["adjusted_value"] = v
			}
		}

		var userID *string
		if reconcileUser != "" {
			userID = &reconcileUser
		}
		entry, written, err := env.Updater.UpdateAnalysisEntry(ctx, args[0], patch, model.SourceManual, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d field(s) changed\n", len(written))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	},
}

func init() {
	reconcileRunCmd.Flags().BoolVar(&reconcileFinalize, "finalize", false, "mark the analysis final on success")
	reconcileRunCmd.Flags().BoolVar(&reconcileApply, "apply-to-property", false, "write the conclusion onto the subject property's current value")

	reconcileIncludeCmd.Flags().String("weight", "", "entry weight (decimal string)")
	reconcileIncludeCmd.Flags().Bool("include", true, "include entry in the final value")
	reconcileIncludeCmd.Flags().String("adjusted-value", "", "analyst value override (empty clears)")

	reconcileCmd.PersistentFlags().StringVar(&reconcileUser, "user", "", "acting user id for the audit trail")
	reconcileCmd.AddCommand(reconcileRunCmd)
	reconcileCmd.AddCommand(reconcileIncludeCmd)
	rootCmd.AddCommand(reconcileCmd)
}
