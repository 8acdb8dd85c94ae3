package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/assessor-cli/internal/model"
)

var (
	propertySource string
	propertyUser   string
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Inspect and update parcels",
}

var propertyShowCmd = &cobra.Command{
	Use:   "show <property-id>",
	Short: "Print a parcel and its improvements",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		p, err := env.Store.GetProperty(ctx, args[0])
		if err != nil {
			return err
		}
		imps, err := env.Store.GetImprovementsByProperty(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"property": p, "improvements": imps})
	},
}

var propertySetCmd = &cobra.Command{
	Use:   "set <property-id> <field=value> [field=value...]",
	Short: "Update parcel fields through the mutation tracker",
	Long: `Applies field updates to a parcel. Every changed field produces one
audit-trail record with the given source and user. Values are stored
as strings; unknown field names land in the parcel's extension map.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		src := model.ChangeSource(propertySource)
		if !model.ValidSource(src) {
			return eris.Errorf("unknown source %q", propertySource)
		}

		patch := make(map[string]any, len(args)-1)
		for _, kv := range args[1:] {
			key, val, found := strings.Cut(kv, "=")
			if !found || key == "" {
				return eris.Errorf("malformed field assignment %q (want field=value)", kv)
			}
			patch[key] = val
		}

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var userID *string
		if propertyUser != "" {
			userID = &propertyUser
		}
		p, written, err := env.Updater.UpdateProperty(ctx, args[0], patch, src, userID)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%d field(s) changed\n", len(written))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	},
}

func init() {
	propertySetCmd.Flags().StringVar(&propertySource, "source", "manual", "change source for the audit trail")
	propertySetCmd.Flags().StringVar(&propertyUser, "user", "", "acting user id")
	propertyCmd.AddCommand(propertyShowCmd)
	propertyCmd.AddCommand(propertySetCmd)
	rootCmd.AddCommand(propertyCmd)
}
