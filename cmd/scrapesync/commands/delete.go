package commands

import (
	"fmt"
	"scrapesync-backend/internal/store"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <users|addresses|credit_cards> <id>",
	Short: "Delete a single record.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := store.ParseKind(args[0])
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[1], err)
		}

		a, err := openApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		msg, err := a.store.Delete(cmd.Context(), kind, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}
