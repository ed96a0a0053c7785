package main

import (
	"github.com/spf13/cobra"

	"github.com/rtg123uk/storyai/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := database.Migrate(cfg.Database.DSN(), log); err != nil {
			return err
		}
		cmd.Println(successStyle.Render("Database is up to date (" + cfg.Database.Host + "/" + cfg.Database.Name + ")"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
