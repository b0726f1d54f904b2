package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vacuumForce bool

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Backs up and compacts the collection database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.maint.RunVacuum(cmd.Context(), vacuumForce); err != nil {
			return err
		}
		defer app.manager.Close(cmd.Context(), false, "vacuum")

		fmt.Println("Vacuum completed")
		return nil
	},
}

func init() {
	vacuumCmd.Flags().BoolVar(&vacuumForce, "force", false, "run even when free space is low")
	rootCmd.AddCommand(vacuumCmd)
}
