package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyForce bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Runs an integrity check on the collection database",
	RunE: func(cmd *cobra.Command, args []string) error {
		problems, err := app.maint.RunIntegrityCheck(cmd.Context(), verifyForce)
		if err != nil {
			return err
		}
		defer app.manager.Close(cmd.Context(), false, "verify")

		if len(problems) > 0 {
			fmt.Printf("Integrity check found %d problem(s):\n", len(problems))
			for _, p := range problems {
				fmt.Printf("  %s\n", p)
			}
			return fmt.Errorf("collection database failed integrity check")
		}

		fmt.Println("Integrity check passed")
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyForce, "force", false, "run even when free space is low")
	rootCmd.AddCommand(verifyCmd)
}
