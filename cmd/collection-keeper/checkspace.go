package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var checkSpaceCmd = &cobra.Command{
	Use:   "check-space",
	Short: "Checks whether the collection volume has enough free space",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := app.maint.CheckSpace()
		if err != nil {
			return err
		}

		if result.Measured {
			fmt.Printf("Required: %s\n", humanize.Bytes(result.RequiredBytes))
			fmt.Printf("Free:     %s\n", humanize.Bytes(result.FreeBytes))
		}

		if result.ShouldWarn() {
			fmt.Printf("Warning: %s\n", result.WarningText())
			return nil
		}

		fmt.Println("Sufficient free space available")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkSpaceCmd)
}
