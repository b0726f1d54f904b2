package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/deckhaven/collection-keeper/internal/service/collection"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Shows the collection location, size and schema status",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := app.manager.CollectionPath()
		if err != nil {
			return err
		}

		fmt.Printf("Collection path: %s\n", path)
		fmt.Printf("Directory accessible: %v\n", app.manager.BaseDirAccessible())

		if !app.fs.FileExists(path) {
			fmt.Println("Collection file: not created yet")
			return nil
		}

		if size := app.manager.CollectionSize(); size != nil {
			fmt.Printf("Collection size: %s\n", humanize.Bytes(*size))
		} else {
			fmt.Println("Collection size: unknown")
		}

		ver, status := app.manager.DatabaseVersion(cmd.Context())
		if status == collection.VersionUnknown {
			fmt.Println("Schema version: unknown")
		} else {
			fmt.Printf("Schema version: %d (%s)\n", ver, status)
		}

		store, failure := app.manager.OpenSafe(cmd.Context())
		if store == nil {
			fmt.Printf("Open status: failed (%s)\n", failure)
			return nil
		}
		defer app.manager.Close(cmd.Context(), false, "info")

		fmt.Println("Open status: ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
