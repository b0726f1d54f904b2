package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Creates the collection directory and an empty collection database",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := app.manager.CollectionPath()
		if err != nil {
			return err
		}

		if app.fs.FileExists(path) {
			fmt.Printf("Collection already exists at %s\n", path)
			return nil
		}

		if err := app.fs.InitDir(filepath.Dir(path)); err != nil {
			return err
		}

		if _, err := app.manager.Open(cmd.Context()); err != nil {
			return err
		}
		if err := app.manager.Close(cmd.Context(), true, "init"); err != nil {
			return err
		}

		fmt.Printf("Created collection at %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
