package main

import (
	"fmt"
	"os"

	"github.com/deckhaven/collection-keeper/internal/logger"
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
