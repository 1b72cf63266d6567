package main

import (
	"github.com/joho/godotenv"

	"github.com/awantoch/promptgate/utils"
)

func main() {
	// Load .env as early as possible!
	_ = godotenv.Load()
	defer utils.Sync()

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		utils.Sync()
		exit(1)
	}
}
