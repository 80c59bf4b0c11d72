// Package main provides the entry point for the mediacrawler CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mediacrawler",
	Short: "Event-driven social media crawler",
	Long:  "mediacrawler discovers and collects social media content about a described real-world event, using a language model to derive search keywords and filter noisy results across weibo, bilibili and zhihu.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
