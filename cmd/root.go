// Package cmd wires the storeforge command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "storeforge",
	Short: "Storeforge - conversational storefront builder",
	Long: `Storeforge turns a chat conversation into a sellable storefront.
Users describe their brand, products, and styling in natural language;
the engine extracts structured updates and builds the store step by step.

Run "storeforge serve" to start the HTTP API server.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
