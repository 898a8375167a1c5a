package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rhinoview/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save the RhinoCompute URL and API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := config.DefaultStore()
		if err != nil {
			return err
		}
		// an empty Compute forces the prompt; the store is only written to
		var c config.Compute
		if err := config.ResolveCompute(&c, nil, config.NewTermPrompter()); err != nil {
			return err
		}
		if err := store.Save(config.Credentials{URL: c.URL, APIKey: c.APIKey}); err != nil {
			return err
		}
		fmt.Printf("saved credentials to %s\n", store.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
