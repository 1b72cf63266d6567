package main

import (
	"github.com/spf13/cobra"

	pghttp "github.com/awantoch/promptgate/http"
	"github.com/awantoch/promptgate/utils"
)

// newRulebookCmd creates the 'rulebook' subcommand, which fetches the
// rulebook through the same cache the server uses and prints it.
func newRulebookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rulebook",
		Short: "Fetch and print the current rulebook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			deps, cleanup, err := pghttp.InitializeDependencies(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			content, err := deps.Cache.Get(cmd.Context())
			if err != nil {
				return err
			}
			utils.User("%s", content)
			return nil
		},
	}
}
