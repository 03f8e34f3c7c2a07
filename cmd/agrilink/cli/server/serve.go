package server

import (
	"context"
	"fmt"

	"github.com/mwantia/agrilink/internal/agent"
	"github.com/spf13/cobra"

	config "github.com/mwantia/agrilink/internal/config/server"
)

func NewServeCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Agrilink HTTP agent",
		Long: `Start the Agrilink HTTP agent.

Opens the configured metadata and blob stores, applies pending migrations
and serves the API until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			return agent.NewAgent(cfg, version).Serve(context.Background())
		},
	}

	return cmd
}
