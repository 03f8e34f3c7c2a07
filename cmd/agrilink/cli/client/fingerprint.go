package client

import (
	"fmt"
	"os"

	"github.com/mwantia/agrilink/pkg/fingerprint"
	"github.com/spf13/cobra"
)

func NewFingerprintCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingerprint <file>...",
		Short: "Print content fingerprints",
		Long:  "Print the SHA-256 content fingerprint used to detect changed uploads, one line per file.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}

				digest, _, err := fingerprint.SumReader(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", digest, path)
			}
			return nil
		},
	}

	return cmd
}
