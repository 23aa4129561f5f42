package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keywordforge/kwforge/internal/api"
)

// newResetCmd creates the 'reset' command.
func newResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a project's upload and processing state",
		Long: `Clear the upload and processing state for a project on the dashboard.

The project returns to idle: queued and partially processed uploads are
discarded server-side. Already persisted keyword data is not touched.
Prompts for confirmation unless --yes is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := requireProject(cfg); err != nil {
				return err
			}

			if !yes {
				ok, err := confirmReset(cfg.ProjectID)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Aborted.")
					return nil
				}
			}

			client, err := newAPIClient(cfg)
			if err != nil {
				return err
			}

			if err := client.ResetProject(GetContext(), cfg.ProjectID); err != nil {
				if api.IsNotFound(err) {
					return fmt.Errorf("project %s not found", cfg.ProjectID)
				}
				return fmt.Errorf("reset failed: %w", err)
			}

			log.Info().Str("project", cfg.ProjectID).Msg("Upload state reset")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

// confirmReset asks the user to confirm the reset.
func confirmReset(projectID string) (bool, error) {
	fmt.Printf("This discards in-flight uploads and processing state for project %s.\n", projectID)
	fmt.Print("Continue? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes", nil
}
