package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mozilla/circleci-to-gha/internal/services/render"
)

// infraPRFile is where the generated PR body is saved
const infraPRFile = "infra-pr-content.md"

func newInfraPRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infra-pr <repo-name>",
		Short: "Generate the infrastructure PR content for GAR access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := render.InfraPRBody(args[0])
			fmt.Println(body)

			if err := os.WriteFile(infraPRFile, []byte(body), 0644); err != nil {
				return fmt.Errorf("failed to save PR content: %w", err)
			}
			logger.Info().Str("file", infraPRFile).Msg("PR content saved")
			return nil
		},
	}
	return cmd
}
