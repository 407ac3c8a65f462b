package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozilla/circleci-to-gha/internal/common"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			common.PrintBanner(common.GetVersion())
			fmt.Println(common.GetFullVersion())
		},
	}
}
