package cmd

import (
	"os"

	"github.com/huangsam/perftimeline/internal/outwriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// milestonesCmd prints the milestone table used to tag records.
var milestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Print the optimization milestones used for tagging",
	Long: `Print every optimization milestone with its effective key (YYYYMMDDHHMM).

A record is tagged with every milestone whose key is at or before the record's minute.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return outwriter.PrintMilestones(os.Stdout, cfg.Milestones, viper.GetBool("markdown"))
	},
}
