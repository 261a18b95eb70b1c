package cmd

import "github.com/spf13/cobra"

var enableTrackingCmd = &cobra.Command{
	Use:   "enable-tracking <document>",
	Short: "Stamp the document with a revision session",
	Long: `Stamp the document with a revision session id so later edits are
attributed. Running it on an already stamped document changes nothing.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, _ := newEditor(args[0]).EnableTracking()
		writeResult(res, res.Success)
	},
}

func init() {
	rootCmd.AddCommand(enableTrackingCmd)
}
