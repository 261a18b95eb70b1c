package cmd

import "github.com/spf13/cobra"

var suggestDeletionCmd = &cobra.Command{
	Use:   "suggest-deletion <document>",
	Short: "Mark a paragraph's text as a tracked deletion",
	Long: `Mark the text of the paragraph at --location as a tracked deletion. The
text stays visible, struck through, until the change is accepted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, _ := newEditor(args[0]).SuggestDeletion(redlineFlags.location)
		writeResult(res, res.Success)
	},
}

func init() {
	requireFlags(suggestDeletionCmd,
		addLocationFlag(suggestDeletionCmd),
	)
	rootCmd.AddCommand(suggestDeletionCmd)
}
