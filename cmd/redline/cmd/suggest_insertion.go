package cmd

import "github.com/spf13/cobra"

var suggestInsertionCmd = &cobra.Command{
	Use:   "suggest-insertion <document>",
	Short: "Append text to a paragraph as a tracked insertion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, _ := newEditor(args[0]).SuggestInsertion(redlineFlags.location, redlineFlags.text)
		writeResult(res, res.Success)
	},
}

func init() {
	requireFlags(suggestInsertionCmd,
		addLocationFlag(suggestInsertionCmd),
		addTextFlag(suggestInsertionCmd),
	)
	rootCmd.AddCommand(suggestInsertionCmd)
}
