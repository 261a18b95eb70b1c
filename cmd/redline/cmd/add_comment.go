package cmd

import "github.com/spf13/cobra"

var addCommentCmd = &cobra.Command{
	Use:   "add-comment <document>",
	Short: "Anchor a comment to a paragraph",
	Long: `Anchor a comment to the paragraph at --location. The comment carries the
configured author, initials and a timestamp, and shows up in the
document's review pane.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, _ := newEditor(args[0]).AddComment(redlineFlags.location, redlineFlags.text)
		writeResult(res, res.Success)
	},
}

func init() {
	requireFlags(addCommentCmd,
		addLocationFlag(addCommentCmd),
		addTextFlag(addCommentCmd),
	)
	rootCmd.AddCommand(addCommentCmd)
}
