package cmd

import "github.com/spf13/cobra"

var readCmd = &cobra.Command{
	Use:   "read <document>",
	Short: "Print the document's paragraphs with their locations",
	Long: `Print the document's visible paragraphs. Each entry pairs the text with
the paragraph index the editing subcommands take as --location.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		res, _ := newEditor(args[0]).Read()
		writeResult(res, res.Success)
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}
