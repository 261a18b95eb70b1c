package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inkfell/redline/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <document>",
	Short: "Check a document's structure",
	Long: `Check that the document opens, has its required parts and well-formed
XML. Errors fail validation; warnings point at dangling references and
suspect media without failing it.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var checks validate.Check
		if redlineFlags.checkRefs {
			checks |= validate.CheckOverrideTargets | validate.CheckRelationshipTargets
		}
		if redlineFlags.checkMedia {
			checks |= validate.CheckMedia
		}
		res, _ := newEditor(args[0]).Checks(checks).Validate()
		writeResult(res, res.Success)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&redlineFlags.checkRefs, "check-relationships", true,
		"warn when relationship or content type references point at missing parts")
	validateCmd.Flags().BoolVar(&redlineFlags.checkMedia, "check-media", true,
		"warn when embedded raster media does not decode")
	rootCmd.AddCommand(validateCmd)
}
