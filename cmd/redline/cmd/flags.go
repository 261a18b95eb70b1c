package cmd

import "github.com/spf13/cobra"

type flagsT struct {
	author     string
	initials   string
	logLevel   string
	location   int
	text       string
	checkRefs  bool
	checkMedia bool
}

var redlineFlags flagsT

func addLocationFlag(cmd *cobra.Command) string {
	const name = "location"
	cmd.Flags().IntVar(&redlineFlags.location, name, 0,
		"paragraph index, as reported by the read subcommand")
	return name
}

func addTextFlag(cmd *cobra.Command) string {
	const name = "text"
	cmd.Flags().StringVar(&redlineFlags.text, name, "", "text for the operation")
	return name
}

func requireFlags(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			logFatalln(err)
		}
	}
}
