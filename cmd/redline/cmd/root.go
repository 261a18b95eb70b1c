// Package cmd implements the redline command line interface. Every
// subcommand prints a single JSON result to stdout and exits non-zero
// when the operation did not succeed, so the tool composes with shell
// pipelines and wrappers that only parse one document.
package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inkfell/redline"
	"github.com/inkfell/redline/internal/dlog"
	"github.com/inkfell/redline/wordml"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "redline",
	Short: "redline reviews Word documents without opening Word",
	Long: `redline adds comments and tracked changes to Word documents and reads
them back, entirely from the command line.

Every subcommand takes the document path as its only argument, prints a
JSON result to stdout and keeps logs on stderr. Paragraph locations come
from the read subcommand, whose output lists each paragraph with the
index the editing subcommands accept.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		osExit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&redlineFlags.author, "author",
		wordml.DefaultAuthor, "name recorded on comments and tracked changes")
	rootCmd.PersistentFlags().StringVar(&redlineFlags.initials, "initials",
		"", "initials recorded on comments, derived from the author when unset")
	rootCmd.PersistentFlags().StringVar(&redlineFlags.logLevel, "log-level",
		dlog.LevelNone, "log level (none, info, debug)")

	_ = viper.BindPFlag("author", rootCmd.PersistentFlags().Lookup("author"))
	_ = viper.BindPFlag("initials", rootCmd.PersistentFlags().Lookup("initials"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfg := os.Getenv("REDLINE_CONFIG"); cfg != "" {
		// Use config file from the environment.
		viper.SetConfigFile(cfg)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.redline")
		viper.SetConfigName("redline")
	}

	viper.SetEnvPrefix("redline")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// newEditor builds the editor every subcommand starts from, with
// attribution and logging resolved from flags and environment.
func newEditor(path string) *redline.Editor {
	ed := redline.Open(path).
		Author(viper.GetString("author")).
		Logger(mustLogger())
	if initials := viper.GetString("initials"); initials != "" {
		ed = ed.Initials(initials)
	}
	return ed
}

func mustLogger() *zap.Logger {
	l, err := dlog.New(viper.GetString("log_level"))
	if err != nil {
		logFatalln(err)
		return zap.NewNop()
	}
	return l
}
