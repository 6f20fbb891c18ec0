package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/attio/bootstrap"
	"github.com/artpar/attio/config"
	"github.com/artpar/attio/core/formatter"
)

var (
	// Global flags
	cfgFile   string
	outputFmt string
	columns   []string
	noHeader  bool
	maxWidth  int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "attio",
	Short: "Typed command line client for the Attio CRM API",
	Long: `attio reads and writes Attio records and list entries.

Values are validated against the configured schema before any request
is sent. Configuration is read from the --config file, or from ATTIO_*
environment variables when the file does not exist.

Examples:
  attio objects
  attio records list companies --limit 20
  attio records get people 7f1c...
  attio records assert companies --match domains --values '{"domains":["acme.com"],"name":"Acme"}'
  attio entries list pipeline -o json`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "attio.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringSliceVar(&columns, "columns", nil, "fields to print (default: the resource's attributes)")
	rootCmd.PersistentFlags().BoolVar(&noHeader, "no-header", false, "omit the table header")
	rootCmd.PersistentFlags().IntVar(&maxWidth, "max-width", 40, "truncate table cells to this width (0 = no limit)")
}

// loadApp loads configuration and wires a client. Logs go to stderr so
// they never mix with command output.
func loadApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, bootstrap.Options{LogOutput: cmd.ErrOrStderr()})
}

// output resolves the --output formatter and its options.
func output() (formatter.Formatter, formatter.FormatOptions, error) {
	f, err := formatter.Lookup(outputFmt)
	if err != nil {
		return nil, formatter.FormatOptions{}, err
	}
	return f, formatter.FormatOptions{
		Columns:  columns,
		NoHeader: noHeader,
		MaxWidth: maxWidth,
	}, nil
}
