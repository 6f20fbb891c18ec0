package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/attio/bootstrap"
	"github.com/artpar/attio/config"
	"github.com/artpar/attio/domain/record"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and schema",
	Long: `Validate the attio configuration file.

Checks:
  - YAML syntax is valid
  - Required settings are present
  - Every configured object and list resolves
  - The API accepts the token (optional)

Examples:
  attio validate
  attio validate --config ~/.config/attio.yaml --check-api`,
	RunE: runValidate,
}

var validateCheckAPI bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckAPI, "check-api", false, "query one record to check the API is reachable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	var cfg *config.Config
	var err error
	if _, statErr := os.Stat(cfgFile); statErr == nil {
		fmt.Fprintf(out, "  %s Config file exists\n", checkMark)
		cfg, err = config.Load(cfgFile)
	} else {
		fmt.Fprintf(out, "  %s Config file not found, using environment\n", checkMark)
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	a, err := bootstrap.New(cfg, bootstrap.Options{LogOutput: io.Discard})
	if err != nil {
		fmt.Fprintf(out, "  %s Schema resolves\n", crossMark)
		return err
	}
	fmt.Fprintf(out, "  %s Schema resolves\n", checkMark)

	fmt.Fprintf(out, "  %s API: %s\n", checkMark, cfg.API.BaseURL)
	fmt.Fprintf(out, "  %s Objects: %v\n", checkMark, a.Client.Objects())
	fmt.Fprintf(out, "  %s Lists: %v\n", checkMark, a.Client.Lists())
	retries := "disabled"
	if cfg.API.Retries() {
		retries = fmt.Sprintf("up to %d", cfg.API.MaxRetries)
	}
	fmt.Fprintf(out, "  %s Rate limit retries: %s\n", checkMark, retries)

	if validateCheckAPI {
		if err := checkAPI(cmd.Context(), a); err != nil {
			fmt.Fprintf(out, "  %s API reachable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s API reachable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

// checkAPI lists a single record of the first configured object.
func checkAPI(ctx context.Context, a *bootstrap.App) error {
	objects := a.Client.Objects()
	if len(objects) == 0 {
		return fmt.Errorf("no objects configured")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	svc, err := a.Client.Object(objects[0])
	if err != nil {
		return err
	}
	_, err = svc.List(ctx, &record.ListParams{Limit: 1})
	return err
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
