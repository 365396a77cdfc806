package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veil-io/veil/internal/config"
	"github.com/veil-io/veil/internal/sanitize"
)

var (
	scanRedact   bool
	scanLanguage string
	scanEntities []string
)

var scanCmd = &cobra.Command{
	Use:   "scan [text]",
	Short: "Detect or redact PII in text from an argument or stdin",
	Long: `Scan runs the detection pipeline once, without the HTTP server.

With --redact each stdin line is rewritten with placeholders and printed,
which makes it usable inside log pipelines:

  tail -f app.log | veil scan --redact

Without --redact the detected entities are printed as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVar(&scanRedact, "redact", false, "print redacted text instead of detected entities")
	scanCmd.Flags().StringVar(&scanLanguage, "language", "", "language code (default from config)")
	scanCmd.Flags().StringSliceVar(&scanEntities, "entities", nil, "entity types to detect (default: full catalog)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	language := scanLanguage
	if language == "" {
		language = cfg.DefaultLanguage
	}

	scanner, err := buildScanner(cfg)
	if err != nil {
		return fmt.Errorf("building recognition engine: %w", err)
	}
	svc := sanitize.NewService(scanner, sanitize.NewPlaceholderTable())
	ctx := cmd.Context()

	if len(args) == 1 {
		return scanOne(cmd, svc, args[0], language)
	}

	// Line-oriented stdin mode for pipelines.
	in := bufio.NewScanner(os.Stdin)
	in.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for in.Scan() {
		line := in.Text()
		if scanRedact {
			result, err := svc.Sanitize(ctx, line, language, scanEntities)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.SanitizedText)
			continue
		}
		entities, err := svc.Analyze(ctx, line, language, scanEntities)
		if err != nil {
			return err
		}
		if err := printJSON(cmd, entities); err != nil {
			return err
		}
	}
	return in.Err()
}

func scanOne(cmd *cobra.Command, svc *sanitize.Service, text, language string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text must not be empty")
	}
	if scanRedact {
		result, err := svc.Sanitize(cmd.Context(), text, language, scanEntities)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result.SanitizedText)
		return nil
	}
	entities, err := svc.Analyze(cmd.Context(), text, language, scanEntities)
	if err != nil {
		return err
	}
	return printJSON(cmd, entities)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
