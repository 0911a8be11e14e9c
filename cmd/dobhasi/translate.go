package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/ZaguanLabs/dobhasi/processor"
	"github.com/spf13/cobra"
)

// parseOverride turns the --lang flag into a translate override.
func parseOverride(code string) ([]dobhasi.Language, error) {
	if code == "" {
		return nil, nil
	}
	lang, ok := dobhasi.ParseLanguage(code)
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (want en or bn)", code)
	}
	return []dobhasi.Language{lang}, nil
}

// readInput reads the named file, or stdin for "" and "-".
func readInput(cmd *cobra.Command, path string) ([]byte, string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, "", fmt.Errorf("reading stdin: %w", err)
		}
		return data, "stdin", nil
	}

	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, filepath.Base(path), nil
}

func newTranslateCmd(opts *rootOptions) *cobra.Command {
	var (
		langCode   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Translate strings into the active language",
		Long: `Translate each argument (or each line of stdin when no arguments are
given) into the active language, or into --lang. All strings go to the
backend in a single batch; cached strings are not sent again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			override, err := parseOverride(langCode)
			if err != nil {
				return err
			}

			texts := args
			if len(texts) == 0 {
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					texts = append(texts, scanner.Text())
				}
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
			}

			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			translated := a.translator.TranslateBatch(cmd.Context(), texts, override...)

			if jsonOutput {
				enc := json.NewEncoder(opts.stdout)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(translated)
			}

			for _, t := range translated {
				fmt.Fprintln(opts.stdout, t)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&langCode, "lang", "l", "", "Target language, overriding the active one (en or bn)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output a JSON array")

	return cmd
}

func newRecordsCmd(opts *rootOptions) *cobra.Command {
	var (
		langCode string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "records [file]",
		Short: "Translate fields of JSON records",
		Long: `Read a JSON array of objects from file (or stdin) and translate the
string values of --fields across all records in one batch. Other keys, and
fields that are missing, null or empty, are written back unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(fields) == 0 {
				return fmt.Errorf("--fields is required")
			}
			override, err := parseOverride(langCode)
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			data, _, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			var items []map[string]any
			dec := json.NewDecoder(strings.NewReader(string(data)))
			dec.UseNumber()
			if err := dec.Decode(&items); err != nil {
				return fmt.Errorf("decoding records: %w", err)
			}

			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			out := dobhasi.TranslateRecords(cmd.Context(), a.translator, items, fields, override...)

			enc := json.NewEncoder(opts.stdout)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&langCode, "lang", "l", "", "Target language, overriding the active one (en or bn)")
	cmd.Flags().StringSliceVarP(&fields, "fields", "f", nil, "Comma-separated field names to translate")

	return cmd
}

func newHTMLCmd(opts *rootOptions) *cobra.Command {
	var (
		langCode string
		output   string
		dryRun   bool
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "html [file]",
		Short: "Translate the text of an HTML fragment",
		Long: `Translate the text nodes of an HTML fragment read from file (or stdin).
Markup, <script>, <style>, <code>, <pre>, <textarea> and data-no-translate
subtrees are left as they are.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			override, err := parseOverride(langCode)
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			data, name, err := readInput(cmd, path)
			if err != nil {
				return err
			}

			proc := processor.NewHTMLProcessor()

			if dryRun {
				return runDryRun(opts.stdout, proc, string(data), name)
			}

			a, err := newApp(cmd.Context(), opts, true)
			if err != nil {
				return err
			}
			defer a.Close()

			target := a.translator.Language()
			if len(override) > 0 {
				target = override[0]
			}
			if !quiet {
				fmt.Fprintf(opts.stderr, "Translating %s to %s...\n", name, target.Name())
			}

			start := time.Now()
			result, err := proc.Translate(cmd.Context(), a.translator, string(data), override...)
			if err != nil {
				return fmt.Errorf("translation failed: %w", err)
			}

			var out io.Writer = opts.stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}
			fmt.Fprint(out, result)

			if !quiet {
				stats := a.gateway.Stats()
				fmt.Fprintf(opts.stderr, "\nDone in %v\n", time.Since(start).Round(time.Millisecond))
				fmt.Fprintf(opts.stderr, "  From cache:   %d\n", stats.CacheHits)
				fmt.Fprintf(opts.stderr, "  Translated:   %d\n", stats.CacheMisses)
				fmt.Fprintf(opts.stderr, "  Failed calls: %d\n", stats.Failures)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&langCode, "lang", "l", "", "Target language, overriding the active one (en or bn)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the text that would be translated without calling the backend")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")

	return cmd
}

// runDryRun shows what would be translated without calling the backend.
func runDryRun(w io.Writer, proc *processor.HTMLProcessor, input, name string) error {
	_, nodes, err := proc.Extract(input)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}

	fmt.Fprintf(w, "Dry run: %s\n", name)
	fmt.Fprintf(w, "Found %d translatable text nodes:\n\n", len(nodes))

	for i, node := range nodes {
		text := node.Text
		if len([]rune(text)) > 60 {
			text = string([]rune(text)[:57]) + "..."
		}
		fmt.Fprintf(w, "%3d. %q\n", i+1, text)
		if node.ParentTag != "" {
			fmt.Fprintf(w, "     In: <%s>\n", node.ParentTag)
		}
	}

	return nil
}
