package main

import (
	"fmt"
	"time"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/ZaguanLabs/dobhasi/cache"
	"github.com/spf13/cobra"
)

// retainAll is a TTL long enough to read every stored entry, expired or not.
const retainAll = 100 * 365 * 24 * time.Hour

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the translation cache",
	}

	cmd.AddCommand(
		newCacheStatsCmd(opts),
		newCachePruneCmd(opts),
		newCacheExportCmd(opts),
		newCacheImportCmd(opts),
	)
	return cmd
}

func newCacheStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show live and expired entries per language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			all := cache.NewTranslationCache(a.store, cache.WithTTL(retainAll))
			all.Load(cmd.Context())

			live := a.cache.Snapshot()
			stored := all.Snapshot()

			fmt.Fprintf(opts.stdout, "Store:    %s\n", a.cfg.Cache.Store)
			fmt.Fprintf(opts.stdout, "Key:      %s\n", a.cache.Key())
			fmt.Fprintf(opts.stdout, "TTL:      %v\n", a.cache.TTL())
			fmt.Fprintf(opts.stdout, "Language: %s\n", a.translator.Language())
			fmt.Fprintln(opts.stdout)

			for _, lang := range all.Languages() {
				fmt.Fprintf(opts.stdout, "  %-4s %6d live  %6d expired\n",
					lang, len(live[lang]), len(stored[lang])-len(live[lang]))
			}
			fmt.Fprintf(opts.stdout, "\nTotal: %d live entries\n", a.cache.Len())
			return nil
		},
	}
}

func newCachePruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired entries from the stored cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			all := cache.NewTranslationCache(a.store, cache.WithTTL(retainAll))
			all.Load(cmd.Context())
			before := all.Len()

			// Save rewrites the blob without expired entries.
			if err := a.cache.Save(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(opts.stdout, "Removed %d expired entries, kept %d\n", before-a.cache.Len(), a.cache.Len())
			return nil
		},
	}
}

func newCacheExportCmd(opts *rootOptions) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write live cache entries to a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			metadata := map[string]string{
				"exporter": dobhasi.UserAgent(),
				"store":    a.cfg.Cache.Store,
			}
			if note != "" {
				metadata["note"] = note
			}

			if err := cache.NewExporter(a.cache).ExportToFile(args[0], metadata); err != nil {
				return fmt.Errorf("exporting cache: %w", err)
			}

			fmt.Fprintf(opts.stdout, "Exported %d entries to %s\n", a.cache.Len(), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Free-form note stored in the export metadata")
	return cmd
}

func newCacheImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge entries from a JSON or YAML export into the cache",
		Long: `Merge entries from an export file into the cache. An entry replaces a
cached one only when it is newer; expired entries are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), opts, false)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := cache.NewImporter(a.cache).ImportFromFile(args[0])
			if err != nil {
				return fmt.Errorf("importing cache: %w", err)
			}
			if err := a.cache.Save(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(opts.stdout, "Imported %d entries, skipped %d (export version %s)\n",
				result.Imported, result.Skipped, result.Version)
			return nil
		},
	}
}
