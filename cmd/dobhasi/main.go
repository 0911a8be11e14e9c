// Command dobhasi translates site text between English and Bengali, manages the
// persisted translation cache and serves the hosted translate function.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = dobhasi.Version
	commit    = dobhasi.GitCommit
	buildDate = dobhasi.BuildDate
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Load .env file if it exists
	_ = godotenv.Load()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	viper      *viper.Viper
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{
		viper:  viper.New(),
		stdout: stdout,
		stderr: stderr,
	}

	cmd := &cobra.Command{
		Use:   dobhasi.Name,
		Short: dobhasi.Description,
		Long: `dobhasi translates English site text into Bengali (and Bengali content
into English on request) through an AI backend, with a persisted 24h cache,
one batched call per request and a minimum spacing between calls.

Configuration is read from .dobhasi.yaml in the home or working directory,
a .env file and DOBHASI_* environment variables. Flags override both.`,
		Version:       dobhasi.FullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: .dobhasi.yaml in $HOME or .)")
	flags.String("provider", "", "Translation backend: openai, gemini, function or mock")
	flags.String("model", "", "Model used by the openai and gemini backends")
	flags.String("store", "", "Cache store: memory, file, redis, sqlite or postgres")
	flags.String("cache-path", "", "Cache directory (file) or database file (sqlite)")
	flags.String("env", "", "Environment: development or production")

	bind := map[string]string{
		"provider.name":  "provider",
		"provider.model": "model",
		"cache.store":    "store",
		"cache.path":     "cache-path",
		"environment":    "env",
	}
	for key, flag := range bind {
		_ = opts.viper.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newTranslateCmd(opts),
		newRecordsCmd(opts),
		newHTMLCmd(opts),
		newCacheCmd(opts),
		newLangCmd(opts),
		newServeCmd(opts),
		newVersionCmd(opts),
	)

	return cmd
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "%s %s\n", dobhasi.Name, version)
			if commit != "unknown" && commit != "" {
				fmt.Fprintf(opts.stdout, "  commit:  %s\n", commit)
			}
			if buildDate != "unknown" && buildDate != "" {
				fmt.Fprintf(opts.stdout, "  built:   %s\n", buildDate)
			}
		},
	}
}
