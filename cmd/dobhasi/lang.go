package main

import (
	"fmt"

	"github.com/ZaguanLabs/dobhasi"
	"github.com/spf13/cobra"
)

func newLangCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lang",
		Short: "Show or change the active language",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the active language",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(cmd.Context(), opts, false)
				if err != nil {
					return err
				}
				defer a.Close()

				lang := a.translator.Language()
				fmt.Fprintf(opts.stdout, "%s (%s, %s)\n", lang, lang.Name(), lang.HTMLLang())
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <en|bn>",
			Short:     "Change and persist the active language",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(dobhasi.English), string(dobhasi.Bengali)},
			RunE: func(cmd *cobra.Command, args []string) error {
				lang, ok := dobhasi.ParseLanguage(args[0])
				if !ok {
					return fmt.Errorf("unsupported language %q (want en or bn)", args[0])
				}

				a, err := newApp(cmd.Context(), opts, false)
				if err != nil {
					return err
				}
				defer a.Close()

				if err := a.translator.SetLanguage(cmd.Context(), lang); err != nil {
					return err
				}
				fmt.Fprintf(opts.stdout, "Language set to %s\n", lang.Name())
				return nil
			},
		},
	)

	return cmd
}
