package main

import (
	"github.com/spf13/cobra"
)

var showKey string

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List supported applications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s.sys.Apps())
	},
}

var envsCmd = &cobra.Command{
	Use:   "envs",
	Short: "List environments and whether each is configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), s.sys.Environments())
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <app>",
	Short: "List stored versions of an application, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		keys, err := s.sys.Versions(cmd.Context(), s.env(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), keys)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <app>",
	Short: "Print the latest document of an application, or the version named by --key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		if showKey != "" {
			doc, err := s.sys.Version(cmd.Context(), s.env(), args[0], showKey)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc)
		}

		snap, err := s.sys.Latest(cmd.Context(), s.env(), args[0])
		if err != nil {
			return err
		}
		for _, w := range snap.Warnings {
			cmd.PrintErrln("warning:", w)
		}
		return printJSON(cmd.OutOrStdout(), snap)
	},
}

var (
	compareLeft  string
	compareRight string
	compareQuiet bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <app>",
	Short: "Compare an application's prompts across two environments",
	Long: `Compare prints a per-prompt comparison with unified diffs of prompt
content. With --quiet only the summary is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		result, err := s.sys.Compare(cmd.Context(), args[0], compareLeft, compareRight)
		if err != nil {
			return err
		}
		if compareQuiet {
			return printJSON(cmd.OutOrStdout(), result.Summary)
		}
		return printJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	showCmd.Flags().StringVar(&showKey, "key", "", "version key to show instead of the latest")

	compareCmd.Flags().StringVar(&compareLeft, "left", "", "left environment")
	compareCmd.Flags().StringVar(&compareRight, "right", "", "right environment")
	compareCmd.Flags().BoolVarP(&compareQuiet, "quiet", "q", false, "print only the summary")
	compareCmd.MarkFlagRequired("left")
	compareCmd.MarkFlagRequired("right")
}
