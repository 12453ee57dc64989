package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/promptrepo/internal/session"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Companion backend cache commands",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <app>",
	Short: "Clear the backend's cached prompts for an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		n, err := s.sys.ClearBackendCache(cmd.Context(), s.env(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]int{"cleared_keys": n})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Companion backend index commands",
}

var indexPopulateCmd = &cobra.Command{
	Use:   "populate <app>",
	Short: "Start populating the backend index for an application",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		if err := s.sys.PopulateIndex(cmd.Context(), s.env(), args[0]); err != nil {
			return err
		}
		cmd.Println("index population started")
		return nil
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status <app>",
	Short: "Report backend index population progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		status, err := s.sys.IndexStatus(cmd.Context(), s.env(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), status)
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for auth.password_hash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := session.HashPassword(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	indexCmd.AddCommand(indexPopulateCmd)
	indexCmd.AddCommand(indexStatusCmd)
}
