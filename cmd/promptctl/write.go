package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/promptrepo/internal/document"
	"github.com/JaimeStill/promptrepo/internal/prompts"
)

var errNotConfirmed = errors.New("environment requires confirmation; review the change and rerun with --yes")

var (
	confirmed   bool
	validateApp string
	editPrompt  string
	editFile    string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a prompt repository document, or a metadata document with --metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		if validateApp != "" {
			if _, err := document.ParseMetadata(raw, validateApp); err != nil {
				return err
			}
		} else if _, err := document.ParseRoot(raw); err != nil {
			return err
		}

		cmd.Println("valid")
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <app> <file>",
	Short: "Upload a whole document as a new version of an application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		change, err := s.sys.ReplaceDocument(cmd.Context(), s.env(), args[0], raw)
		if err != nil {
			return err
		}
		return commit(cmd, s, change)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <app>",
	Short: "Replace the content of one prompt with the contents of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		content, err := os.ReadFile(editFile)
		if err != nil {
			return err
		}

		snap, err := s.sys.Latest(cmd.Context(), s.env(), args[0])
		if err != nil {
			return err
		}
		index, err := promptIndex(snap, editPrompt)
		if err != nil {
			return err
		}

		change, err := s.sys.EditPrompt(cmd.Context(), s.env(), args[0], index, string(content))
		if err != nil {
			return err
		}
		return commit(cmd, s, change)
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata <app> [file]",
	Short: "Print an application's metadata document, or replace it with a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := open()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			raw, err := s.sys.Metadata(cmd.Context(), s.env(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return err
		}

		raw, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		change, err := s.sys.ChangeMetadata(cmd.Context(), s.env(), args[0], raw)
		if err != nil {
			return err
		}
		return commit(cmd, s, change)
	},
}

// commit writes change, or prints it and refuses when the environment
// requires confirmation and --yes was not given.
func commit(cmd *cobra.Command, s *workspace, change *prompts.Change) error {
	if s.sys.ConfirmWrites(change.Env) && !confirmed {
		if err := printJSON(cmd.OutOrStdout(), change); err != nil {
			return err
		}
		return errNotConfirmed
	}

	result, err := s.sys.Commit(cmd.Context(), change)
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		cmd.PrintErrln("warning:", w)
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func promptIndex(snap *prompts.Snapshot, name string) (int, error) {
	app, ok := document.FindIdentity(snap.Document, snap.Identity)
	if !ok {
		return 0, fmt.Errorf("%w: %s", document.ErrApplicationNotFound, snap.Identity.Read)
	}
	for i, p := range app.Prompts {
		if strings.EqualFold(p.Name, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("prompt %q not found in %s", name, snap.Identity.Read)
}

func init() {
	validateCmd.Flags().StringVar(&validateApp, "metadata", "", "validate as the metadata document of this application")

	for _, c := range []*cobra.Command{uploadCmd, editCmd, metadataCmd} {
		c.Flags().BoolVarP(&confirmed, "yes", "y", false, "write to environments that require confirmation")
	}

	editCmd.Flags().StringVar(&editPrompt, "prompt", "", "name of the prompt to edit")
	editCmd.Flags().StringVar(&editFile, "file", "", "file holding the new prompt content")
	editCmd.MarkFlagRequired("prompt")
	editCmd.MarkFlagRequired("file")
}
