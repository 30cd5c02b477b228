package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"labqc/pkg/core/prompt"
)

func compileCmd() *cobra.Command {
	var id, versionID string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Print the prompt that would be sent for a lab id",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state := a.settings.Snapshot().Prompts
			v := state.Active()
			if versionID != "" {
				found, ok := state.Find(versionID)
				if !ok {
					return fmt.Errorf("%w: %s", prompt.ErrVersionNotFound, versionID)
				}
				v = found
			}

			r, err := a.source.Fetch(cmd.Context(), id)
			if err != nil {
				return err
			}
			if r == nil {
				return fmt.Errorf("report %s not found", id)
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt.Compile(v.Content, r))
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "lab-id", "", "lab id to fetch")
	cmd.Flags().StringVar(&versionID, "prompt", "", "prompt version id (default: active)")
	_ = cmd.MarkFlagRequired("lab-id")
	return cmd
}
