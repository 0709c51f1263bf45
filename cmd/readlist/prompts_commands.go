package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"readlist/internal/logging"
	"readlist/internal/summary"
)

func newPromptsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect and override summary prompts",
	}
	cmd.AddCommand(newPromptsShowCommand(ctx))
	cmd.AddCommand(newPromptsSetCommand(ctx))
	return cmd
}

func (c *commandContext) loadPrompts() (summary.Prompts, error) {
	prompts, err := summary.LoadPrompts(c.config.Paths.PromptsFile)
	if err != nil {
		return nil, err
	}
	if err := prompts.ApplyOverrides(c.config.PromptOverridesPath()); err != nil {
		logging.WarnWithContext(c.log(), "prompt overrides ignored", "prompt_overrides_invalid",
			logging.Error(err),
			logging.String(logging.FieldImpact, "base prompts in effect"))
	}
	return prompts, nil
}

func newPromptsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [key]",
		Short: "Show the effective prompts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompts, err := ctx.loadPrompts()
			if err != nil {
				return err
			}
			keys := prompts.Keys()
			if len(args) == 1 {
				if _, ok := prompts[args[0]]; !ok {
					return fmt.Errorf("unknown prompt key %q (known: %s)", args[0], strings.Join(keys, ", "))
				}
				keys = []string{args[0]}
			}
			if asJSON {
				selected := make(map[string]summary.Template, len(keys))
				for _, key := range keys {
					selected[key] = prompts[key]
				}
				return writeJSON(cmd, selected)
			}
			out := cmd.OutOrStdout()
			for i, key := range keys {
				tmpl := prompts[key]
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "== %s (version %d) ==\n", key, tmpl.Version())
				fmt.Fprintf(out, "-- system --\n%s\n", strings.TrimSpace(tmpl.System))
				fmt.Fprintf(out, "-- user --\n%s\n", strings.TrimSpace(tmpl.User))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print prompts as JSON")
	return cmd
}

func newPromptsSetCommand(ctx *commandContext) *cobra.Command {
	var system string
	var user string

	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Override a prompt; bumps its version so cached summaries regenerate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("system") && !cmd.Flags().Changed("user") {
				return errors.New("nothing to set: pass --system and/or --user")
			}
			prompts, err := ctx.loadPrompts()
			if err != nil {
				return err
			}
			tmpl, err := prompts.SetOverride(ctx.config.PromptOverridesPath(), args[0], system, user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prompt %s updated to version %d\n", args[0], tmpl.Version())
			return nil
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "System prompt text")
	cmd.Flags().StringVar(&user, "user", "", "User prompt template")
	return cmd
}
