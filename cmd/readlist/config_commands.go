package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"readlist/internal/config"
	"readlist/internal/sourcelist"
	"readlist/internal/summary"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file and default prompts",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)

			cfg, _, _, err := config.Load(target)
			if err != nil {
				return fmt.Errorf("load sample config: %w", err)
			}
			written, err := summary.WriteDefaultPrompts(cfg.Paths.PromptsFile)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(out, "Wrote default prompts to %s\n", cfg.Paths.PromptsFile)
			} else {
				fmt.Fprintf(out, "Kept existing prompts at %s\n", cfg.Paths.PromptsFile)
			}
			fmt.Fprintln(out, "Set llm.api_key (or export OPENAI_API_KEY) before generating summaries.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration, source list and prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			if _, err := os.Stat(ctx.configPath); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			entries, err := sourcelist.Parse(cfg.Paths.SourceList)
			switch {
			case errors.Is(err, sourcelist.ErrMissingSource):
				fmt.Fprintf(out, "Source list: %s (missing; refresh will fail)\n", cfg.Paths.SourceList)
			case err != nil:
				return fmt.Errorf("source list: %w", err)
			default:
				fmt.Fprintf(out, "Source list: %s (%d entries)\n", cfg.Paths.SourceList, len(entries))
			}

			prompts, err := summary.LoadPrompts(cfg.Paths.PromptsFile)
			if err != nil {
				return err
			}
			if err := prompts.ApplyOverrides(cfg.PromptOverridesPath()); err != nil {
				return fmt.Errorf("prompt overrides: %w", err)
			}
			fmt.Fprintf(out, "Prompts: %s (%s)\n", cfg.Paths.PromptsFile, strings.Join(prompts.Keys(), ", "))

			if strings.TrimSpace(cfg.LLM.APIKey) == "" {
				fmt.Fprintln(out, "LLM API key: missing (summaries will be skipped)")
			} else {
				fmt.Fprintf(out, "LLM API key: set (model %s)\n", cfg.LLM.Model)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}
