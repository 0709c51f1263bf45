package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"readlist/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var checkLLM bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, source list, prompts and the LLM endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), ctx.config, checkLLM)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				state := "ok"
				switch {
				case !r.Passed && r.Optional:
					state = "warn"
				case !r.Passed:
					state = "FAIL"
				}
				rows = append(rows, []string{r.Name, state, r.Detail})
			}
			writeTable(cmd.OutOrStdout(), []string{"Check", "State", "Detail"}, rows, nil)
			if preflight.Failed(results) {
				return errors.New("preflight checks failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ready to refresh")
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkLLM, "llm", true, "Send a test request to the LLM endpoint when a key is set")
	return cmd
}
