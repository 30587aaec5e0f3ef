package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docdash/internal/analysis"
	"github.com/custodia-labs/docdash/internal/core/domain"
	"github.com/custodia-labs/docdash/internal/tabular"
)

const askLong = `Runs the chat engine against a CSV file on disk and prints the
JSON response the API would return.

Supported analyses: %s`

var askCmd = &cobra.Command{
	Use:   "ask <csv-file> <question>",
	Short: "Answer a question about a local CSV file",
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := domain.ChatRequest{Message: strings.Join(args[1:], " ")}
		if err := req.Validate(); err != nil {
			return fmt.Errorf("%w: question is required", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		table, err := tabular.Load(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		resp := analysis.NewEngine(nil).Answer(req.Message, table)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	var names []string
	for _, intent := range analysis.DefaultRegistry().List() {
		if intent != analysis.IntentFallback {
			names = append(names, string(intent))
		}
	}
	askCmd.Long = fmt.Sprintf(askLong, strings.Join(names, ", "))
}
