package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/trade-hire/internal/schema"
	"github.com/jonathan/trade-hire/internal/schemas"
)

var schemaCheckFile string

var schemaCmd = &cobra.Command{
	Use:   "schema [task]",
	Short: "Print the JSON Schema of a task's record, or check a record against it",
	Long: `Print the JSON Schema generated from the task registry. With no task, prints every task's schema.
With --check, validates a JSON record file against the task's schema instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchema(cmd.OutOrStdout(), args, schemaCheckFile)
	},
}

func init() {
	schemaCmd.Flags().StringVar(&schemaCheckFile, "check", "", "JSON record file to validate")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(out io.Writer, args []string, checkFile string) error {
	if len(args) == 0 {
		if checkFile != "" {
			return fmt.Errorf("--check needs a task")
		}
		all := make(map[schema.TaskKind]any)
		for _, kind := range schema.Kinds() {
			all[kind] = schema.JSONSchema(schema.MustFor(kind))
		}
		return writeJSON(out, all)
	}

	task, err := schema.For(schema.TaskKind(args[0]))
	if err != nil {
		return fmt.Errorf("%w (known tasks: %s)", err, taskList())
	}

	if checkFile == "" {
		return writeJSON(out, schema.JSONSchema(task))
	}

	data, err := os.ReadFile(checkFile)
	if err != nil {
		return fmt.Errorf("failed to read record file: %w", err)
	}
	if err := schemas.ValidateBytes(task, data); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: valid %s record\n", checkFile, task.Record)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
