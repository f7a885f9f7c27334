package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var describeOutput string

var describeCmd = &cobra.Command{
	Use:   "describe <source> <namespace> <group> <rule>",
	Short: "Show the details of one combined rule",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := fetchOnce(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		details, err := svc.Details(cmd.Context(), args[0], args[1], args[2], args[3])
		if err != nil {
			return err
		}
		switch describeOutput {
		case "json":
			return writeJSON(os.Stdout, details)
		case "table", "":
			renderDetails(os.Stdout, details)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q", describeOutput)
		}
	},
}

func init() {
	describeCmd.Flags().StringVarP(&describeOutput, "output", "o", "table", "Output format (table|json)")
}
