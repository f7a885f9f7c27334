package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/qiniu/ruleview/internal/rules"
	"github.com/qiniu/ruleview/internal/rules/service"
)

var (
	listSource string
	listOutput string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch all rule sources once and print the combined rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := fetchOnce(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		namespaces, snap, err := svc.Namespaces(cmd.Context(), listSource)
		if err != nil {
			return err
		}
		switch listOutput {
		case "json":
			return writeJSON(os.Stdout, namespaces)
		case "table", "":
			renderNamespaces(os.Stdout, namespaces)
			renderFetchErrors(os.Stderr, snap.Errors)
			return nil
		default:
			return fmt.Errorf("unsupported output format %q", listOutput)
		}
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSource, "source", "s", "", "Only show rules of this source")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json)")
}

// fetchOnce builds the service from the configuration and takes one
// snapshot without starting the poller.
func fetchOnce(ctx context.Context) (*service.RuleService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	srv, err := rules.NewServer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if _, err := srv.Refresh(ctx); err != nil {
		srv.Close()
		return nil, nil, err
	}
	return srv.RuleService(), srv.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
