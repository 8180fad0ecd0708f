package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chatwing/chatwing/internal/ui"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List live tools across configured servers with their effective size limits",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	gov, err := buildGovernor(cfg)
	if err != nil {
		return fmt.Errorf("size limits: %w", err)
	}

	servers, closeServers, err := connectServers(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeServers()

	for _, s := range servers {
		fmt.Println(ui.StyleSectionTitle.Render(s.config.Name))

		tools, err := s.session.Tools(ctx)
		if err != nil {
			return fmt.Errorf("list tools on %q: %w", s.config.Name, err)
		}
		sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })

		for _, t := range tools {
			fmt.Printf("  %-24s limit=%d chars", t.Name, gov.LimitFor(t.Name))
			if t.Description != "" {
				fmt.Printf("  %s", ui.StyleSubtle.Render(t.Description))
			}
			fmt.Println()
		}
		if len(tools) == 0 {
			fmt.Println(ui.StyleSubtle.Render("  (no tools)"))
		}
	}
	return nil
}
