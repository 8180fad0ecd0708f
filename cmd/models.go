package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatwing/chatwing/internal/llm"
	"github.com/chatwing/chatwing/internal/ui"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models with context windows and capabilities",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range llm.ListModelIDs() {
			m := llm.GetModel(id)
			if m == nil {
				continue
			}
			caps := ""
			if m.SupportsTools {
				caps += " tools"
			}
			if m.SupportsThinking {
				caps += " thinking"
			}
			marker := " "
			if m.IsDefault {
				marker = "*"
			}
			fmt.Printf("%s %-22s %-10s window=%-9d%s\n",
				marker, m.ID, m.Provider, m.ContextWindow, ui.StyleSubtle.Render(caps))
		}
		fmt.Println(ui.StyleSubtle.Render("\n* provider default; unknown models fall back to a " +
			fmt.Sprint(llm.DefaultContextWindow) + "-token window"))
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
