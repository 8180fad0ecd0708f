package cmd

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/chatwing/chatwing/internal/llm"
	"github.com/chatwing/chatwing/types"
)

// ensureAPIKey prompts for the provider API key when the config and
// environment left it empty. Ollama runs locally and needs none.
func ensureAPIKey(cfg *types.AppConfig) error {
	if cfg.LLM.APIKey != "" || cfg.LLM.Provider == llm.ProviderOllama {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("no API key configured for provider %q (set llm.apiKey or CHATWING_LLM_APIKEY)", cfg.LLM.Provider)
	}

	fmt.Fprintf(os.Stderr, "Enter %s API key: ", cfg.LLM.Provider)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("read API key: %w", err)
	}
	key := strings.TrimSpace(string(raw))
	if key == "" {
		return fmt.Errorf("empty API key")
	}
	cfg.LLM.APIKey = key
	return nil
}
