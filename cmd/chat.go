package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chatwing/chatwing/internal/budget"
	"github.com/chatwing/chatwing/internal/chat"
	"github.com/chatwing/chatwing/internal/config"
	"github.com/chatwing/chatwing/internal/llm"
	"github.com/chatwing/chatwing/internal/logger"
	"github.com/chatwing/chatwing/internal/store"
	"github.com/chatwing/chatwing/internal/telemetry"
	"github.com/chatwing/chatwing/internal/ui"
	"github.com/chatwing/chatwing/types"
)

var (
	chatForce     bool
	chatSessionID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with governed tool access",
	Long: `Starts a chat session against the configured model. Tool calls are routed
through the configured MCP servers with size-governed results, and context
usage is reported after every turn. The session refuses new turns once the
budget tier is critical unless --force is given.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatForce, "force", false, "allow turns past the critical budget tier")
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume a stored session by ID")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	logger.SetCommand("chat")

	if err := ensureAPIKey(cfg); err != nil {
		return err
	}

	gov, err := buildGovernor(cfg)
	if err != nil {
		return fmt.Errorf("size limits: %w", err)
	}

	servers, closeServers, err := connectServers(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeServers()

	governed, toolInfos, err := gatherTools(ctx, servers, gov)
	if err != nil {
		return err
	}

	tracker := budget.NewTracker(cfg.LLM.Model, budget.Config{
		SystemPromptTokens: cfg.Budget.SystemPromptTokens,
		Debounce:           time.Duration(cfg.Budget.DebounceMs) * time.Millisecond,
	})

	tel := newTelemetryClient(cfg)
	defer func() { _ = tel.Close() }()
	gov.SetOnSizeExceeded(func(tool string, returnedChars, maxChars int) {
		tel.Track(telemetry.EventSizeExceeded, telemetry.Properties{
			"tool":            tool,
			"returnedChars":   returnedChars,
			"maxAllowedChars": maxChars,
		})
	})

	// Live limit reloads while the session runs
	if cfgPath := viper.ConfigFileUsed(); cfgPath != "" {
		watcher, err := config.NewLimitWatcher(cfgPath, gov, slog.Default())
		if err != nil {
			slog.Warn("limit watcher disabled", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	loop := chat.New(llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	}, governed, toolInfos, tracker, chat.Options{
		MaxIterations: cfg.LLM.MaxTurnIterations,
		Force:         chatForce,
		Logger:        slog.Default(),
	})
	defer loop.Close()

	sessions, sessionID, err := openSession(cfg, loop)
	if err != nil {
		return err
	}
	if sessions != nil {
		defer func() { _ = sessions.Close() }()
	}

	tel.Track(telemetry.EventSessionStart, telemetry.Properties{
		"model":   cfg.LLM.Model,
		"servers": len(servers),
		"tools":   len(toolInfos),
	})

	fmt.Printf("%s  model=%s  tools=%d\n", ui.StyleTitle.Render("chatwing"), cfg.LLM.Model, len(toolInfos))
	fmt.Println(ui.StyleSubtle.Render("Type a message, or /quit to exit."))

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}

		turnStart := time.Now()
		answer, err := loop.Turn(ctx, input)
		if err != nil {
			if errors.Is(err, chat.ErrBudgetExhausted) {
				fmt.Println(ui.StyleError.Render(err.Error()))
				continue
			}
			return err
		}

		fmt.Println(answer)
		tracker.Flush()
		fmt.Println(ui.TierBadge(tracker.State()))

		persistTurn(sessions, sessionID, input, answer)
		tel.Track(telemetry.EventChatTurn, telemetry.Properties{
			"durationMs": time.Since(turnStart).Milliseconds(),
			"tier":       tracker.State().Tier.String(),
		})
	}
	return scanner.Err()
}

func newTelemetryClient(cfg *types.AppConfig) telemetry.Client {
	client, err := telemetry.New(telemetry.Config{
		Enabled: cfg.Telemetry.Enabled,
		APIKey:  cfg.Telemetry.APIKey,
		Host:    cfg.Telemetry.Host,
		Version: version,
	})
	if err != nil {
		slog.Warn("telemetry disabled", "error", err)
		return telemetry.NoopClient{}
	}
	return client
}

// openSession opens the session store when persistence is configured and
// either resumes the requested session or creates a new one.
func openSession(cfg *types.AppConfig, loop *chat.Loop) (store.SessionStore, string, error) {
	if cfg.Data.SessionDB == "" {
		if chatSessionID != "" {
			return nil, "", fmt.Errorf("--session requires data.sessionDb to be configured")
		}
		return nil, "", nil
	}

	dbPath := cfg.Data.SessionDB
	if !filepath.IsAbs(dbPath) && dbPath != ":memory:" {
		dbPath = filepath.Join(config.GetDataPath(), dbPath)
	}
	sessions, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open session store: %w", err)
	}

	if chatSessionID != "" {
		session, err := sessions.GetSession(chatSessionID)
		if err != nil {
			_ = sessions.Close()
			return nil, "", err
		}
		stored, err := sessions.Messages(session.ID)
		if err != nil {
			_ = sessions.Close()
			return nil, "", err
		}
		// Keep the fresh system prompt, replay the stored conversation after it
		loop.SetHistory(append(loop.History()[:1], store.ToTranscript(stored)...))
		fmt.Println(ui.StyleSubtle.Render("Resumed session " + session.ID))
		return sessions, session.ID, nil
	}

	session, err := sessions.CreateSession(cfg.LLM.Model)
	if err != nil {
		_ = sessions.Close()
		return nil, "", err
	}
	fmt.Println(ui.StyleSubtle.Render("Session " + session.ID))
	return sessions, session.ID, nil
}

func persistTurn(sessions store.SessionStore, sessionID, input, answer string) {
	if sessions == nil {
		return
	}
	if _, err := sessions.AppendMessage(sessionID, "user", input); err != nil {
		slog.Warn("persist user message", "error", err)
		return
	}
	if _, err := sessions.AppendMessage(sessionID, "assistant", answer); err != nil {
		slog.Warn("persist assistant message", "error", err)
	}
}
