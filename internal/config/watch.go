package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/chatwing/chatwing/internal/guard"
	"github.com/chatwing/chatwing/types"
)

// LimitWatcher pushes size-limit changes from the config file into a running
// governor, so an operator can loosen or tighten limits without restarting a
// chat session. Invalid limit sets are logged and skipped; the governor keeps
// its last good configuration.
type LimitWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	gov     *guard.Governor
	logger  *slog.Logger
}

// NewLimitWatcher starts watching the config file at path. The containing
// directory is watched rather than the file itself: editors and config
// writers typically replace the file, which drops a direct watch.
func NewLimitWatcher(path string, gov *guard.Governor, logger *slog.Logger) (*LimitWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &LimitWatcher{watcher: watcher, path: path, gov: gov, logger: logger}, nil
}

// Run processes events until ctx is done, then releases the watcher.
func (w *LimitWatcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *LimitWatcher) reload() {
	limits, err := LoadLimits(w.path)
	if err != nil {
		w.logger.Warn("config reload skipped", "path", w.path, "error", err)
		return
	}
	if err := w.gov.UpdateLimits(limits); err != nil {
		w.logger.Warn("rejected reloaded limits", "path", w.path, "error", err)
		return
	}
	w.logger.Info("size limits reloaded", "path", w.path,
		"defaultMaxChars", limits.DefaultMaxChars, "perToolOverrides", len(limits.PerTool))
}

// LoadLimits reads just the limits section from a config file. A fresh viper
// instance keeps the reload isolated from global flag/env state.
func LoadLimits(path string) (guard.LimitConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return guard.LimitConfig{}, fmt.Errorf("read config: %w", err)
	}
	var limits types.LimitsConfig
	if err := v.UnmarshalKey("limits", &limits); err != nil {
		return guard.LimitConfig{}, fmt.Errorf("parse limits: %w", err)
	}
	return guard.LimitConfig{
		DefaultMaxChars: limits.DefaultMaxChars,
		PerTool:         limits.PerTool,
	}, nil
}
