package cmd

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/spf13/afero"

	"github.com/chatwing/chatwing/internal/catalog"
	"github.com/chatwing/chatwing/internal/guard"
	"github.com/chatwing/chatwing/internal/mcpclient"
	"github.com/chatwing/chatwing/types"
)

// buildGovernor constructs the result governor from configured limits.
func buildGovernor(cfg *types.AppConfig) (*guard.Governor, error) {
	return guard.New(guard.LimitConfig{
		DefaultMaxChars: cfg.Limits.DefaultMaxChars,
		PerTool:         cfg.Limits.PerTool,
	})
}

// loadServerCatalog loads the trusted catalog for one server config; nil when
// the server is configured without one.
func loadServerCatalog(sc types.ServerConfig) (*catalog.Catalog, error) {
	if sc.Catalog == "" {
		return nil, nil
	}
	return catalog.Load(afero.NewOsFs(), sc.Catalog)
}

// connectedServer pairs an open session with its config entry.
type connectedServer struct {
	config  types.ServerConfig
	session *mcpclient.ServerSession
}

// connectServers dials every configured server. On any failure the already
// opened sessions are closed before returning.
func connectServers(ctx context.Context, cfg *types.AppConfig) ([]connectedServer, func(), error) {
	var servers []connectedServer
	closeAll := func() {
		for _, s := range servers {
			_ = s.session.Close()
		}
	}

	for _, sc := range cfg.Servers {
		session, err := mcpclient.Connect(ctx, sc.Name, sc.Spec)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect server %q: %w", sc.Name, err)
		}
		servers = append(servers, connectedServer{config: sc, session: session})
	}
	return servers, closeAll, nil
}

// gatherTools builds the merged governed-call map and eino tool infos across
// all connected servers. A tool name collision keeps the first server's tool
// and reports the duplicate.
func gatherTools(ctx context.Context, servers []connectedServer, gov *guard.Governor) (map[string]guard.GovernedFunc, []*schema.ToolInfo, error) {
	governed := map[string]guard.GovernedFunc{}
	var infos []*schema.ToolInfo

	for _, s := range servers {
		cat, err := loadServerCatalog(s.config)
		if err != nil {
			return nil, nil, fmt.Errorf("catalog for %q: %w", s.config.Name, err)
		}

		live, err := s.session.Tools(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("list tools on %q: %w", s.config.Name, err)
		}
		serverTools := s.session.GovernedToolsFor(live, gov, cat)

		for _, info := range mcpclient.EinoToolInfos(live) {
			fn, ok := serverTools[info.Name]
			if !ok {
				continue // filtered out by the catalog
			}
			if _, exists := governed[info.Name]; exists {
				return nil, nil, fmt.Errorf("tool %q exposed by more than one server", info.Name)
			}
			governed[info.Name] = fn
			infos = append(infos, info)
		}
	}
	return governed, infos, nil
}
