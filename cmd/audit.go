package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatwing/chatwing/internal/mcpclient"
	"github.com/chatwing/chatwing/internal/telemetry"
	"github.com/chatwing/chatwing/internal/ui"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Reconcile trusted tool catalogs against live server schemas",
	Long: `Connects to every configured server that has a catalog and itemizes the
drift per server: tools the server exposes without a trusted schema (missing),
trusted schemas with no live counterpart (orphaned), and structurally invalid
catalog entries (malformed). An unreachable server is reported and the audit
continues. Exits non-zero on any drift or connection failure.`,
	RunE: runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	tel := newTelemetryClient(cfg)
	defer func() { _ = tel.Close() }()

	var targets []mcpclient.Target
	for _, sc := range cfg.Servers {
		if sc.Catalog == "" {
			fmt.Println(ui.StyleSubtle.Render(sc.Name + ": no catalog configured, skipped"))
			continue
		}
		cat, err := loadServerCatalog(sc)
		if err != nil {
			return fmt.Errorf("catalog for %q: %w", sc.Name, err)
		}
		targets = append(targets, mcpclient.Target{Name: sc.Name, Spec: sc.Spec, Catalog: cat})
	}
	if len(targets) == 0 {
		return fmt.Errorf("no servers with catalogs configured")
	}

	session := mcpclient.NewReconcileSession()
	defer func() { _ = session.Close() }()

	reports, errs := session.ReconcileAll(ctx, targets)

	failed := false
	for i, report := range reports {
		fmt.Print(ui.RenderAuditReport(report, errs[i]))
		if errs[i] != nil || !report.Clean() {
			failed = true
		}
	}

	tel.Track(telemetry.EventAuditRun, telemetry.Properties{
		"servers": len(targets),
		"failed":  failed,
	})

	if failed {
		return fmt.Errorf("schema drift or connection failures detected")
	}
	fmt.Println(ui.StyleSuccess.Render("All catalogs match live schemas."))
	return nil
}
