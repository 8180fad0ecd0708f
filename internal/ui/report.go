package ui

import (
	"fmt"
	"strings"

	"github.com/chatwing/chatwing/internal/catalog"
)

// RenderAuditReport renders one server's reconciliation result. connectErr,
// when non-nil, replaces the drift listing entirely.
func RenderAuditReport(report catalog.Report, connectErr error) string {
	var b strings.Builder
	b.WriteString(StyleSectionTitle.Render(report.Server))
	b.WriteString("\n")

	if connectErr != nil {
		b.WriteString(fmt.Sprintf("  %s %v\n", StyleError.Render("unreachable:"), connectErr))
		return b.String()
	}

	if report.Clean() {
		b.WriteString(fmt.Sprintf("  %s catalog matches live tools\n", StyleSuccess.Render("ok:")))
		return b.String()
	}

	renderFindings(&b, "missing from catalog", report.Missing)
	renderFindings(&b, "orphaned in catalog", report.Orphaned)
	renderFindings(&b, "malformed descriptor", report.Malformed)
	return b.String()
}

func renderFindings(b *strings.Builder, label string, names []string) {
	if len(names) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("  %s (%d)\n", StyleWarning.Render(label), len(names)))
	for _, name := range names {
		b.WriteString(fmt.Sprintf("    - %s\n", name))
	}
}
