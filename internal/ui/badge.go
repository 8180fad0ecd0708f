package ui

import (
	"fmt"

	"github.com/chatwing/chatwing/internal/budget"
)

// TierBadge renders the colored budget badge shown between turns,
// e.g. "[warning] 86% of 128k-token context used (warning)".
func TierBadge(st budget.State) string {
	label := fmt.Sprintf("[%s]", st.Tier)
	return fmt.Sprintf("%s %s", tierStyle(st.Tier).Render(label), StyleSubtle.Render(st.Display()))
}

func tierStyle(t budget.Tier) interface{ Render(...string) string } {
	switch t {
	case budget.TierCritical:
		return StyleError
	case budget.TierWarning:
		return StyleWarning
	case budget.TierInfo:
		return StyleInfo
	default:
		return StyleSuccess
	}
}
