package catalog

import "sort"

// Report itemizes schema drift between a trusted catalog and a server's live
// tool set. All three sequences are sorted for stable output.
type Report struct {
	Server string
	// Missing lists tools the server exposes that have no trusted schema
	Missing []string
	// Orphaned lists trusted schemas with no live counterpart
	Orphaned []string
	// Malformed lists trusted entries whose descriptor is structurally invalid
	Malformed []string
}

// Clean reports whether the reconciliation passed: no drift of any class.
func (r Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Orphaned) == 0 && len(r.Malformed) == 0
}

// Diff computes the drift between a catalog and the live tool names fetched
// from its server. It is the pure half of reconciliation; fetching liveNames
// is the session's concern.
func Diff(c *Catalog, liveNames []string) Report {
	report := Report{Server: c.Server}

	live := make(map[string]bool, len(liveNames))
	for _, name := range liveNames {
		live[name] = true
	}

	for _, name := range liveNames {
		if _, ok := c.Tools[name]; !ok {
			report.Missing = append(report.Missing, name)
		}
	}
	for name, desc := range c.Tools {
		if !live[name] {
			report.Orphaned = append(report.Orphaned, name)
		}
		if !desc.Valid() {
			report.Malformed = append(report.Malformed, name)
		}
	}

	sort.Strings(report.Missing)
	sort.Strings(report.Orphaned)
	sort.Strings(report.Malformed)
	return report
}
