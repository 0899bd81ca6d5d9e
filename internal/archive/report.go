package archive

import (
	"fmt"
	"strings"

	"scout/internal/types"
)

// renderReport produces the human-readable markdown rendering of a brief
func renderReport(brief *types.ConnectionBrief) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Connection Brief: %s\n\n", brief.RunID)
	if brief.Summary.Headline != "" {
		fmt.Fprintf(&b, "**%s**\n\n", brief.Summary.Headline)
	}

	meta := brief.RunMetadata
	fmt.Fprintf(&b, "- Mode: %s\n", meta.Mode)
	if meta.SourceTool != "" {
		fmt.Fprintf(&b, "- Tool: %s\n", meta.SourceTool)
	}
	fmt.Fprintf(&b, "- Duration: %.1fs\n", meta.DurationSeconds)
	fmt.Fprintf(&b, "- Searches: %d, pages fetched: %d, candidates evaluated: %d\n",
		meta.SearchesPerformed, meta.PagesFetched, meta.CandidatesEvaluated)
	if !meta.Completed {
		b.WriteString("- **Note: run did not complete; results were salvaged from partial output**\n")
	}
	b.WriteString("\n")

	if len(brief.Summary.KeyInsights) > 0 {
		b.WriteString("## Key insights\n\n")
		for _, insight := range brief.Summary.KeyInsights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
		b.WriteString("\n")
	}

	if len(brief.Candidates) == 0 {
		b.WriteString("## Candidates\n\nNo candidates surfaced in this run.\n")
	} else {
		fmt.Fprintf(&b, "## Candidates (%d)\n\n", len(brief.Candidates))
		for i, c := range brief.Candidates {
			fmt.Fprintf(&b, "### %d. %s", i+1, c.Name)
			if c.Role != "" || c.Company != "" {
				fmt.Fprintf(&b, " (%s)", strings.TrimSpace(strings.Join(nonEmpty(c.Role, c.Company), ", ")))
			}
			b.WriteString("\n\n")
			if c.Handle != "" {
				fmt.Fprintf(&b, "- Handle: %s\n", c.Handle)
			}
			for _, why := range c.WhyMatch {
				fmt.Fprintf(&b, "- Why: %s\n", why)
			}
			for _, url := range c.EvidenceURLs {
				fmt.Fprintf(&b, "- Evidence: %s\n", url)
			}
			for _, flag := range c.RiskFlags {
				fmt.Fprintf(&b, "- Risk: %s\n", flag)
			}
			if c.Scores != nil {
				fmt.Fprintf(&b, "- Score: %.2f\n", c.Scores.FinalScore)
			}
			if c.LastActivity != "" {
				fmt.Fprintf(&b, "- Last activity: %s\n", c.LastActivity)
			}
			if c.SuggestedIntro != "" {
				fmt.Fprintf(&b, "\n> %s\n", c.SuggestedIntro)
			}
			if c.SuggestedFollowup != "" {
				fmt.Fprintf(&b, ">\n> Follow-up: %s\n", c.SuggestedFollowup)
			}
			b.WriteString("\n")
		}
	}

	if len(brief.NextActions) > 0 {
		b.WriteString("## Next actions\n\n")
		for _, action := range brief.NextActions {
			fmt.Fprintf(&b, "- %s\n", action)
		}
	}

	if len(brief.Summary.VenuesSearched) > 0 {
		fmt.Fprintf(&b, "\n---\nVenues searched: %s\n", strings.Join(brief.Summary.VenuesSearched, ", "))
	}

	return b.String()
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
