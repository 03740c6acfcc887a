package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/view"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	summaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	alertStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// planRenderer draws a view.Plan as text. It never looks at the role; every
// decision comes from the plan.
type planRenderer struct {
	// resolve turns a screenshot path into a URL on the backend.
	resolve func(string) string
}

func (r planRenderer) render(w io.Writer, plan view.Plan) {
	if plan.Banner != "" {
		fmt.Fprintln(w, bannerStyle.Render(plan.Banner))
		fmt.Fprintln(w)
	}

	if plan.Buckets != nil {
		for _, b := range plan.Buckets {
			fmt.Fprintln(w, headingStyle.Render(b.Heading))
			if len(b.Cards) == 0 {
				fmt.Fprintln(w, mutedStyle.Render("  (none)"))
			}
			for _, c := range b.Cards {
				r.renderCard(w, c)
			}
			fmt.Fprintln(w)
		}
	} else {
		fmt.Fprintln(w, headingStyle.Render("Feedback"))
		if len(plan.Flat) == 0 {
			fmt.Fprintln(w, mutedStyle.Render("  No feedback yet."))
		}
		for _, c := range plan.Flat {
			r.renderCard(w, c)
		}
		fmt.Fprintln(w)
	}

	renderStats(w, plan.Stats)

	var hints []string
	if plan.ShowSubmitForm {
		hints = append(hints, "feedback submit --text \"...\"")
	}
	if plan.ShowExport() {
		formats := make([]string, 0, len(plan.Exports))
		for _, f := range plan.Exports {
			formats = append(formats, string(f))
		}
		hints = append(hints, "feedback export --format "+strings.Join(formats, "|"))
	}
	switch plan.Logout {
	case view.LogoutAdmin:
		hints = append(hints, "feedback logout (admin)")
	case view.LogoutUser:
		hints = append(hints, "feedback logout (user)")
	}
	if len(hints) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, mutedStyle.Render("Actions: "+strings.Join(hints, " · ")))
	}
}

func (r planRenderer) renderCard(w io.Writer, c view.Card) {
	fmt.Fprintf(w, "  #%d [%s] %s\n", c.ID, c.Category, c.Text)

	meta := []string{"by " + c.Author}
	if c.Timestamp != "" {
		meta = append(meta, c.Timestamp)
	}
	if c.Sentiment != "" {
		meta = append(meta, c.Sentiment)
	}
	if c.Screenshot != "" {
		shot := c.Screenshot
		if r.resolve != nil {
			shot = r.resolve(shot)
		}
		meta = append(meta, "screenshot: "+shot)
	}
	fmt.Fprintln(w, mutedStyle.Render("     "+strings.Join(meta, " · ")))

	if c.Summary != "" {
		fmt.Fprintln(w, summaryStyle.Render("     Summary: "+c.Summary))
	}
}

func renderStats(w io.Writer, stats view.StatsPanel) {
	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Stats: %d total", stats.Total)))
	fmt.Fprintln(w, "  By category:  "+formatCounts(stats.ByCategory))
	fmt.Fprintln(w, "  By sentiment: "+formatCounts(stats.BySentiment))
}

func formatCounts(counts []feedback.Count) string {
	if len(counts) == 0 {
		return mutedStyle.Render("-")
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s %d", c.Label, c.Value))
	}
	return strings.Join(parts, ", ")
}
