package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/feedback/internal/infrastructure/watch"
	"github.com/felixgeelhaar/feedback/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/feedback/pkg/application"
	"github.com/felixgeelhaar/feedback/pkg/domain/events"
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/view"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard",
	Long: `Interactive TUI dashboard.

Keys: r refresh, n new feedback, d delete, s summarize, e export CSV,
E export JSON, l logout, q quit. Logging in from another terminal is
picked up automatically.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if os.Getenv("FEEDBACK_SKIP_DASHBOARD_RUN") == "true" {
			return nil
		}
		services, logFile, err := loadDashboardServices()
		if err != nil {
			return err
		}
		defer logFile.Close()
		defer services.Desk.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		p := tea.NewProgram(newDashboardModel(ctx, services), tea.WithContext(ctx))

		// Send blocks while Update runs, and desk events can be published
		// from inside Update.
		unsubscribe := services.Desk.Subscribe("dashboard", func(_ context.Context, e events.DomainEvent) error {
			go p.Send(deskEventMsg{event: e})
			return nil
		})
		defer unsubscribe()

		cfg := services.Workspace.Config
		watcher, err := watch.NewSessionWatcher(cfg.StateDir, cfg.Dashboard.WatchDebounce, func(ev watch.ChangeEvent) {
			go p.Send(sessionFileMsg{change: ev})
		}, services.Logger)
		if err != nil {
			services.Logger.Warn("session watcher disabled", "error", err)
		} else {
			go func() { _ = watcher.Run(ctx) }()
		}

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("dashboard run failed: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(dashboardCmd)
}

// Styles
var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

type (
	// planMsg asks the model to redraw from the desk.
	planMsg struct{}
	// deskEventMsg forwards a desk event.
	deskEventMsg struct{ event events.DomainEvent }
	// sessionFileMsg reports that another process changed the saved session.
	sessionFileMsg struct{ change watch.ChangeEvent }
	// resultMsg carries the outcome of a dashboard action.
	resultMsg struct {
		notice string
		alert  string
		// clearForm is set after a successful submit.
		clearForm bool
	}
)

type dashboardModel struct {
	ctx      context.Context
	services *wiring.AppServices
	desk     *application.Desk
	renderer planRenderer

	table  table.Model
	input  textinput.Model
	cards  []view.Card
	plan   view.Plan
	notice string
	alert  string

	composing bool
	// exportDir receives export files; empty means the working directory.
	exportDir string
}

func newDashboardModel(ctx context.Context, services *wiring.AppServices) dashboardModel {
	columns := []table.Column{
		{Title: "ID", Width: 5},
		{Title: "Sentiment", Width: 10},
		{Title: "Category", Width: 16},
		{Title: "Author", Width: 14},
		{Title: "Feedback", Width: 44},
		{Title: "Summary", Width: 30},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	input := textinput.New()
	input.Placeholder = "What's on your mind?"
	input.CharLimit = 2000
	input.Width = 60

	return dashboardModel{
		ctx:      ctx,
		services: services,
		desk:     services.Desk,
		renderer: renderer(services),
		table:    t,
		input:    input,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	desk, ctx := m.desk, m.ctx
	return func() tea.Msg {
		if err := desk.Start(ctx); err != nil {
			return resultMsg{alert: "Could not load feedback: " + err.Error()}
		}
		return planMsg{}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case planMsg:
		m.sync()
		return m, nil

	case deskEventMsg:
		if failed, ok := msg.event.(events.OperationFailed); ok {
			m.alert = failed.Alert
		}
		m.sync()
		return m, nil

	case sessionFileMsg:
		return m, m.followSessionFile()

	case resultMsg:
		m.notice, m.alert = msg.notice, msg.alert
		if msg.clearForm {
			m.input.Reset()
			m.input.Blur()
			m.composing = false
		}
		m.sync()
		return m, nil

	case tea.KeyMsg:
		if m.composing {
			return m.updateForm(msg)
		}
		return m.updateKeys(msg)
	}

	var cmd tea.Cmd
	if m.composing {
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.refresh()
	case "n":
		if !m.plan.ShowSubmitForm {
			return m, nil
		}
		m.composing = true
		m.notice, m.alert = "", ""
		return m, m.input.Focus()
	case "d":
		if card, ok := m.selected(); ok && card.CanDelete {
			return m, m.delete(card.ID)
		}
		return m, nil
	case "s":
		if card, ok := m.selected(); ok && card.CanSummarize {
			// Loading shows before the fetch starts; a second press while
			// loading is ignored.
			if !m.desk.RequestSummary(card.ID) {
				return m, nil
			}
			m.sync()
			return m, m.fetchSummary(card.ID)
		}
		return m, nil
	case "e", "E":
		format := sdk.ExportCSV
		if msg.String() == "E" {
			format = sdk.ExportJSON
		}
		if !m.plan.ShowExport() {
			return m, nil
		}
		return m, m.export(format)
	case "l":
		if m.plan.Logout == view.LogoutNone {
			return m, nil
		}
		return m, m.logout()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		return m, m.submit(m.input.Value())
	case tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// sync redraws the table from the desk's current plan.
func (m *dashboardModel) sync() {
	m.plan = m.desk.Plan()
	m.cards = make([]view.Card, 0, m.plan.CardCount())
	if m.plan.Buckets != nil {
		for _, b := range m.plan.Buckets {
			m.cards = append(m.cards, b.Cards...)
		}
	} else {
		m.cards = append(m.cards, m.plan.Flat...)
	}

	rows := make([]table.Row, 0, len(m.cards))
	for _, c := range m.cards {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", c.ID),
			c.Sentiment,
			c.Category,
			c.Author,
			c.Text,
			c.Summary,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m dashboardModel) selected() (view.Card, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.cards) {
		return view.Card{}, false
	}
	return m.cards[i], true
}

func (m dashboardModel) refresh() tea.Cmd {
	desk, ctx := m.desk, m.ctx
	return func() tea.Msg {
		if err := desk.Refresh(ctx); err != nil {
			return resultMsg{alert: "Refresh failed; showing the last loaded data"}
		}
		return resultMsg{}
	}
}

func (m dashboardModel) submit(text string) tea.Cmd {
	desk, ctx := m.desk, m.ctx
	return func() tea.Msg {
		err := desk.Submit(ctx, feedback.Submission{Text: text})
		if err != nil {
			// The form keeps its text so the user can retry.
			return resultMsg{alert: application.AlertText(err)}
		}
		return resultMsg{notice: application.NoticeSubmitted, clearForm: true}
	}
}

func (m dashboardModel) delete(id int) tea.Cmd {
	desk, ctx := m.desk, m.ctx
	return func() tea.Msg {
		if err := desk.Delete(ctx, id); err != nil {
			return resultMsg{alert: application.AlertText(err)}
		}
		return resultMsg{notice: fmt.Sprintf("%s (#%d)", application.NoticeDeleted, id)}
	}
}

func (m dashboardModel) fetchSummary(id int) tea.Cmd {
	desk, ctx := m.desk, m.ctx
	return func() tea.Msg {
		_, _ = desk.FetchSummary(ctx, id)
		return planMsg{}
	}
}

func (m dashboardModel) export(format sdk.ExportFormat) tea.Cmd {
	desk, ctx, dir := m.desk, m.ctx, m.exportDir
	return func() tea.Msg {
		exp, err := desk.Export(ctx, format)
		if err != nil {
			return resultMsg{alert: application.AlertText(err)}
		}
		path := exp.Filename
		if dir != "" {
			path = dir + string(os.PathSeparator) + exp.Filename
		}
		// G306: Use 0600 for files
		if err := os.WriteFile(path, exp.Data, 0600); err != nil {
			return resultMsg{alert: "Could not write export: " + err.Error()}
		}
		return resultMsg{notice: fmt.Sprintf("Exported %d records to %s", exp.Records, path)}
	}
}

func (m dashboardModel) logout() tea.Cmd {
	desk, ctx := m.desk, m.ctx
	return func() tea.Msg {
		notice, err := desk.Logout(ctx)
		if err != nil {
			return resultMsg{alert: application.AlertText(err)}
		}
		return resultMsg{notice: notice}
	}
}

// followSessionFile reloads cookies written by another process and re-probes.
func (m dashboardModel) followSessionFile() tea.Cmd {
	desk, ctx, jar := m.desk, m.ctx, m.services.Workspace.Jar
	logger := m.services.Logger
	return func() tea.Msg {
		if err := jar.Reload(); err != nil {
			logger.Warn("reload session failed", "error", err)
			return nil
		}
		before := desk.Role()
		after := desk.Probe(ctx)
		if before == after {
			return nil
		}
		if err := desk.Refresh(ctx); err != nil {
			logger.Warn("refresh after session change failed", "error", err)
		}
		return resultMsg{notice: "Session changed: " + after.DisplayName()}
	}
}

func (m dashboardModel) View() string {
	title := m.plan.Banner
	if title == "" {
		title = "Feedback"
	}
	sections := []string{bannerStyle.Render(title), m.table.View()}

	if card, ok := m.selected(); ok {
		sections = append(sections, m.detail(card))
	}

	var stats strings.Builder
	renderStats(&stats, m.plan.Stats)
	sections = append(sections, strings.TrimRight(stats.String(), "\n"))

	if m.composing {
		sections = append(sections, "New feedback (enter to send, esc to cancel):\n"+m.input.View())
	}
	if m.alert != "" {
		sections = append(sections, alertStyle.Render(m.alert))
	} else if m.notice != "" {
		sections = append(sections, noticeStyle.Render(m.notice))
	}
	sections = append(sections, helpStyle.Render(m.help()))

	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...)) + "\n"
}

func (m dashboardModel) detail(card view.Card) string {
	var b strings.Builder
	m.renderer.renderCard(&b, card)
	return strings.TrimRight(b.String(), "\n")
}

// help lists only the keys the current plan allows.
func (m dashboardModel) help() string {
	keys := []string{"↑/↓ move", "r refresh"}
	if m.plan.ShowSubmitForm {
		keys = append(keys, "n new")
	}
	if card, ok := m.selected(); ok {
		if card.CanDelete {
			keys = append(keys, "d delete")
		}
		if card.CanSummarize {
			keys = append(keys, "s summarize")
		}
	}
	if m.plan.ShowExport() {
		keys = append(keys, "e/E export csv/json")
	}
	if m.plan.Logout != view.LogoutNone {
		keys = append(keys, "l logout")
	}
	keys = append(keys, "q quit")
	return strings.Join(keys, " · ")
}
