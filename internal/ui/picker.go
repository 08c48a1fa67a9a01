package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"boxdsync/internal/engine"
	"boxdsync/internal/models"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RecordListView ViewState = iota
	ConfirmView
	RunView
	ResultView
)

// recordItem wraps a [models.WatchRecord] to implement list.Item.
type recordItem struct {
	record   *models.WatchRecord
	selected bool
}

func (i recordItem) FilterValue() string { return i.record.Title }

func (i recordItem) Title() string {
	marker := "[ ]"
	if i.selected {
		marker = "[x]"
	}
	return fmt.Sprintf("%s %s (%d)", marker, i.record.Title, i.record.Year)
}

func (i recordItem) Description() string {
	parts := []string{statusLabel(i.record.Status)}
	if i.record.WatchedDate != "" {
		parts = append(parts, "watched "+i.record.WatchedDate)
	}
	if i.record.Rating != "" {
		parts = append(parts, i.record.Rating+"★")
	}
	if i.record.LastError != "" {
		parts = append(parts, i.record.LastError)
	}
	return strings.Join(parts, " • ")
}

func statusLabel(s models.SyncStatus) string {
	switch s {
	case models.StatusSynced:
		return styles.ok.Render("synced")
	case models.StatusFailed:
		return styles.err.Render("failed")
	case models.StatusAlreadyPresent:
		return styles.warn.Render("present")
	default:
		return s.String()
	}
}

type runCompleteMsg struct {
	summary *engine.SyncSummary
	err     error
}

type progressUpdateMsg engine.ProgressUpdate

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *engine.Engine
	records      []*models.WatchRecord
	selected     map[int]bool
	recordList   list.Model
	width        int
	height       int
	progressChan chan engine.ProgressUpdate
	progress     engine.ProgressUpdate
	cancelRun    context.CancelFunc
	stopping     bool
	summary      *engine.SyncSummary
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over the given records.
// Every non-synced record starts selected.
func NewModel(ctx context.Context, eng *engine.Engine, records []*models.WatchRecord) *Model {
	selected := make(map[int]bool, len(records))
	for i, rec := range records {
		selected[i] = rec.Status != models.StatusSynced
	}

	m := &Model{
		ctx:      ctx,
		view:     RecordListView,
		engine:   eng,
		records:  records,
		selected: selected,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	m.recordList = list.New(m.items(), list.NewDefaultDelegate(), 0, 0)
	m.recordList.Title = "Watch Records"
	return m
}

func (m *Model) items() []list.Item {
	items := make([]list.Item, len(m.records))
	for i, rec := range m.records {
		items[i] = recordItem{record: rec, selected: m.selected[i]}
	}
	return items
}

func (m *Model) selectedRecords() []*models.WatchRecord {
	var out []*models.WatchRecord
	for i, rec := range m.records {
		if m.selected[i] {
			out = append(out, rec)
		}
	}
	return out
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recordList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RecordListView:
			return m.handleRecordListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case RunView:
			return m.handleRunKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = engine.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.summary = msg.summary
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.stopping = false
		if m.cancelRun != nil {
			m.cancelRun()
			m.cancelRun = nil
		}
		m.recordList.SetItems(m.items())
		return m, nil
	}

	if m.view == RecordListView {
		var cmd tea.Cmd
		m.recordList, cmd = m.recordList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case RecordListView:
		return m.renderRecordList()
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleRecordListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		i := m.recordList.Index()
		if i >= 0 && i < len(m.records) {
			m.selected[i] = !m.selected[i]
			m.recordList.SetItems(m.items())
		}
		return m, nil
	case "a":
		any := len(m.selectedRecords()) > 0
		for i := range m.records {
			m.selected[i] = !any
		}
		m.recordList.SetItems(m.items())
		return m, nil
	case "enter":
		if len(m.selectedRecords()) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.recordList, cmd = m.recordList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = RecordListView
		return m, nil
	case "y":
		m.view = RunView
		return m, m.startRun()
	}
	return m, nil
}

func (m *Model) handleRunKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		// The pass stops at the next record boundary; the record in
		// flight finishes first.
		if m.cancelRun != nil {
			m.cancelRun()
			m.stopping = true
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = RecordListView
		m.summary = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan engine.ProgressUpdate, 50)
	targets := m.selectedRecords()

	runCtx, cancel := context.WithCancel(m.ctx)
	m.cancelRun = cancel
	m.stopping = false

	go func(ch chan engine.ProgressUpdate) {
		summary, err := m.engine.SyncAll(runCtx, targets, ch)
		m.summary = summary
		m.err = err
		close(ch)
	}(m.progressChan)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return runCompleteMsg{summary: m.summary, err: m.err}
		}
		update, ok := <-ch
		if !ok {
			return runCompleteMsg{summary: m.summary, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderRecordList() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	count := fmt.Sprintf("%d of %d selected", len(m.selectedRecords()), len(m.records))
	return fmt.Sprintf("%s\n%s\n\n%s", m.recordList.View(), styles.help.Render(count), helpView)
}

func (m *Model) renderConfirm() string {
	targets := m.selectedRecords()
	title := styles.title.Render(fmt.Sprintf("Sync %d records to Trakt?", len(targets)))

	var present int
	for _, rec := range targets {
		if rec.Status == models.StatusAlreadyPresent {
			present++
		}
	}

	info := fmt.Sprintf("\nSelected: %d\n", len(targets))
	if present > 0 {
		info += styles.warn.Render(fmt.Sprintf("%d already on Trakt will be submitted as rewatches\n", present))
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Syncing Watch History")

	var line string
	switch m.progress.Phase {
	case engine.SubmitRecord:
		line = fmt.Sprintf("Submitting (%d/%d)", m.progress.Step, m.progress.Total)
	case engine.RecordSynced:
		line = fmt.Sprintf("Synced (%d/%d)", m.progress.Step, m.progress.Total)
	case engine.RecordSkipped:
		line = fmt.Sprintf("Skipped (%d/%d)", m.progress.Step, m.progress.Total)
	case engine.RecordFailed:
		line = styles.err.Render(fmt.Sprintf("Failed (%d/%d)", m.progress.Step, m.progress.Total))
	default:
		line = "Working..."
	}

	footer := styles.help.Render("q: stop after current record")
	if m.stopping {
		footer = styles.warn.Render("Stopping after the current record...")
	}

	return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, line, m.progress.Message, footer)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		if errors.Is(m.err, context.Canceled) && m.summary != nil {
			return fmt.Sprintf("%s\n\nSynced %d of %d before stopping.\n\nPress r to go back, q to quit",
				styles.warn.Render("Sync stopped"), m.summary.Synced, m.summary.Total)
		}
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to go back, q to quit", m.err))
	}
	if m.summary == nil {
		return styles.err.Render("No result available\n\nPress r to go back, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete")
	info := fmt.Sprintf(
		"\nSynced: %d\nSkipped: %d\nFailed: %d\n",
		m.summary.Synced, m.summary.Skipped, m.summary.Failed,
	)

	var failed string
	if m.summary.Failed > 0 {
		failed = "\n" + styles.warn.Render("Failures:")
		for _, rec := range m.records {
			if rec.Status == models.StatusFailed {
				failed += fmt.Sprintf("\n  • %s (%d): %s", rec.Title, rec.Year, rec.LastError)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
