// Package terminal は社員一覧をターミナルに描画する bubbletea モデルです。
// クエリ結果が変化するたびに Update へメッセージが届き、View が再描画されます。
package terminal

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/ogurasousui/talent-explorer/internal/core/talent"
	"github.com/ogurasousui/talent-explorer/internal/query"
	"github.com/ogurasousui/talent-explorer/internal/ui/page"
	"github.com/ogurasousui/talent-explorer/internal/ui/table"
)

// EmployeesQuery はモデルが購読する社員クエリです。
type EmployeesQuery interface {
	Mount() (*talent.Observer, error)
	Refresh()
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	messageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
)

type mountedMsg struct {
	obs *talent.Observer
}

type resultMsg struct {
	result table.Result
}

type mountFailedMsg struct {
	err error
}

type closedMsg struct{}

// Model は社員一覧画面の状態です。
type Model struct {
	query  EmployeesQuery
	obs    *talent.Observer
	result table.Result
	keys   keyMap
	help   help.Model
	now    func() time.Time
	logf   func(string, ...any)

	fingerprint uint64
	renders     int
	width       int
}

// Option は Model の挙動を変更します。
type Option func(*Model)

// WithClock は "updated" 表示に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger はマウント失敗などの記録先を設定します。
func WithLogger(logf func(string, ...any)) Option {
	return func(m *Model) {
		if logf != nil {
			m.logf = logf
		}
	}
}

// New は Model を生成します。
func New(q EmployeesQuery, opts ...Option) *Model {
	m := &Model{
		query: q,
		keys:  defaultKeys,
		help:  help.New(),
		now:   time.Now,
		logf:  func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.fingerprint = table.Fingerprint(table.Build(m.result))
	return m
}

// Init は社員クエリをマウントします。
func (m *Model) Init() tea.Cmd {
	q := m.query
	return func() tea.Msg {
		obs, err := q.Mount()
		if err != nil {
			return mountFailedMsg{err: err}
		}
		return mountedMsg{obs: obs}
	}
}

// Update はメッセージに応じて状態を更新します。
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case mountedMsg:
		m.obs = msg.obs
		m.setResult(msg.obs.Result())
		return m, waitForUpdate(msg.obs)

	case resultMsg:
		m.setResult(msg.result)
		return m, waitForUpdate(m.obs)

	case mountFailedMsg:
		m.logf("terminal: mount employees query: %v", msg.err)
		m.setResult(table.Result{Status: query.StatusError})
		return m, nil

	case closedMsg:
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.obs != nil {
				m.query.Refresh()
			}
			return m, nil
		}
	}
	return m, nil
}

// View は現在の結果を描画します。
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(page.Heading))
	b.WriteString("\n")
	b.WriteString(m.body())
	b.WriteString("\n")
	if footer := m.footer(); footer != "" {
		b.WriteString(footerStyle.Render(footer))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Close はクエリをアンマウントします。複数回呼んでも安全です。
func (m *Model) Close() {
	if m.obs != nil {
		m.obs.Close()
	}
}

// Result は最後に受け取ったクエリ結果です。
func (m *Model) Result() table.Result {
	return m.result
}

// Renders は表示内容が実際に変化した回数です。
func (m *Model) Renders() int {
	return m.renders
}

func (m *Model) setResult(res table.Result) {
	m.result = res
	fp := table.Fingerprint(table.Build(res))
	if fp != m.fingerprint {
		m.fingerprint = fp
		m.renders++
	}
}

func (m *Model) body() string {
	view := table.Build(m.result)
	switch view.Kind {
	case table.KindLoading:
		return messageStyle.Render(view.Message)
	case table.KindError:
		return errorStyle.Render(view.Message)
	}

	rows := make([][]string, 0, len(view.Rows))
	for _, row := range view.Rows {
		rows = append(rows, row.Cells[:])
	}

	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(view.Header[:]...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if m.width > 0 {
		t = t.Width(m.width)
	}
	return t.String()
}

func (m *Model) footer() string {
	var parts []string
	if m.result.Status == query.StatusSuccess && !m.result.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+humanize.RelTime(m.result.UpdatedAt, m.now(), "ago", "from now"))
		parts = append(parts, humanize.Comma(int64(len(m.result.Data)))+" employees")
	}
	if m.result.Fetching && m.result.Status == query.StatusSuccess {
		parts = append(parts, "refreshing")
	}
	return strings.Join(parts, " · ")
}

func waitForUpdate(obs *talent.Observer) tea.Cmd {
	if obs == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-obs.Updates(); !ok {
			return closedMsg{}
		}
		return resultMsg{result: obs.Result()}
	}
}
