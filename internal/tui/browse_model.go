package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"github.com/rshade/storekit/internal/catalog"
	"github.com/rshade/storekit/internal/debounce"
	"github.com/rshade/storekit/internal/faults"
	"github.com/rshade/storekit/internal/logging"
	"github.com/rshade/storekit/internal/table"
	listview "github.com/rshade/storekit/internal/tui/list"
)

// Layout defaults.
const (
	defaultWidth         = 100
	defaultHeight        = 24
	chromeHeight         = 8
	searchInputCharLimit = 64
	searchInputWidth     = 40
	columnGap            = "  "
)

// Fetcher answers one page query. It is called off the update loop.
type Fetcher func(ctx context.Context, q catalog.Query) (catalog.Result, error)

// BrowseOptions configures a BrowseModel.
type BrowseOptions struct {
	PageSize int
	Sort     table.SortState
	Language language.Tag
	// Debounce is the search quiet interval. Zero searches on every key.
	Debounce time.Duration
	// Clock drives the search debouncer; nil uses the wall clock.
	Clock debounce.Clock
	// Reloaded triggers a refetch of the current page when it receives.
	Reloaded <-chan struct{}
}

// pageLoadedMsg carries the outcome of one fetch. seq identifies the request
// so that responses to superseded queries are dropped.
type pageLoadedMsg struct {
	seq   uint64
	query catalog.Query
	res   catalog.Result
	err   error
}

// searchSettledMsg is emitted once typing has paused for the debounce delay.
type searchSettledMsg struct{ term string }

// sourceReloadedMsg is emitted when the backing document changed.
type sourceReloadedMsg struct{}

// BrowseModel is the interactive product browser. The table runs in
// controlled mode: page and sort changes issue a new backend query and the
// table shows whatever page the backend returns.
type BrowseModel struct {
	ctx   context.Context
	fetch Fetcher
	state ViewState

	table  *table.Model[catalog.Product]
	rows   *listview.Window
	query  catalog.Query
	seq    uint64
	queued tea.Cmd

	search    textinput.Model
	searching bool
	debouncer *debounce.Debouncer[string]
	settled   chan string
	unbind    func() bool
	reloaded  <-chan struct{}

	loading *LoadingState
	err     *faults.Normalized

	width  int
	height int
}

// NewBrowseModel builds the model. The first page is requested by Init.
func NewBrowseModel(ctx context.Context, fetch Fetcher, opts BrowseOptions) (*BrowseModel, error) {
	m := &BrowseModel{
		ctx:      ctx,
		fetch:    fetch,
		state:    ViewStateLoading,
		search:   newSearchInput(),
		settled:  make(chan string, 1),
		reloaded: opts.Reloaded,
		loading:  NewLoadingState(),
		width:    defaultWidth,
		height:   defaultHeight,
		query: catalog.Query{
			Page:     1,
			PageSize: opts.PageSize,
			Sort:     catalog.Sort{Key: opts.Sort.Key, Desc: opts.Sort.Direction == table.Desc},
		},
	}

	tm, err := table.New(nil, catalog.Columns(ctx), table.Config{
		PageSize:     opts.PageSize,
		Controlled:   true,
		OnPageChange: m.onPageChange,
		OnSortChange: m.onSortChange,
		Language:     opts.Language,
	})
	if err != nil {
		return nil, err
	}
	m.table = tm
	if opts.Sort.Active() && !tm.SetSort(opts.Sort) {
		return nil, fmt.Errorf("%w: unknown sort key %q", table.ErrConfiguration, opts.Sort.Key)
	}
	// Init issues the first fetch.
	m.queued = nil

	var dopts []debounce.Option
	if opts.Clock != nil {
		dopts = append(dopts, debounce.WithClock(opts.Clock))
	}
	m.debouncer = debounce.New(opts.Debounce, m.publishSearch, dopts...)
	m.unbind = m.debouncer.BindContext(ctx)

	m.rows = listview.New(m.rowsHeight(), renderRow)
	return m, nil
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "Search name, SKU or category..."
	ti.CharLimit = searchInputCharLimit
	ti.Width = searchInputWidth
	ti.Prompt = "/ "
	return ti
}

// Close cancels a pending search.
func (m *BrowseModel) Close() {
	m.debouncer.Cancel()
	m.unbind()
}

// State returns the current screen.
func (m *BrowseModel) State() ViewState {
	return m.state
}

// Query returns the most recently issued query.
func (m *BrowseModel) Query() catalog.Query {
	return m.query
}

// Err returns the last fetch failure, or nil.
func (m *BrowseModel) Err() *faults.Normalized {
	return m.err
}

// Init requests the first page and starts listening for settled searches
// and source reloads.
func (m *BrowseModel) Init() tea.Cmd {
	return tea.Batch(m.loading.Init(), m.fetchCmd(), m.waitForSearch(), m.waitForReload())
}

// Update handles messages.
func (m *BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.rows.SetHeight(m.rowsHeight())
		return m, nil
	case pageLoadedMsg:
		return m, m.handlePageLoaded(msg)
	case searchSettledMsg:
		return m, tea.Batch(m.applySearch(msg.term), m.waitForSearch())
	case sourceReloadedMsg:
		logging.FromContext(m.ctx).Debug().Str("component", "tui").Msg("source reloaded, refreshing page")
		return m, tea.Batch(m.fetchCmd(), m.waitForReload())
	case tea.KeyMsg:
		if m.searching {
			return m, m.handleSearchKey(msg)
		}
		return m, m.handleKey(msg)
	}

	if m.state == ViewStateLoading {
		return m, m.loading.Update(msg)
	}
	return m, nil
}

func (m *BrowseModel) handlePageLoaded(msg pageLoadedMsg) tea.Cmd {
	if msg.seq != m.seq {
		return nil
	}
	if msg.err != nil {
		m.err = faults.Normalize(msg.err)
		m.state = ViewStateError
		logging.FromContext(m.ctx).Warn().
			Str("component", "tui").
			Str("code", m.err.Code).
			Int("status", m.err.StatusCode).
			Bool("retryable", faults.IsRetryable(msg.err)).
			Msg(m.err.Message)
		return nil
	}

	m.err = nil
	m.state = ViewStateList
	m.table.SetTotalItems(msg.res.Total)
	m.table.SetCurrentPage(msg.query.Page)
	m.table.SetData(msg.res.Items)
	m.refreshRows()

	// The result set shrank under the requested page; load the new last page.
	if page := m.table.CurrentPage(); page != msg.query.Page {
		m.query.Page = page
		return m.fetchCmd()
	}
	return nil
}

//nolint:cyclop // One branch per key binding.
func (m *BrowseModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case keyQuit, keyCtrlC:
		m.state = ViewStateQuitting
		m.Close()
		return tea.Quit
	case keyRetry:
		return m.fetchCmd()
	}

	if m.state != ViewStateList {
		return nil
	}

	switch key {
	case keySlash:
		m.searching = true
		return m.search.Focus()
	case keyNext, keyRight:
		if m.table.HasNext() {
			m.table.NextPage()
		}
	case keyPrev, keyLeft:
		if m.table.HasPrev() {
			m.table.PrevPage()
		}
	case keyReset:
		if m.table.Sort().Active() {
			m.table.ResetSort()
		}
	case keyEsc:
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.debouncer.Cancel()
			return m.applySearch("")
		}
	default:
		if i, ok := columnIndex(key); ok && i < len(m.table.Columns()) {
			m.table.ToggleSort(m.table.Columns()[i].Key)
		} else {
			m.rows.Update(msg)
		}
	}
	return m.takeQueued()
}

func (m *BrowseModel) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case keyCtrlC:
		m.state = ViewStateQuitting
		m.Close()
		return tea.Quit
	case keyEnter:
		m.searching = false
		m.search.Blur()
		m.debouncer.Flush()
		return nil
	case keyEsc:
		m.searching = false
		m.search.Blur()
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.debouncer.Call(m.search.Value())
	}
	return cmd
}

// columnIndex maps the keys "1".."9" to column indexes.
func columnIndex(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

// onPageChange is the table's page request callback.
func (m *BrowseModel) onPageChange(page int) {
	m.query.Page = page
	m.queued = m.fetchCmd()
}

// onSortChange is the table's sort callback. Paging restarts under the new
// order.
func (m *BrowseModel) onSortChange(s table.SortState) {
	m.query.Sort = catalog.Sort{Key: s.Key, Desc: s.Direction == table.Desc}
	m.query.Page = 1
	m.queued = m.fetchCmd()
}

func (m *BrowseModel) takeQueued() tea.Cmd {
	cmd := m.queued
	m.queued = nil
	return cmd
}

func (m *BrowseModel) applySearch(term string) tea.Cmd {
	term = strings.TrimSpace(term)
	if term == m.query.Search {
		return nil
	}
	m.query.Search = term
	m.query.Page = 1
	return m.fetchCmd()
}

// fetchCmd issues the current query. Earlier in-flight requests become
// stale.
func (m *BrowseModel) fetchCmd() tea.Cmd {
	m.seq++
	seq, q, fetch, ctx := m.seq, m.query, m.fetch, m.ctx
	if m.state != ViewStateList {
		m.state = ViewStateLoading
	}
	return func() tea.Msg {
		res, err := fetch(ctx, q)
		return pageLoadedMsg{seq: seq, query: q, res: res, err: err}
	}
}

// publishSearch runs on the debouncer's timer. It keeps only the newest
// term so the channel never blocks.
func (m *BrowseModel) publishSearch(term string) {
	for {
		select {
		case m.settled <- term:
			return
		default:
			select {
			case <-m.settled:
			default:
			}
		}
	}
}

func (m *BrowseModel) waitForSearch() tea.Cmd {
	settled, done := m.settled, m.ctx.Done()
	return func() tea.Msg {
		select {
		case term := <-settled:
			return searchSettledMsg{term: term}
		case <-done:
			return nil
		}
	}
}

func (m *BrowseModel) waitForReload() tea.Cmd {
	if m.reloaded == nil {
		return nil
	}
	reloaded, done := m.reloaded, m.ctx.Done()
	return func() tea.Msg {
		select {
		case <-reloaded:
			return sourceReloadedMsg{}
		case <-done:
			return nil
		}
	}
}

func (m *BrowseModel) rowsHeight() int {
	return m.height - chromeHeight
}

func (m *BrowseModel) refreshRows() {
	v := m.table.View()
	widths := columnWidths(v)
	lines := make([]string, len(v.Rows))
	for i, cells := range v.Rows {
		lines[i] = joinCells(cells, widths)
	}
	m.rows.SetRows(lines)
}

func renderRow(row string, selected bool) string {
	if selected {
		return lipgloss.NewStyle().Foreground(ColorHighlight).Background(ColorAccent).Render(row)
	}
	return ValueStyle.Render(row)
}

// headerLabel is the rendered header of column i, prefixed with its sort key.
func headerLabel(i int, h table.HeaderCell) string {
	return fmt.Sprintf("%d:%s", i+1, h.Label())
}

// columnWidths sizes each column to its widest header label or cell.
func columnWidths(v table.View) []int {
	widths := make([]int, len(v.Headers))
	for i, h := range v.Headers {
		widths[i] = lipgloss.Width(headerLabel(i, h))
	}
	for _, cells := range v.Rows {
		for i, c := range cells {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}
	return widths
}

func joinCells(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = c + strings.Repeat(" ", max(widths[i]-lipgloss.Width(c), 0))
	}
	return strings.Join(padded, columnGap)
}

// View renders the current screen.
func (m *BrowseModel) View() string {
	if m.state == ViewStateQuitting {
		return ""
	}

	parts := []string{TitleStyle.Render("storekit"), m.renderSearch()}

	switch m.state {
	case ViewStateLoading:
		parts = append(parts, RenderLoading(m.loading))
	case ViewStateError:
		parts = append(parts, m.renderError())
	default:
		parts = append(parts, m.renderTable(), m.renderPager())
	}

	parts = append(parts, MutedStyle.Render(m.helpText()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *BrowseModel) renderSearch() string {
	if m.searching || m.search.Value() != "" {
		return m.search.View()
	}
	return MutedStyle.Render("press / to search")
}

func (m *BrowseModel) renderTable() string {
	v := m.table.View()
	if len(v.Rows) == 0 {
		return MutedStyle.Render("No products match.")
	}
	labels := make([]string, len(v.Headers))
	for i, h := range v.Headers {
		labels[i] = headerLabel(i, h)
	}
	header := HeaderStyle.Render(joinCells(labels, columnWidths(v)))
	return lipgloss.JoinVertical(lipgloss.Left, header, m.rows.View())
}

func (m *BrowseModel) renderPager() string {
	p := m.table.View().Page
	return LabelStyle.Render(fmt.Sprintf("Page %d of %d  (%d products)", p.Current, p.Total, p.TotalItems))
}

func (m *BrowseModel) renderError() string {
	var sb strings.Builder
	sb.WriteString(CriticalStyle.Render("Error: " + m.err.Message))
	if m.err.Code != "" || m.err.StatusCode != 0 {
		sb.WriteString("\n")
		sb.WriteString(LabelStyle.Render(fmt.Sprintf("code %s, status %d", m.err.Code, m.err.StatusCode)))
	}
	return sb.String()
}

func (m *BrowseModel) helpText() string {
	switch {
	case m.searching:
		return "[Enter] Search now  [Esc] Done"
	case m.state == ViewStateError:
		return "[r] Retry  [q] Quit"
	default:
		return "[/] Search  [1-9] Sort  [0] Unsort  [n/p] Page  [↑↓] Move  [r] Refresh  [q] Quit"
	}
}
