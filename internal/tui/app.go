// Package tui provides the interactive Bubble Tea dashboard for kanyini.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/kanyini-os/kanyini/internal/cli"
	"github.com/kanyini-os/kanyini/internal/config"
	"github.com/kanyini-os/kanyini/internal/model"
	"github.com/kanyini-os/kanyini/internal/pipeline"
	"github.com/kanyini-os/kanyini/internal/store"
	"github.com/kanyini-os/kanyini/internal/tui/components"
	"github.com/kanyini-os/kanyini/internal/tui/theme"
)

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabCampaigns
	tabDonations
	tabSettings
)

// Options configures the dashboard.
type Options struct {
	DataDir  string
	Days     int
	Category string
	Project  string
	AsOf     time.Time // zero means the wall clock
	UseCache bool
}

// DataLoadedMsg is sent when the data pipeline finishes.
type DataLoadedMsg struct {
	Campaigns    []model.Campaign
	Donations    []model.Donation
	UsedDefaults bool
	ParseErrors  int
	LoadTime     time.Duration
	Err          error
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// RefreshDataMsg is sent when a background data refresh completes.
type RefreshDataMsg DataLoadedMsg

// App is the root Bubble Tea model.
type App struct {
	// Data
	campaigns    []model.Campaign
	donations    []model.Donation
	usedDefaults bool
	parseErrors  int
	loadErr      error
	loaded       bool
	loadTime     time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// Pre-computed for current filter
	rows        []model.CampaignProgress
	partition   model.CampaignPartition
	totals      model.CampaignTotals
	summary     model.DonationSummary
	prevSummary model.DonationSummary
	daily       []model.DailyStats
	methods     []model.MethodStats
	recent      []model.Donation // donations in the window, newest first

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	opts Options
	days int

	// Per-tab state
	camp     campaignsState
	don      donationsState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	tickInterval     = 250 * time.Millisecond
)

// loadConfigOrDefault loads config, returning defaults on error so the
// dashboard can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	cfg := loadConfigOrDefault()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	refreshInterval := time.Duration(cfg.TUI.RefreshIntervalSec) * time.Second
	if refreshInterval < 10*time.Second {
		refreshInterval = 30 * time.Second
	}
	if opts.Days < 1 {
		opts.Days = cfg.General.DefaultDays
	}
	if opts.Days < 1 {
		opts.Days = 30
	}

	return App{
		opts:            opts,
		days:            opts.Days,
		needSetup:       !config.Exists(),
		autoRefresh:     cfg.TUI.AutoRefresh,
		refreshInterval: refreshInterval,
		spinner:         sp,
		loadSub:         make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a App) now() time.Time {
	if !a.opts.AsOf.IsZero() {
		return a.opts.AsOf
	}
	return time.Now()
}

func (a *App) recompute() {
	now := a.now()
	since := now.AddDate(0, 0, -a.days)

	campaigns, donations := pipeline.FilterScope(a.campaigns, a.donations, a.opts.Category, a.opts.Project)

	a.totals = pipeline.AggregateCampaigns(campaigns)
	a.partition = pipeline.PartitionCampaigns(campaigns, now)

	listed := campaigns
	if a.camp.activeOnly {
		listed = a.partition.Active
	}
	a.rows = pipeline.BuildProgress(listed, now)
	pipeline.SortProgress(a.rows, a.camp.sortKey)

	periods := pipeline.ComparePeriods(donations, since, now)
	a.summary, a.prevSummary = periods.Current, periods.Previous
	a.daily = pipeline.AggregateDonationDays(donations, since, now)
	a.methods = pipeline.AggregateMethods(donations, since, now)

	windowed := pipeline.FilterDonationsByTime(donations, since, now)
	a.recent = make([]model.Donation, len(windowed))
	copy(a.recent, windowed)
	pipeline.SortDonationsByDate(a.recent)

	a.camp.cursor = clampCursor(a.camp.cursor, len(a.rows))
	a.don.cursor = clampCursor(a.don.cursor, len(a.searchFilteredDonations()))
}

func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		return a.updateKey(msg)

	case DataLoadedMsg:
		a.applyData(msg)
		a.loaded = true

		if a.needSetup {
			a.setupVals = DefaultSetupValues(loadConfigOrDefault(), a.opts.DataDir)
			a.setupForm = NewSetupForm(&a.setupVals, len(a.campaigns), len(a.donations))
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.autoRefresh && !a.refreshing && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshDataCmd(a.opts))
		}
		return a, tea.Batch(cmds...)

	case RefreshDataMsg:
		a.refreshing = false
		if msg.Err == nil {
			a.applyData(DataLoadedMsg(msg))
		} else {
			a.loadErr = msg.Err
			a.lastRefresh = time.Now()
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a *App) applyData(msg DataLoadedMsg) {
	a.loadErr = msg.Err
	a.loadTime = msg.LoadTime
	a.lastRefresh = time.Now()
	if msg.Err != nil {
		return
	}
	a.campaigns = msg.Campaigns
	a.donations = msg.Donations
	a.usedDefaults = msg.UsedDefaults
	a.parseErrors = msg.ParseErrors
	a.recompute()
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabDonations && a.don.searching {
		return a.updateDonationSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	var handled bool
	var cmd tea.Cmd
	switch a.activeTab {
	case tabCampaigns:
		a, cmd, handled = a.updateCampaignsKey(key)
	case tabDonations:
		a, cmd, handled = a.updateDonationsKey(key)
	case tabSettings:
		a, cmd, handled = a.updateSettingsKey(key)
	}
	if handled {
		return a, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, refreshDataCmd(a.opts)
		}
		return a, nil
	case "R":
		a.autoRefresh = !a.autoRefresh
		cfg := loadConfigOrDefault()
		cfg.TUI.AutoRefresh = a.autoRefresh
		_ = config.Save(cfg)
		return a, nil
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if runes := []rune(key); len(runes) == 1 {
		if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a, _, _ = a.scrollActive(-1)
	case tea.MouseButtonWheelDown:
		a, _, _ = a.scrollActive(1)
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

// scrollActive moves the cursor of the list on the active tab.
func (a App) scrollActive(delta int) (App, tea.Cmd, bool) {
	switch a.activeTab {
	case tabCampaigns:
		a.camp.cursor = clampCursor(a.camp.cursor+delta, len(a.rows))
		return a, nil, true
	case tabDonations:
		a.don.cursor = clampCursor(a.don.cursor+delta, len(a.searchFilteredDonations()))
		return a, nil, true
	}
	return a, nil, false
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		a.recompute()
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a *App) saveSetupConfig() {
	cfg := loadConfigOrDefault()
	ApplySetup(&cfg, a.setupVals)
	a.days = cfg.General.DefaultDays
	if f, err := cli.NewFormatter(cfg.General.Locale, cfg.General.Currency); err == nil {
		cli.SetDefault(f)
	}
	theme.SetActive(cfg.Appearance.Theme)
	a.settings.saveErr = config.Save(cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  kanyini needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ kanyini"))
	b.WriteString(subtitleStyle.Render(" · Campaign Metrics"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		b.WriteString(subtitleStyle.Render(" Reading fixtures\n\n"))
		b.WriteString(components.LoadBar(float64(a.progress)/float64(a.progressMax), barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(a.progress)))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(a.progressMax)))
		b.WriteString(subtitleStyle.Render(" files"))
	} else {
		b.WriteString(subtitleStyle.Render(" Scanning " + a.opts.DataDir))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Sand).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o c d s", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Move selection"},
			{"g G", "First / Last row"},
		}},
		{"Campaigns", [][2]string{
			{"Enter", "Toggle detail"},
			{"a", "Active only / All"},
			{"S", "Cycle sort order"},
		}},
		{"Donations", [][2]string{
			{"/", "Search donor, campaign, method"},
			{"Esc", "Clear search"},
		}},
		{"General", [][2]string{
			{"r", "Reload fixtures"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	// Header: tab bar + filter pill
	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filterStr := pill.Render(" ") + pillAccent.Render(fmt.Sprintf("%dd", a.days))
	if !a.opts.AsOf.IsZero() {
		filterStr += pill.Render(" │ as of ") + pillAccent.Render(a.opts.AsOf.Format("2006-01-02"))
	}
	if a.opts.Category != "" {
		filterStr += pill.Render(" │ ") + pillAccent.Render(a.opts.Category)
	}
	if a.opts.Project != "" {
		filterStr += pill.Render(" │ project ") + pillAccent.Render(a.opts.Project)
	}

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	status := components.StatusInfo{
		DataAge:     fmt.Sprintf("%.1fs", a.loadTime.Seconds()),
		Refreshing:  a.refreshing,
		AutoRefresh: a.autoRefresh,
		Defaults:    a.usedDefaults,
	}
	if a.loadErr != nil {
		status.Message = "load failed: " + a.loadErr.Error()
	}
	statusBar := components.RenderStatusBar(w, status)

	contentH := max(minContentHeight, a.height-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabCampaigns:
		content = a.renderCampaignsTab(cw, contentH)
	case tabDonations:
		content = a.renderDonationsTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Loading ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadData runs the pipeline, preferring the sqlite cache when enabled.
func loadData(opts Options, progressFn pipeline.ProgressFunc) DataLoadedMsg {
	start := time.Now()

	if opts.UseCache {
		cache, err := store.Open(pipeline.CachePath())
		if err == nil {
			cr, loadErr := pipeline.LoadWithCache(opts.DataDir, cache, progressFn)
			_ = cache.Close()
			if loadErr == nil {
				return loadedMsg(&cr.LoadResult, time.Since(start))
			}
		}
	}

	result, err := pipeline.Load(opts.DataDir, progressFn)
	if err != nil {
		return DataLoadedMsg{LoadTime: time.Since(start), Err: err}
	}
	return loadedMsg(result, time.Since(start))
}

func loadedMsg(r *pipeline.LoadResult, took time.Duration) DataLoadedMsg {
	return DataLoadedMsg{
		Campaigns:    r.Campaigns,
		Donations:    r.Donations,
		UsedDefaults: r.UsedDefaults,
		ParseErrors:  r.ParseErrors,
		LoadTime:     took,
	}
}

// loadDataCmd starts the data loading pipeline in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			// Non-blocking send: a dropped update is caught up by the next one.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}
			sub <- loadData(opts, progressFn)
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// refreshDataCmd reloads data in the background without progress UI.
func refreshDataCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		return RefreshDataMsg(loadData(opts, nil))
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds X-axis labels for days sorted newest-first;
// labels are returned oldest-left. Month starts show the month name.
func chartDateLabels(days []model.DailyStats) []string {
	n := len(days)
	labels := make([]string, n)
	prevMonth := time.Month(0)
	for i := range days {
		dt := days[n-1-i].Date
		if i == 0 || dt.Month() != prevMonth {
			labels[i] = dt.Format("Jan")
		} else {
			labels[i] = strconv.Itoa(dt.Day())
		}
		prevMonth = dt.Month()
	}
	return labels
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar uses.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
