package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	pollInterval = 200 * time.Millisecond
	floorCols    = 64
	floorRows    = 18
	historySize  = 20
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu     list.Model
	orderTable   table.Model
	historyTable table.Model
	tokenInput   textinput.Model
	spinner      spinner.Model
	client       *ApiClient

	layout   *Layout
	snapshot *Snapshot
	report   *Report
	profile  *Profile
	selected int

	loading     bool
	currentView string
	message     string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Start Shift", desc: "Start a new kitchen session"},
		item{title: "Shift History", desc: "Review your finished sessions"},
		item{title: "Profile", desc: "Coins, XP and level"},
		item{title: "Sign In", desc: "Set the player token"},
		item{title: "Exit", desc: "Exit the application"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Kitchen Rush"

	orderTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Dish", Width: 22},
			{Title: "Next Station", Width: 14},
			{Title: "Status", Width: 12},
			{Title: "Time", Width: 6},
			{Title: "Quality", Width: 8},
		}),
		table.WithHeight(5),
	)

	historyTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Ended", Width: 17},
			{Title: "Score", Width: 7},
			{Title: "Served", Width: 7},
			{Title: "Failed", Width: 7},
			{Title: "Accuracy", Width: 9},
			{Title: "Grade", Width: 6},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	ti := textinput.New()
	ti.Placeholder = "Paste a bearer token..."
	ti.CharLimit = 1024
	ti.Width = 48
	ti.EchoMode = textinput.EchoPassword

	return Model{
		mainMenu:     mainMenu,
		orderTable:   orderTable,
		historyTable: historyTable,
		tokenInput:   ti,
		spinner:      s,
		client:       NewApiClient(),
		currentView:  "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen, checkHealth(m.client))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentView == "play" {
			return m.updatePlay(msg)
		}
		switch msg.String() {
		case "q":
			if m.currentView != "signin" {
				return m, tea.Quit
			}
		case "esc":
			m.tokenInput.Blur()
			m.currentView = "main"
			m.error = ""
			return m, nil
		case "enter":
			switch m.currentView {
			case "main":
				return m.selectMenu()
			case "signin":
				m.client.Token = strings.TrimSpace(m.tokenInput.Value())
				m.tokenInput.Blur()
				m.currentView = "main"
				m.message = "Token saved"
				return m, nil
			case "recap":
				m.currentView = "main"
				return m, nil
			}
		}
	case layoutMsg:
		m.layout = msg.layout
		return m, nil
	case snapshotMsg:
		m.loading = false
		m.snapshot = msg.snapshot
		m.orderTable.SetRows(orderRows(msg.snapshot))
		if msg.snapshot.Status == "ended" {
			return m, endSession(m.client, msg.snapshot.SessionID)
		}
		return m, nil
	case tickMsg:
		if m.currentView != "play" {
			return m, nil
		}
		if m.snapshot == nil {
			return m, tick()
		}
		return m, tea.Batch(fetchSnapshot(m.client, m.snapshot.SessionID), tick())
	case answerMsg:
		if msg.result.Correct {
			m.message = successStyle.Render(fmt.Sprintf("Correct! +%d", msg.result.Points))
		} else {
			m.message = errorStyle.Render("Not quite: "+msg.result.CorrectChoiceID) + " " + msg.result.Explanation
		}
		return m, fetchSnapshot(m.client, m.snapshot.SessionID)
	case reportMsg:
		m.report = msg.report
		m.snapshot = nil
		m.currentView = "recap"
		return m, nil
	case historyMsg:
		m.loading = false
		m.historyTable.SetRows(historyRows(msg.records))
		return m, nil
	case profileMsg:
		m.loading = false
		m.profile = msg.profile
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		return m, nil
	case confirmMsg:
		m.error = ""
		m.message = msg.message
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "history":
		m.historyTable, cmd = m.historyTable.Update(msg)
	case "signin":
		m.tokenInput, cmd = m.tokenInput.Update(msg)
	}
	return m, cmd
}

func (m Model) selectMenu() (tea.Model, tea.Cmd) {
	selected, ok := m.mainMenu.SelectedItem().(item)
	if !ok {
		return m, nil
	}
	m.error = ""
	m.message = ""
	switch selected.title {
	case "Exit":
		return m, tea.Quit
	case "Start Shift":
		m.currentView = "play"
		m.loading = true
		m.selected = 0
		return m, tea.Batch(fetchLayout(m.client), startSession(m.client), tick())
	case "Shift History":
		m.currentView = "history"
		m.loading = true
		return m, fetchHistory(m.client)
	case "Profile":
		m.currentView = "profile"
		m.loading = true
		return m, fetchProfile(m.client)
	case "Sign In":
		m.currentView = "signin"
		m.tokenInput.SetValue(m.client.Token)
		return m, m.tokenInput.Focus()
	}
	return m, nil
}

// updatePlay maps keys to session input. The open modal decides what keys mean.
func (m Model) updatePlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.snapshot == nil {
		if msg.String() == "esc" {
			m.currentView = "main"
		}
		return m, nil
	}
	id := m.snapshot.SessionID
	key := msg.String()

	switch {
	case m.snapshot.Question != nil:
		if len(key) == 1 {
			if n := int(key[0]) - '1'; n >= 0 && n < len(m.snapshot.Question.Choices) {
				return m, answer(m.client, id, m.snapshot.Question.Choices[n].ID)
			}
		}
	case m.snapshot.Mechanic != nil:
		switch key {
		case " ":
			return m, run(func() error {
				_, err := m.client.MechanicAction(id)
				return err
			}, m.client, id)
		case "esc":
			return m, run(func() error { return m.client.AbandonMechanic(id) }, m.client, id)
		}
	case m.snapshot.Recipe != nil:
		if key == "enter" || key == "esc" {
			return m, run(func() error { return m.client.DismissRecipe(id) }, m.client, id)
		}
	}
	if m.snapshot.Paused {
		return m, nil
	}

	switch key {
	case "up", "w":
		return m, run(func() error { return m.client.SetKeys(id, 0, -1) }, m.client, id)
	case "down", "s":
		return m, run(func() error { return m.client.SetKeys(id, 0, 1) }, m.client, id)
	case "left", "a":
		return m, run(func() error { return m.client.SetKeys(id, -1, 0) }, m.client, id)
	case "right", "d":
		return m, run(func() error { return m.client.SetKeys(id, 1, 0) }, m.client, id)
	case " ", "x":
		return m, run(func() error { return m.client.SetKeys(id, 0, 0) }, m.client, id)
	case "tab":
		if m.layout != nil && len(m.layout.Stations) > 0 {
			m.selected = (m.selected + 1) % len(m.layout.Stations)
		}
	case "shift+tab":
		if m.layout != nil && len(m.layout.Stations) > 0 {
			m.selected = (m.selected + len(m.layout.Stations) - 1) % len(m.layout.Stations)
		}
	case "enter":
		if m.layout != nil && len(m.layout.Stations) > 0 {
			station := m.layout.Stations[m.selected].ID
			return m, run(func() error { return m.client.MoveToStation(id, station) }, m.client, id)
		}
	case "e":
		return m, run(func() error { return m.client.Interact(id) }, m.client, id)
	case "q", "esc":
		return m, endSession(m.client, id)
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	status := ""
	if m.error != "" {
		status = "\n" + errorStyle.Render(m.error)
	} else if m.message != "" {
		status = "\n" + m.message
	}

	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View() + status)
	case "play":
		if m.snapshot == nil {
			return docStyle.Render(m.spinner.View() + " Opening the kitchen..." + status)
		}
		return docStyle.Render(m.playView() + status)
	case "recap":
		return docStyle.Render(recapView(m.report) + "\n\nPress 'enter' to return to the menu")
	case "history":
		if m.loading {
			return docStyle.Render(m.spinner.View() + " Loading history...")
		}
		return docStyle.Render(titleStyle.Render("Shift History") + "\n\n" + m.historyTable.View() + status + "\n\nPress 'esc' to go back")
	case "profile":
		if m.loading {
			return docStyle.Render(m.spinner.View() + " Loading profile...")
		}
		return docStyle.Render(profileView(m.profile) + status + "\n\nPress 'esc' to go back")
	case "signin":
		return docStyle.Render(titleStyle.Render("Sign In") + "\n\n" + m.tokenInput.View() + "\n\nPress 'enter' to save, 'esc' to cancel")
	default:
		return "Loading..."
	}
}

func (m Model) playView() string {
	s := m.snapshot
	header := titleStyle.Render("Kitchen Rush") + " " +
		infoStyle.Render(fmt.Sprintf("Score %d", s.Score)) + " " +
		infoStyle.Render(formatClock(s.TimeLeft)) + " " +
		infoStyle.Render(fmt.Sprintf("Served %d  Failed %d", s.OrdersCompleted, s.OrdersFailed))

	var b strings.Builder
	b.WriteString(header + "\n\n")
	b.WriteString(renderFloor(m.layout, s) + "\n")

	if m.layout != nil && len(m.layout.Stations) > 0 {
		st := m.layout.Stations[m.selected]
		b.WriteString(fmt.Sprintf("Walk to: %s", st.Name))
	}
	if s.Highlight != "" {
		b.WriteString(fmt.Sprintf("   Near: %s", s.Highlight))
	}
	b.WriteString("\n\n" + m.orderTable.View() + "\n")

	if len(s.Inventory) > 0 {
		names := make([]string, len(s.Inventory))
		for i, it := range s.Inventory {
			names[i] = it.Name
		}
		b.WriteString("Carrying: " + strings.Join(names, ", ") + "\n")
	}

	switch {
	case s.Question != nil:
		b.WriteString(modalStyle.Render(questionView(s.Question)) + "\n")
	case s.Mechanic != nil:
		b.WriteString(modalStyle.Render(mechanicView(s.Mechanic)) + "\n")
	case s.Recipe != nil:
		b.WriteString(modalStyle.Render(recipeView(s.Recipe)) + "\n")
	default:
		b.WriteString("\nArrows/WASD move, space stops, tab picks a station, enter walks there, e interacts, q ends the shift")
	}
	return b.String()
}

// renderFloor draws a coarse top-down view: station initials and the player
func renderFloor(layout *Layout, s *Snapshot) string {
	if layout == nil || layout.Width <= 0 || layout.Height <= 0 {
		return ""
	}
	grid := make([][]rune, floorRows)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(".", floorCols))
	}

	cell := func(p Point) (int, int) {
		c := int(p.X / layout.Width * floorCols)
		r := int(p.Y / layout.Height * floorRows)
		return clamp(r, 0, floorRows-1), clamp(c, 0, floorCols-1)
	}
	for _, st := range layout.Stations {
		r, c := cell(st.Position)
		mark := '?'
		if st.Name != "" {
			mark = []rune(strings.ToUpper(st.Name))[0]
		}
		grid[r][c] = mark
	}
	r, c := cell(s.Player.Position)
	grid[r][c] = '@'

	lines := make([]string, floorRows)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	return int(math.Max(float64(lo), math.Min(float64(hi), float64(v))))
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// nextStation returns the first step that is not completed
func nextStation(o Order) string {
	for _, st := range o.Steps {
		if st.Status != "completed" {
			return st.StationType
		}
	}
	return "-"
}

func orderRows(s *Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(s.Orders))
	for _, o := range s.Orders {
		dish := o.DishName
		if o.ID == s.CarriedOrderID {
			dish = "> " + dish
		}
		rows = append(rows, table.Row{
			dish,
			nextStation(o),
			o.Status,
			formatClock(o.TimeRemaining),
			fmt.Sprintf("%d%%", o.QualityScore),
		})
	}
	return rows
}

func historyRows(records []SessionRecord) []table.Row {
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", r.Score),
			fmt.Sprintf("%d", r.OrdersCompleted),
			fmt.Sprintf("%d", r.OrdersFailed),
			fmt.Sprintf("%.0f%%", r.Accuracy),
			r.Grade,
		}
	}
	return rows
}

func questionView(q *Question) string {
	view := titleStyle.Render(strings.ToUpper(q.StationType)+" CHECK") + "\n\n"
	if q.Passage != "" {
		view += q.Passage + "\n\n"
	}
	view += q.Stem + "\n\n"
	for i, c := range q.Choices {
		view += fmt.Sprintf("%d. %s\n", i+1, c.Text)
	}
	return view + "\nPress a number to answer"
}

func mechanicView(mc *Mechanic) string {
	view := titleStyle.Render(strings.ToUpper(mc.Station)) + " " + formatClock(mc.TimeLeft) + "\n\n"
	switch mc.Kind {
	case "timing":
		// meter and window run 0-100
		pos := int(mc.Meter * 40 / 100)
		bar := []rune(strings.Repeat("-", 41))
		for i := int(mc.Window[0] * 40 / 100); i <= int(mc.Window[1]*40/100) && i < len(bar); i++ {
			bar[i] = '='
		}
		bar[clamp(pos, 0, 40)] = '|'
		view += "[" + string(bar) + "]\n"
		view += fmt.Sprintf("Hits %d/%d  Press space inside the window", mc.Progress, mc.Target)
	default:
		view += fmt.Sprintf("%s%s\n", strings.Repeat("#", mc.Progress), strings.Repeat(".", max(mc.Target-mc.Progress, 0)))
		view += fmt.Sprintf("%d/%d  Press space", mc.Progress, mc.Target)
	}
	return view + ", esc to walk away"
}

func recipeView(o *Order) string {
	view := titleStyle.Render(o.DishName) + "\n\n"
	for i, st := range o.Steps {
		view += fmt.Sprintf("%d. %s\n", i+1, st.StationType)
	}
	return view + "\nPress 'enter' to start cooking"
}

func recapView(r *Report) string {
	if r == nil {
		return titleStyle.Render("Shift Over")
	}
	view := titleStyle.Render("Shift Over") + " " + successStyle.Render("Grade "+r.Grade) + "\n\n"
	view += fmt.Sprintf("Score: %d\n", r.Score)
	view += fmt.Sprintf("Orders served: %d   failed: %d\n", r.OrdersCompleted, r.OrdersFailed)
	view += fmt.Sprintf("Questions: %d/%d (%.0f%%)\n", r.QuestionsCorrect, r.QuestionsAttempted, r.Accuracy)
	view += fmt.Sprintf("Earned: %d coins, %d XP", r.Coins, r.XP)
	return view
}

func profileView(p *Profile) string {
	if p == nil {
		return titleStyle.Render("Profile")
	}
	view := titleStyle.Render("Profile: "+p.UserID) + "\n\n"
	view += fmt.Sprintf("Level: %d\n", p.Level)
	view += fmt.Sprintf("XP: %d\n", p.XP)
	view += fmt.Sprintf("Coins: %d\n", p.Coins)
	view += fmt.Sprintf("Shifts: %d\n", p.TotalSessions)
	view += fmt.Sprintf("High score: %d", p.HighScore)
	return view
}

// Custom message types for the tea.Model
type layoutMsg struct {
	layout *Layout
}

type snapshotMsg struct {
	snapshot *Snapshot
}

type answerMsg struct {
	result *AnswerResult
}

type reportMsg struct {
	report *Report
}

type historyMsg struct {
	records []SessionRecord
}

type profileMsg struct {
	profile *Profile
}

type tickMsg time.Time

type errorMsg struct {
	err string
}

type confirmMsg struct {
	message string
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func errorFrom(prefix string, err error) tea.Msg {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return errorMsg{err: fmt.Sprintf("%s: %s", prefix, apiErr.Message)}
	}
	return errorMsg{err: fmt.Sprintf("%s: %v", prefix, err)}
}

// checkHealth reports an unreachable server up front
func checkHealth(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		if _, err := client.CheckHealth(); err != nil {
			return errorFrom("API server at "+client.BaseURL+" is not available", err)
		}
		return confirmMsg{message: "Connected to " + client.BaseURL}
	}
}

func fetchLayout(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		layout, err := client.GetLayout()
		if err != nil {
			return errorFrom("Error fetching layout", err)
		}
		return layoutMsg{layout: layout}
	}
}

func startSession(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		snap, err := client.StartSession()
		if err != nil {
			return errorFrom("Error starting session", err)
		}
		return snapshotMsg{snapshot: snap}
	}
}

func fetchSnapshot(client *ApiClient, id string) tea.Cmd {
	return func() tea.Msg {
		snap, err := client.GetSnapshot(id)
		if err != nil {
			return errorFrom("Error fetching session", err)
		}
		return snapshotMsg{snapshot: snap}
	}
}

// run sends one input and refreshes the snapshot
func run(action func() error, client *ApiClient, id string) tea.Cmd {
	return func() tea.Msg {
		if err := action(); err != nil {
			return errorFrom("Action failed", err)
		}
		return fetchSnapshot(client, id)()
	}
}

func answer(client *ApiClient, id, choiceID string) tea.Cmd {
	return func() tea.Msg {
		res, err := client.Answer(id, choiceID)
		if err != nil {
			return errorFrom("Error submitting answer", err)
		}
		return answerMsg{result: res}
	}
}

func endSession(client *ApiClient, id string) tea.Cmd {
	return func() tea.Msg {
		report, err := client.EndSession(id)
		if err != nil {
			return errorFrom("Error ending session", err)
		}
		return reportMsg{report: report}
	}
}

func fetchHistory(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		records, err := client.GetSessions(historySize)
		if err != nil {
			return errorFrom("Error fetching history", err)
		}
		return historyMsg{records: records}
	}
}

func fetchProfile(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		p, err := client.GetProfile()
		if err != nil {
			return errorFrom("Error fetching profile", err)
		}
		return profileMsg{profile: p}
	}
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
