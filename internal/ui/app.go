package ui

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"bookchain/internal/dapp"
	"bookchain/internal/models"
	"bookchain/internal/ui/components"
	"bookchain/internal/util"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Service is the view logic the UI drives. *dapp.Service implements it.
type Service interface {
	MembershipStatus(ctx context.Context, addr common.Address) (*models.Membership, error)
	BuyMembership(ctx context.Context, amount string, decimals int, observe dapp.TxObserver) (models.TxResult, error)
	Listings(ctx context.Context) ([]models.Listing, error)
	CheckDay(ctx context.Context, listingID uint64, isoDate string) dapp.Availability
	BookDay(ctx context.Context, listing *models.Listing, isoDate string, observe dapp.TxObserver) (models.TxResult, error)
	MyBookings(ctx context.Context, addr common.Address) ([]models.BookingWithDetails, error)
	BlockNumber(ctx context.Context) (uint64, error)
	DateOptions(days int) []util.DateOption
}

var _ Service = (*dapp.Service)(nil)

// Options configures the UI
type Options struct {
	Service          Service
	Context          context.Context
	Address          common.Address // zero when no wallet is connected
	CanSign          bool
	MembershipAmount string
	CurrencySymbol   string
	Decimals         int
	PollInterval     time.Duration
	Logger           *logrus.Logger
}

const (
	tabMembership = iota
	tabListings
	tabBookings
)

var tabNames = []string{"Membership", "Listings", "My Bookings"}

// number of selectable booking days
const dateDays = 14

// Model represents the UI model
type Model struct {
	Viewport      viewport.Model
	Spinner       spinner.Model
	Listings      components.ListingListModel
	IsLoading     bool
	StatusMessage string
	ErrorMessage  string

	Tab          int
	Membership   *models.Membership
	Dates        []util.DateOption
	DateIndex    int
	Availability dapp.Availability
	Bookings     []models.BookingWithDetails
	Tx           models.TxResult
	LastBlock    uint64

	Width  int
	Height int
	Ready  bool

	opts       Options
	ctx        context.Context
	log        *logrus.Logger
	checkedKey string
	blockSeen  bool
	txEvents   chan models.TxResult
}

// NewModel creates a new UI model
func NewModel(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 4 * time.Second
	}
	if opts.Decimals <= 0 {
		opts.Decimals = util.DefaultDecimals
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	return Model{
		Spinner:       s,
		Listings:      components.NewListingListModel(0, 0),
		IsLoading:     true,
		StatusMessage: "Loading...",
		Dates:         opts.Service.DateOptions(dateDays),
		opts:          opts,
		ctx:           ctx,
		log:           log,
		txEvents:      make(chan models.TxResult, 16),
	}
}

// Run starts the terminal UI and blocks until it exits
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		m.loadMembership(),
		m.loadListings(),
		m.loadBookings(),
		waitForTx(m.txEvents),
		tickBlock(m.opts.PollInterval),
	)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "1":
			m.Tab = tabMembership
			return m, nil
		case "2":
			m.Tab = tabListings
			return m, nil
		case "3":
			m.Tab = tabBookings
			return m, nil
		case "tab":
			m.Tab = (m.Tab + 1) % len(tabNames)
			return m, nil
		case "r":
			m.IsLoading = true
			m.ErrorMessage = ""
			m.StatusMessage = "Refreshing..."
			return m, tea.Batch(m.loadMembership(), m.loadListings(), m.loadBookings())
		case "b":
			if m.Tab == tabMembership {
				return m.buy()
			}
		case "[", "]":
			if m.Tab == tabListings && len(m.Dates) > 0 {
				step := 1
				if msg.String() == "[" {
					step = len(m.Dates) - 1
				}
				m.DateIndex = (m.DateIndex + step) % len(m.Dates)
				checkCmd := m.checkAvailability()
				return m, checkCmd
			}
		case "enter":
			if m.Tab == tabListings {
				return m.book()
			}
		}

		switch m.Tab {
		case tabListings:
			var listCmd tea.Cmd
			m.Listings, listCmd = m.Listings.Update(msg)
			checkCmd := m.checkAvailability()
			return m, tea.Batch(listCmd, checkCmd)
		case tabBookings:
			var viewportCmd tea.Cmd
			m.Viewport, viewportCmd = m.Viewport.Update(msg)
			return m, viewportCmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		bodyHeight := msg.Height - 10

		if !m.Ready {
			// First time initializing
			m.Viewport = viewport.New(msg.Width, bodyHeight)
			m.Viewport.SetContent(m.renderBookings())
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = bodyHeight
		}
		m.Listings.SetSize(msg.Width, bodyHeight-3)
		return m, nil

	case spinner.TickMsg:
		var spinnerCmd tea.Cmd
		m.Spinner, spinnerCmd = m.Spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	case membershipMsg:
		if msg.err != nil {
			m.ErrorMessage = fmt.Sprintf("Error reading membership: %v", msg.err)
			return m, nil
		}
		m.Membership = msg.membership
		return m, nil

	case listingsMsg:
		m.IsLoading = false
		if msg.err != nil {
			m.ErrorMessage = fmt.Sprintf("Error loading listings: %v", msg.err)
			m.StatusMessage = "Error"
			return m, nil
		}
		m.Listings.SetListings(msg.listings, m.amount)
		m.StatusMessage = fmt.Sprintf("Loaded %d listings", len(msg.listings))
		m.checkedKey = ""
		checkCmd := m.checkAvailability()
		return m, checkCmd

	case availabilityMsg:
		if msg.key == m.checkedKey {
			m.Availability = msg.availability
		}
		return m, nil

	case bookingsMsg:
		if errors.Is(msg.err, models.ErrScanInProgress) {
			return m, nil
		}
		if msg.err != nil {
			if !errors.Is(msg.err, models.ErrNotConnected) {
				m.ErrorMessage = fmt.Sprintf("Error loading bookings: %v", msg.err)
			}
			return m, nil
		}
		m.Bookings = msg.bookings
		m.Viewport.SetContent(m.renderBookings())
		return m, nil

	case txMsg:
		m.Tx = models.TxResult(msg)
		return m, waitForTx(m.txEvents)

	case txDoneMsg:
		if msg.err != nil {
			m.Tx.State = models.TxFailed
			m.ErrorMessage = msg.err.Error()

			// A failed re-check keeps booking disabled until the date or listing changes
			var notice *dapp.Notice
			if m.Tx.Action == "book" && errors.As(msg.err, &notice) && notice.Message != dapp.MsgBecomeMember {
				m.Availability = dapp.Availability{Checked: true, Message: notice.Message, Err: notice.Err}
			}
			return m, nil
		}
		m.ErrorMessage = ""
		m.StatusMessage = fmt.Sprintf("%s confirmed", msg.res.Action)
		m.checkedKey = ""
		checkCmd := m.checkAvailability()
		return m, tea.Batch(m.loadMembership(), m.loadBookings(), checkCmd)

	case blockTickMsg:
		return m, m.fetchBlock()

	case blockMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Debug("block poll failed")
			return m, tickBlock(m.opts.PollInterval)
		}
		if !m.blockSeen {
			m.blockSeen = true
			m.LastBlock = msg.block
		} else if msg.block != m.LastBlock {
			m.LastBlock = msg.block
			return m, tea.Batch(m.loadBookings(), tickBlock(m.opts.PollInterval))
		}
		return m, tickBlock(m.opts.PollInterval)
	}

	return m, tea.Batch(cmds...)
}

// selectedDate returns the selected YYYY-MM-DD day, empty if none
func (m Model) selectedDate() string {
	if m.DateIndex < 0 || m.DateIndex >= len(m.Dates) {
		return ""
	}
	return m.Dates[m.DateIndex].Value
}

// checkAvailability starts a check for the selected listing and date unless
// that pair was already checked
func (m *Model) checkAvailability() tea.Cmd {
	listing := m.Listings.Selected
	date := m.selectedDate()
	if listing == nil || date == "" {
		return nil
	}

	key := fmt.Sprintf("%d@%s", listing.ID, date)
	if key == m.checkedKey {
		return nil
	}
	m.checkedKey = key
	m.Availability = dapp.Availability{}

	svc, ctx, id := m.opts.Service, m.ctx, listing.ID
	return func() tea.Msg {
		return availabilityMsg{key: key, availability: svc.CheckDay(ctx, id, date)}
	}
}

// bookDisabledReason explains why booking is not possible, empty when it is
func (m Model) bookDisabledReason() string {
	switch {
	case m.opts.Address == (common.Address{}):
		return "Connect wallet"
	case !m.opts.CanSign:
		return "Watch-only wallet cannot book"
	case m.Membership == nil || !m.Membership.IsMember():
		return dapp.MsgBecomeMember
	case m.Tx.InProgress():
		return m.Tx.Label()
	case m.Listings.Selected == nil:
		return "No listing selected"
	case !m.Availability.Checked:
		return "Checking availability..."
	case !m.Availability.Available:
		return m.Availability.Message
	}
	return ""
}

func (m Model) book() (tea.Model, tea.Cmd) {
	if reason := m.bookDisabledReason(); reason != "" {
		m.ErrorMessage = reason
		return m, nil
	}

	listing := *m.Listings.Selected
	date := m.selectedDate()
	m.ErrorMessage = ""
	m.Tx = models.TxResult{Action: "book", State: models.TxPending}

	svc, ctx, events := m.opts.Service, m.ctx, m.txEvents
	return m, func() tea.Msg {
		res, err := svc.BookDay(ctx, &listing, date, func(r models.TxResult) { events <- r })
		return txDoneMsg{res: res, err: err}
	}
}

func (m Model) buy() (tea.Model, tea.Cmd) {
	switch {
	case m.opts.Address == (common.Address{}):
		m.ErrorMessage = "Connect wallet"
		return m, nil
	case !m.opts.CanSign:
		m.ErrorMessage = models.ErrWatchOnly.Error()
		return m, nil
	case m.Tx.InProgress():
		return m, nil
	}

	m.ErrorMessage = ""
	m.Tx = models.TxResult{Action: "becomeMember", State: models.TxPending}

	svc, ctx, events := m.opts.Service, m.ctx, m.txEvents
	amount, decimals := m.opts.MembershipAmount, m.opts.Decimals
	return m, func() tea.Msg {
		res, err := svc.BuyMembership(ctx, amount, decimals, func(r models.TxResult) { events <- r })
		return txDoneMsg{res: res, err: err}
	}
}

func (m Model) amount(v *big.Int) string {
	return fmt.Sprintf("%s %s", util.FormatAmount(v, m.opts.Decimals), m.opts.CurrencySymbol)
}

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Initializing..."
	}

	var status string
	if m.IsLoading {
		status = fmt.Sprintf("%s %s", m.Spinner.View(), m.StatusMessage)
	} else {
		status = m.StatusMessage
	}
	if m.LastBlock > 0 {
		status += fmt.Sprintf(" - block %d", m.LastBlock)
	}

	account := "not connected"
	if m.opts.Address != (common.Address{}) {
		account = util.ShortAddress(m.opts.Address)
		if !m.opts.CanSign {
			account += " (watch-only)"
		}
	}

	titleBar := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Padding(0, 1).
		Render(fmt.Sprintf("bookchain - %s", account))

	statusBar := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render(status)

	var body string
	switch m.Tab {
	case tabMembership:
		body = m.renderMembership()
	case tabListings:
		body = m.renderListings()
	case tabBookings:
		body = m.Viewport.View()
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Padding(0, 1).
		Render(m.helpText())

	errorView := ""
	if m.ErrorMessage != "" {
		errorView = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")).
			Padding(0, 1).
			Render(m.ErrorMessage)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleBar,
		m.renderTabs(),
		statusBar,
		body,
		m.renderTx(),
		errorView,
		help,
	)
}

func (m Model) helpText() string {
	base := "1/2/3 or tab switch view, r refresh, q quit"
	switch m.Tab {
	case tabMembership:
		return "b buy membership, " + base
	case tabListings:
		return "up/down select, [/] change date, enter book, " + base
	}
	return "up/down scroll, " + base
}

func (m Model) renderTabs() string {
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Underline(true).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1)

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if i == m.Tab {
			tabs[i] = active.Render(label)
		} else {
			tabs[i] = inactive.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderMembership() string {
	if m.Membership == nil {
		return "  Loading…"
	}

	var b strings.Builder
	label := m.Membership.Label()
	if m.Membership.IsMember() {
		label = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(label)
	}
	fmt.Fprintf(&b, "  Status: %s\n", label)
	if m.Membership.ShowExpiry() {
		fmt.Fprintf(&b, "  Expires: %s\n", util.FormatUTCDate(m.Membership.ExpiresAt))
	}

	switch m.Membership.State {
	case models.MembershipActive, models.MembershipInactive:
		amount := m.opts.MembershipAmount
		if amount == "" {
			amount = "1"
		}
		fmt.Fprintf(&b, "\n  [b] %s (%s %s)", m.Membership.ActionLabel(), amount, m.opts.CurrencySymbol)
	}
	return b.String()
}

func (m Model) renderListings() string {
	if len(m.Listings.Listings) == 0 {
		if m.IsLoading {
			return "  Loading listings..."
		}
		return "  No active listings."
	}

	date := "no date"
	if d := m.selectedDate(); d != "" {
		date = m.Dates[m.DateIndex].Label
	}

	var line string
	switch {
	case m.Listings.Selected == nil:
	case !m.Availability.Checked:
		line = "Checking availability..."
	case m.Availability.Available:
		start, end, err := util.UTCDayRange(m.selectedDate())
		if err == nil {
			if cost, err := dapp.BookingCost(m.Listings.Selected.PricePerHour, start, end); err == nil {
				line = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).
					Render(fmt.Sprintf("Available - %s for the day", m.amount(cost)))
			}
		}
	default:
		line = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.Availability.Message)
	}

	action := "[enter] Book"
	if reason := m.bookDisabledReason(); reason != "" && reason != line {
		action = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("Book disabled: " + reason)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.Listings.View(),
		fmt.Sprintf("  Date: < %s >  %s", date, line),
		"  "+action,
	)
}

func (m Model) renderBookings() string {
	if m.opts.Address == (common.Address{}) {
		return "  Connect wallet to see your bookings."
	}
	if len(m.Bookings) == 0 {
		return "  No bookings yet."
	}

	heading := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	var sections []string
	for _, b := range m.Bookings {
		var content strings.Builder
		content.WriteString(heading.Render(fmt.Sprintf("Booking #%d for Listing #%d", b.ID, b.ListingID)))
		content.WriteString("\n")
		fmt.Fprintf(&content, "  %s, %s\n", util.FormatUTCDate(b.StartTs), util.FormatUTCTimeRange(b.StartTs, b.EndTs))
		fmt.Fprintf(&content, "  Amount paid: %s\n", m.amount(b.Amount))
		released := "no"
		if b.Released {
			released = "yes"
		}
		fmt.Fprintf(&content, "  Released: %s\n", released)
		if url := b.ImageURL(); url != "" {
			fmt.Fprintf(&content, "  %s\n", url)
		}
		sections = append(sections, content.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTx() string {
	if m.Tx.State == "" || m.Tx.State == models.TxIdle {
		return ""
	}

	color := lipgloss.Color("11")
	switch m.Tx.State {
	case models.TxConfirmed:
		color = lipgloss.Color("10")
	case models.TxFailed:
		color = lipgloss.Color("196")
	}

	line := fmt.Sprintf("%s: %s", m.Tx.Action, m.Tx.Label())
	if m.Tx.HasHash() {
		line = fmt.Sprintf("%s: tx %s %s", m.Tx.Action, m.Tx.ShortHash(), m.Tx.Label())
	}
	return lipgloss.NewStyle().Foreground(color).Padding(0, 1).Render(line)
}

// Messages
type membershipMsg struct {
	membership *models.Membership
	err        error
}

type listingsMsg struct {
	listings []models.Listing
	err      error
}

type availabilityMsg struct {
	key          string
	availability dapp.Availability
}

type bookingsMsg struct {
	bookings []models.BookingWithDetails
	err      error
}

type txMsg models.TxResult

type txDoneMsg struct {
	res models.TxResult
	err error
}

type blockTickMsg struct{}

type blockMsg struct {
	block uint64
	err   error
}

// Commands
func (m Model) loadMembership() tea.Cmd {
	svc, ctx, addr := m.opts.Service, m.ctx, m.opts.Address
	return func() tea.Msg {
		membership, err := svc.MembershipStatus(ctx, addr)
		return membershipMsg{membership: membership, err: err}
	}
}

func (m Model) loadListings() tea.Cmd {
	svc, ctx := m.opts.Service, m.ctx
	return func() tea.Msg {
		listings, err := svc.Listings(ctx)
		return listingsMsg{listings: listings, err: err}
	}
}

func (m Model) loadBookings() tea.Cmd {
	svc, ctx, addr := m.opts.Service, m.ctx, m.opts.Address
	return func() tea.Msg {
		bookings, err := svc.MyBookings(ctx, addr)
		return bookingsMsg{bookings: bookings, err: err}
	}
}

func (m Model) fetchBlock() tea.Cmd {
	svc, ctx := m.opts.Service, m.ctx
	return func() tea.Msg {
		n, err := svc.BlockNumber(ctx)
		return blockMsg{block: n, err: err}
	}
}

func tickBlock(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return blockTickMsg{}
	})
}

// waitForTx delivers the next transaction state change
func waitForTx(events <-chan models.TxResult) tea.Cmd {
	return func() tea.Msg {
		return txMsg(<-events)
	}
}
