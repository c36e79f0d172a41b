package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"shipdeck/internal/api"
	"shipdeck/internal/auth"
	"shipdeck/internal/batch"
	"shipdeck/internal/config"
)

// modalKind is the overlay open on top of the review/shipping pages.
type modalKind int

const (
	modalNone modalKind = iota
	modalAddress
	modalPackage
	modalService
	modalDelete
	modalVerify
)

// Model is the wizard's Bubble Tea model. It reads from the batch store and
// session and mutates them only through their action methods; every network
// call happens in a command goroutine and reports back as a message.
type Model struct {
	client  *api.Client
	session *auth.Session
	store   *batch.Store
	cfg     *config.Config
	log     *zap.Logger
	wizard  *batch.Wizard

	width  int
	height int

	ready    bool
	inflight bool
	status   string
	errText  string
	spin     spinner.Model

	// rows is the Update-loop snapshot of the store's record list, indexed
	// by the table cursor.
	rows []api.ShipmentRecord

	startBatchID int64

	// Upload
	baseDir     string
	filePicker  list.Model
	pickerReady bool
	uploaded    *api.Batch

	// Review
	reviewTable   table.Model
	searchInput   textinput.Model
	searchFocused bool
	searchSeq     int
	modal           modalKind
	addrPicker      list.Model
	pkgPicker       list.Model
	serviceCursor   int
	pendingDeleteID int64
	pendingVerifyID int64

	// Shipping
	shipTable    table.Model
	ratesStarted bool

	// Purchase
	labelSize   string
	acceptTerms bool
	terms       string
	purchased   *api.PurchaseResponse
}

// NewModel builds the wizard. A non-zero batchID resumes an existing batch at
// the review step.
func NewModel(client *api.Client, session *auth.Session, store *batch.Store, cfg *config.Config, log *zap.Logger, batchID int64) Model {
	if log == nil {
		log = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	si := textinput.New()
	si.Placeholder = "Search name, address, order..."
	si.CharLimit = 80
	si.Width = 36

	start := batch.StepUpload
	if batchID > 0 {
		start = batch.StepReview
	}

	cwd, _ := os.Getwd()

	m := Model{
		client:       client,
		session:      session,
		store:        store,
		cfg:          cfg,
		log:          log.Named("ui"),
		wizard:       batch.NewWizard(start),
		spin:         sp,
		searchInput:  si,
		startBatchID: batchID,
		baseDir:      cwd,
		labelSize:    cfg.Defaults.LabelSize,
	}
	m.filePicker = newPickerList("Select a CSV to upload")
	m.addrPicker = newPickerList("Select Ship From Address")
	m.pkgPicker = newPickerList("Select Package Preset")
	m.reviewTable = newReviewTable()
	m.shipTable = newShippingTable()
	return m
}

func newPickerList(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// Init starts the session restore and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.initSessionCmd())
}

// Update is the single writer of UI state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sessionReadyMsg:
		m.ready = true
		if !msg.authenticated {
			m.errText = "Not logged in. Quit and run 'shipdeck login' first."
			return m, nil
		}
		if m.startBatchID > 0 {
			m.inflight = true
			return m, tea.Batch(
				m.loadBatchCmd(m.startBatchID),
				m.loadShipmentsCmd(m.startBatchID),
				m.loadRefsCmd(),
			)
		}
		return m, loadCSVFilesCmd(m.baseDir)

	case errMsg:
		m.inflight = false
		m.errText = api.Message(msg.err)
		return m, nil

	case filesLoadedMsg:
		if msg.err != nil {
			m.errText = fmt.Sprintf("File scan failed: %v", msg.err)
			return m, nil
		}
		m.filePicker.SetItems(msg.items)
		m.pickerReady = true
		return m, nil

	case uploadedMsg:
		m.inflight = false
		m.errText = ""
		m.uploaded = msg.batch
		m.store.SetBatch(msg.batch)
		m.status = fmt.Sprintf("Uploaded %d records", msg.batch.TotalRecords)
		return m, nil

	case batchLoadedMsg:
		return m, nil

	case shipmentsLoadedMsg, ratesDoneMsg, recordUpdatedMsg:
		m.inflight = false
		m.syncTables()
		if m.wizard.Step() == batch.StepShipping {
			return m, m.maybeAutoRates()
		}
		return m, nil

	case recordVerifiedMsg:
		m.inflight = false
		m.errText = ""
		if msg.resp.Verified {
			m.status = "Address verified"
		} else {
			m.status = "Verification failed: " + strings.Join(msg.resp.Errors, "; ")
		}
		m.syncTables()
		return m, nil

	case refsLoadedMsg:
		m.syncPickers()
		return m, nil

	case bulkDoneMsg:
		m.inflight = false
		m.errText = ""
		m.status = msg.summary
		m.modal = modalNone
		m.syncTables()
		return m, nil

	case purchaseDoneMsg:
		m.inflight = false
		m.errText = ""
		m.purchased = msg.result
		m.status = "Purchase successful!"
		return m, nil

	case searchTickMsg:
		// Only the latest keystroke's tick applies its search text.
		if msg.seq != m.searchSeq {
			return m, nil
		}
		m.store.SetSearch(m.searchInput.Value())
		if b := m.store.Batch(); b != nil {
			m.inflight = true
			return m, m.loadShipmentsCmd(b.ID)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if !m.ready {
		return m, nil
	}
	if m.modal != modalNone {
		return m.updateModal(msg)
	}

	switch m.wizard.Step() {
	case batch.StepUpload:
		return m.updateUpload(msg)
	case batch.StepReview:
		return m.updateReview(msg)
	case batch.StepShipping:
		return m.updateShipping(msg)
	case batch.StepPurchase:
		return m.updatePurchase(msg)
	}
	return m, nil
}

// advance moves the wizard forward and kicks off whatever the next page
// needs loaded.
func (m Model) advance() (tea.Model, tea.Cmd) {
	if !m.wizard.Advance(m.store.Batch() != nil) {
		return m, nil
	}
	m.status = ""
	m.errText = ""
	switch m.wizard.Step() {
	case batch.StepReview:
		m.inflight = true
		b := m.store.Batch()
		return m, tea.Batch(m.loadShipmentsCmd(b.ID), m.loadRefsCmd())
	case batch.StepShipping:
		m.ratesStarted = false
		m.inflight = true
		return m, m.refreshAllCmd()
	case batch.StepPurchase:
		m.renderTerms()
		m.inflight = true
		return m, m.refreshAllCmd()
	}
	return m, nil
}

// retreat is pure read navigation; no state is rolled back.
func (m Model) retreat() (tea.Model, tea.Cmd) {
	if m.purchased != nil {
		// The purchased batch is read-only; there is nothing to go back to.
		return m, nil
	}
	if m.wizard.Retreat() {
		m.status = ""
		m.errText = ""
	}
	return m, nil
}

// syncTables refreshes the row snapshot and both tables from the store.
func (m *Model) syncTables() {
	m.rows = m.store.Shipments()
	m.reviewTable.SetRows(m.reviewRows())
	m.shipTable.SetRows(m.shippingRows())
}

func (m *Model) resize() {
	h := m.height - 12
	if h < 4 {
		h = 4
	}
	if h > 20 {
		h = 20
	}
	m.reviewTable.SetHeight(h)
	m.shipTable.SetHeight(h)

	listW := min(64, m.width-6)
	if listW < 30 {
		listW = 30
	}
	listH := min(16, m.height-8)
	if listH < 5 {
		listH = 5
	}
	m.filePicker.SetSize(listW, listH)
	m.addrPicker.SetSize(listW, listH)
	m.pkgPicker.SetSize(listW, listH)
}

// cursorRecord returns the record under the review/shipping table cursor.
func (m *Model) cursorRecord(t table.Model) (api.ShipmentRecord, bool) {
	i := t.Cursor()
	if i < 0 || i >= len(m.rows) {
		return api.ShipmentRecord{}, false
	}
	return m.rows[i], true
}

// View renders header, active page, status line and footer.
func (m Model) View() string {
	if !m.ready {
		return m.spin.View() + " Restoring session..."
	}

	var body string
	switch m.wizard.Step() {
	case batch.StepUpload:
		body = m.uploadView()
	case batch.StepReview:
		body = m.reviewView()
	case batch.StepShipping:
		body = m.shippingView()
	case batch.StepPurchase:
		body = m.purchaseView()
	}

	if m.modal != modalNone {
		body = m.modalView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(footerStyle.Render(m.footerHelp()))
	return b.String()
}

func (m Model) headerView() string {
	steps := []batch.Step{batch.StepUpload, batch.StepReview, batch.StepShipping, batch.StepPurchase}
	parts := make([]string, 0, len(steps))
	for i, s := range steps {
		label := fmt.Sprintf("%d. %s", i+1, s)
		if s == m.wizard.Step() {
			parts = append(parts, stepOnStyle.Render(label))
		} else {
			parts = append(parts, stepStyle.Render(label))
		}
	}
	title := titleStyle.Render("shipdeck")
	if b := m.store.Batch(); b != nil {
		title += stepStyle.Render(fmt.Sprintf("  %s (batch %d)", b.FileName, b.ID))
	}
	return title + "\n" + strings.Join(parts, stepStyle.Render("  →  "))
}

func (m Model) statusView() string {
	if m.errText != "" {
		return errorStyle.Render(m.errText)
	}
	if m.inflight {
		return m.spin.View() + statusStyle.Render(" working...")
	}
	return statusStyle.Render(m.status)
}

func (m Model) footerHelp() string {
	if m.modal != modalNone {
		return "enter select • esc cancel"
	}
	switch m.wizard.Step() {
	case batch.StepUpload:
		return "enter upload • r rescan • q quit"
	case batch.StepReview:
		if m.searchFocused {
			return "enter/esc done typing"
		}
		return "space select • a all • f filter • / search • s from • p pkg • v/V verify • d delete • r reload • n next • esc back • q quit"
	case batch.StepShipping:
		return "space select • a all • g ground • P priority • c cheapest • s service menu • R recalc • n next • esc back • q quit"
	case batch.StepPurchase:
		if m.purchased != nil {
			return "q quit"
		}
		return "l label size • t terms • enter purchase • esc back • q quit"
	}
	return "q quit"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
