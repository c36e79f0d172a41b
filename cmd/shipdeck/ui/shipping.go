package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shipdeck/internal/api"
	"shipdeck/internal/batch"
)

func newShippingTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: " ", Width: 3},
			{Title: "Row", Width: 4},
			{Title: "Recipient", Width: 20},
			{Title: "Package", Width: 22},
			{Title: "Weight", Width: 8},
			{Title: "Service", Width: 10},
			{Title: "Cost", Width: 9},
		}),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)
	return t
}

func (m *Model) shippingRows() []table.Row {
	rows := make([]table.Row, len(m.rows))
	for i, rec := range m.rows {
		mark := "[ ]"
		if m.store.IsSelected(rec.ID) {
			mark = selectStyle.Render("[x]")
		}

		service := statusStyle.Render("—")
		if rec.ShippingService != "" {
			service = rec.ShippingService
		}
		cost := ""
		if rec.ShippingCost > 0 {
			cost = batch.FormatUSD(rec.ShippingCost)
		}

		rows[i] = table.Row{
			mark,
			fmt.Sprintf("%d", rec.RowNumber),
			strings.TrimSpace(rec.ToFirstName + " " + rec.ToLastName),
			rec.PackageDisplay,
			weightDisplay(rec),
			service,
			cost,
		}
	}
	return rows
}

// maybeAutoRates prices the batch with the default service the first time the
// shipping page sees records that have none assigned yet.
func (m *Model) maybeAutoRates() tea.Cmd {
	if m.ratesStarted {
		return nil
	}
	b := m.store.Batch()
	if b == nil {
		return nil
	}
	for _, rec := range m.rows {
		if rec.ShippingService != "" {
			return nil
		}
	}
	if len(m.rows) == 0 {
		return nil
	}
	m.ratesStarted = true
	m.inflight = true
	m.status = "Calculating rates..."
	return m.calcRatesCmd(b.ID, m.cfg.Defaults.Service)
}

func (m Model) updateShipping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "left":
		return m.retreat()
	case "n", "right":
		// Checkout stays out of reach until every record is clean.
		if b := m.store.Batch(); b != nil && b.InvalidRecords > 0 {
			m.errText = fmt.Sprintf("%d records need attention. Fix them on the Review page first.", b.InvalidRecords)
			return m, nil
		}
		return m.advance()
	case " ":
		if rec, ok := m.cursorRecord(m.shipTable); ok {
			m.store.ToggleSelect(rec.ID)
			m.syncTables()
		}
		return m, nil
	case "a":
		m.store.SelectAll()
		m.syncTables()
		return m, nil
	case "g", "P", "c":
		service := map[string]string{
			"g": api.ServiceGround,
			"P": api.ServicePriority,
			"c": api.ServiceCheapest,
		}[msg.String()]
		if m.inflight {
			return m, nil
		}
		if m.store.SelectedCount() > 0 {
			m.inflight = true
			return m, m.bulkServiceCmd(service)
		}
		if rec, ok := m.cursorRecord(m.shipTable); ok {
			m.inflight = true
			return m, m.setServiceCmd(rec.ID, service)
		}
		return m, nil
	case "s":
		if m.store.SelectedCount() == 0 {
			m.errText = "No records selected."
			return m, nil
		}
		m.serviceCursor = 0
		m.modal = modalService
		return m, nil
	case "R":
		if b := m.store.Batch(); b != nil && !m.inflight {
			m.inflight = true
			m.status = "Recalculating rates..."
			return m, m.calcRatesCmd(b.ID, m.cfg.Defaults.Service)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.shipTable, cmd = m.shipTable.Update(msg)
	return m, cmd
}

func (m Model) shippingView() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d labels ready   total %s",
		m.store.ReadyCount(), selectStyle.Render(batch.FormatUSD(m.store.TotalCost()))))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("   selected: %d", m.store.SelectedCount())))
	sb.WriteString("\n\n")
	sb.WriteString(m.shipTable.View())
	return sb.String()
}
