package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shipdeck/internal/api"
	"shipdeck/internal/batch"
)

func newReviewTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: " ", Width: 3},
			{Title: "Row", Width: 4},
			{Title: "Recipient", Width: 20},
			{Title: "Destination", Width: 24},
			{Title: "Weight", Width: 8},
			{Title: "Status", Width: 10},
			{Title: "Issues", Width: 34},
		}),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)
	return t
}

func (m *Model) reviewRows() []table.Row {
	rows := make([]table.Row, len(m.rows))
	for i, rec := range m.rows {
		mark := "[ ]"
		if m.store.IsSelected(rec.ID) {
			mark = selectStyle.Render("[x]")
		}

		status := okStyle.Render("valid")
		if !rec.IsValid {
			status = errorStyle.Render("invalid")
		}

		issues := ""
		if len(rec.ValidationErrors) > 0 {
			issues = rec.ValidationErrors[0]
			if len(rec.ValidationErrors) > 1 {
				issues = fmt.Sprintf("%s (+%d more)", issues, len(rec.ValidationErrors)-1)
			}
		} else if rec.ToAddressVerified == api.VerifyFailed {
			issues = "address verification failed"
		}

		rows[i] = table.Row{
			mark,
			fmt.Sprintf("%d", rec.RowNumber),
			strings.TrimSpace(rec.ToFirstName + " " + rec.ToLastName),
			fmt.Sprintf("%s, %s %s", rec.ToCity, rec.ToState, rec.ToZip),
			weightDisplay(rec),
			status,
			issues,
		}
	}
	return rows
}

func weightDisplay(rec api.ShipmentRecord) string {
	if rec.TotalWeightOz > 0 {
		return fmt.Sprintf("%.0f oz", rec.TotalWeightOz)
	}
	return "—"
}

func (m Model) updateReview(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchFocused {
		switch msg.String() {
		case "enter", "esc":
			m.searchFocused = false
			m.searchInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.searchSeq++
		return m, tea.Batch(cmd, searchTickCmd(m.searchSeq))
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "left":
		return m.retreat()
	case "n", "right":
		return m.advance()
	case " ":
		if rec, ok := m.cursorRecord(m.reviewTable); ok {
			m.store.ToggleSelect(rec.ID)
			m.syncTables()
		}
		return m, nil
	case "a":
		m.store.SelectAll()
		m.syncTables()
		return m, nil
	case "f":
		m.store.SetFilter(nextFilter(m.store.Filter()))
		m.syncTables()
		if b := m.store.Batch(); b != nil {
			m.inflight = true
			return m, m.loadShipmentsCmd(b.ID)
		}
		return m, nil
	case "/":
		m.searchFocused = true
		return m, m.searchInput.Focus()
	case "s":
		if len(m.addrPicker.Items()) == 0 {
			m.errText = "No saved addresses on your account."
			return m, nil
		}
		m.modal = modalAddress
		return m, nil
	case "p":
		if len(m.pkgPicker.Items()) == 0 {
			m.errText = "No saved packages on your account."
			return m, nil
		}
		m.modal = modalPackage
		return m, nil
	case "v":
		if rec, ok := m.cursorRecord(m.reviewTable); ok && !m.inflight {
			m.pendingVerifyID = rec.ID
			m.modal = modalVerify
		}
		return m, nil
	case "V":
		if m.inflight {
			return m, nil
		}
		m.inflight = true
		return m, m.bulkVerifyCmd()
	case "d":
		// With no selection, delete targets the record under the cursor.
		if m.store.SelectedCount() == 0 {
			rec, ok := m.cursorRecord(m.reviewTable)
			if !ok {
				return m, nil
			}
			m.pendingDeleteID = rec.ID
		} else {
			m.pendingDeleteID = 0
		}
		m.modal = modalDelete
		return m, nil
	case "r":
		m.inflight = true
		return m, m.refreshAllCmd()
	}

	var cmd tea.Cmd
	m.reviewTable, cmd = m.reviewTable.Update(msg)
	return m, cmd
}

func nextFilter(f string) string {
	switch f {
	case batch.FilterAll:
		return batch.FilterInvalid
	case batch.FilterInvalid:
		return batch.FilterValid
	default:
		return batch.FilterAll
	}
}

func (m Model) reviewView() string {
	var sb strings.Builder

	counts := ""
	if b := m.store.Batch(); b != nil {
		counts = fmt.Sprintf("%d total  %s  %s",
			b.TotalRecords,
			okStyle.Render(fmt.Sprintf("%d valid", b.ValidRecords)),
			errorStyle.Render(fmt.Sprintf("%d invalid", b.InvalidRecords)))
	}
	sb.WriteString(counts)
	sb.WriteString(statusStyle.Render(fmt.Sprintf("   filter: %s   selected: %d",
		m.store.Filter(), m.store.SelectedCount())))
	sb.WriteString("\n")
	sb.WriteString(m.searchInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.reviewTable.View())
	return sb.String()
}

// updateModal routes keys while a picker or confirmation overlay is open.
func (m Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		m.modal = modalNone
		m.pendingDeleteID = 0
		m.pendingVerifyID = 0
		return m, nil
	}

	switch m.modal {
	case modalAddress:
		if msg.String() == "enter" {
			item, ok := m.addrPicker.SelectedItem().(addrItem)
			if !ok {
				return m, nil
			}
			m.inflight = true
			return m, m.bulkFromCmd(item.addr.ID)
		}
		var cmd tea.Cmd
		m.addrPicker, cmd = m.addrPicker.Update(msg)
		return m, cmd

	case modalPackage:
		if msg.String() == "enter" {
			item, ok := m.pkgPicker.SelectedItem().(pkgItem)
			if !ok {
				return m, nil
			}
			m.inflight = true
			return m, m.bulkPackageCmd(item.pkg.ID)
		}
		var cmd tea.Cmd
		m.pkgPicker, cmd = m.pkgPicker.Update(msg)
		return m, cmd

	case modalService:
		switch msg.String() {
		case "up", "k":
			if m.serviceCursor > 0 {
				m.serviceCursor--
			}
		case "down", "j":
			if m.serviceCursor < len(serviceChoices)-1 {
				m.serviceCursor++
			}
		case "enter":
			m.inflight = true
			return m, m.bulkServiceCmd(serviceChoices[m.serviceCursor].key)
		}
		return m, nil

	case modalVerify:
		var addressType string
		switch msg.String() {
		case "t":
			addressType = "to"
		case "f":
			addressType = "from"
		default:
			return m, nil
		}
		id := m.pendingVerifyID
		m.pendingVerifyID = 0
		m.modal = modalNone
		m.inflight = true
		return m, m.verifyRecordCmd(id, addressType)

	case modalDelete:
		switch msg.String() {
		case "y", "enter":
			m.modal = modalNone
			m.inflight = true
			if id := m.pendingDeleteID; id != 0 {
				m.pendingDeleteID = 0
				return m, m.deleteRecordCmd(id)
			}
			return m, m.bulkDeleteCmd()
		case "n":
			m.modal = modalNone
			m.pendingDeleteID = 0
		}
		return m, nil
	}
	return m, nil
}

var serviceChoices = []struct {
	key  string
	name string
}{
	{api.ServiceGround, "Ground"},
	{api.ServicePriority, "Priority"},
	{api.ServiceCheapest, "Cheapest available"},
}

func (m Model) modalView() string {
	switch m.modal {
	case modalAddress:
		return m.addrPicker.View()
	case modalPackage:
		return m.pkgPicker.View()
	case modalService:
		var sb strings.Builder
		sb.WriteString("Apply service to selected records:\n\n")
		for i, c := range serviceChoices {
			cursor := "  "
			line := c.name
			if i == m.serviceCursor {
				cursor = selectStyle.Render("> ")
				line = selectStyle.Render(line)
			}
			sb.WriteString(cursor + line + "\n")
		}
		return boxStyle.Render(sb.String())
	case modalVerify:
		return boxStyle.Render(fmt.Sprintf(
			"Verify which address?\n\n%s recipient (to)   %s sender (from)",
			selectStyle.Render("t"), selectStyle.Render("f")))
	case modalDelete:
		n := m.store.SelectedCount()
		if m.pendingDeleteID != 0 {
			n = 1
		}
		return boxStyle.Render(fmt.Sprintf(
			"Delete %d record(s)?\n\nThis cannot be undone.\n\n%s yes   %s no",
			n, selectStyle.Render("y"), selectStyle.Render("n")))
	}
	return ""
}

// addrItem and pkgItem adapt the bulk-apply templates to the picker lists.
type addrItem struct{ addr api.SavedAddress }

func (a addrItem) Title() string {
	if a.addr.IsDefault {
		return a.addr.Label + " (default)"
	}
	return a.addr.Label
}

func (a addrItem) Description() string {
	return fmt.Sprintf("%s %s, %s, %s, %s %s",
		a.addr.FirstName, a.addr.LastName, a.addr.AddressLine1,
		a.addr.City, a.addr.State, a.addr.ZipCode)
}

func (a addrItem) FilterValue() string { return a.addr.Label }

type pkgItem struct{ pkg api.SavedPackage }

func (p pkgItem) Title() string { return p.pkg.Label }

func (p pkgItem) Description() string {
	return fmt.Sprintf("%.0f×%.0f×%.0f in, %.0f oz",
		p.pkg.Length, p.pkg.Width, p.pkg.Height, p.pkg.TotalWeightOz)
}

func (p pkgItem) FilterValue() string { return p.pkg.Label }

func (m *Model) syncPickers() {
	addrs := m.store.SavedAddresses()
	items := make([]list.Item, len(addrs))
	for i, a := range addrs {
		items[i] = addrItem{addr: a}
	}
	m.addrPicker.SetItems(items)

	pkgs := m.store.SavedPackages()
	items = make([]list.Item, len(pkgs))
	for i, p := range pkgs {
		items[i] = pkgItem{pkg: p}
	}
	m.pkgPicker.SetItems(items)
}
