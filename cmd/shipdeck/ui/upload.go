package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		m.uploaded = nil
		m.pickerReady = false
		m.errText = ""
		return m, loadCSVFilesCmd(m.baseDir)
	case "n", "right":
		if m.uploaded != nil {
			return m.advance()
		}
		return m, nil
	case "enter":
		if m.uploaded != nil {
			return m.advance()
		}
		item, ok := m.filePicker.SelectedItem().(csvItem)
		if !ok || m.inflight {
			return m, nil
		}
		m.inflight = true
		m.errText = ""
		m.status = fmt.Sprintf("Uploading %s...", item.name)
		return m, m.uploadCmd(m.baseDir, item.name)
	}

	var cmd tea.Cmd
	m.filePicker, cmd = m.filePicker.Update(msg)
	return m, cmd
}

func (m Model) uploadView() string {
	if m.uploaded != nil {
		b := m.uploaded
		var sb strings.Builder
		fmt.Fprintf(&sb, "%s uploaded as batch %d\n\n", b.FileName, b.ID)
		fmt.Fprintf(&sb, "  %s  %d total records\n", okStyle.Render("✓"), b.TotalRecords)
		fmt.Fprintf(&sb, "  %s  %d valid\n", okStyle.Render("✓"), b.ValidRecords)
		if b.InvalidRecords > 0 {
			fmt.Fprintf(&sb, "  %s  %d need attention\n", warnStyle.Render("!"), b.InvalidRecords)
		}
		for _, w := range b.ParseWarnings {
			fmt.Fprintf(&sb, "  %s  %s\n", warnStyle.Render("!"), w)
		}
		sb.WriteString("\nPress enter to review the records.")
		return boxStyle.Render(sb.String())
	}

	if !m.pickerReady {
		return m.spin.View() + " Scanning for CSV files..."
	}
	if len(m.filePicker.Items()) == 0 {
		return boxStyle.Render(fmt.Sprintf(
			"No CSV files found in %s.\n\nDrop your shipment spreadsheet there and press r to rescan.", m.baseDir))
	}
	return m.filePicker.View()
}
