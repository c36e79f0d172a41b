package ui

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"shipdeck/internal/api"
)

// searchDebounce matches the settling delay the search box always had.
const searchDebounce = 400 * time.Millisecond

// Bubble Tea messages. Every network call runs in a command goroutine and
// reports back through one of these; the Update loop is the single writer of
// UI state.

type errMsg struct{ err error }

type sessionReadyMsg struct{ authenticated bool }

type filesLoadedMsg struct {
	items []list.Item
	err   error
}

type uploadedMsg struct{ batch *api.Batch }

type batchLoadedMsg struct{}

type shipmentsLoadedMsg struct{}

type refsLoadedMsg struct{}

type bulkDoneMsg struct{ summary string }

type ratesDoneMsg struct{}

type recordUpdatedMsg struct{}

type recordVerifiedMsg struct{ resp *api.VerifyAddressResponse }

type purchaseDoneMsg struct{ result *api.PurchaseResponse }

type searchTickMsg struct{ seq int }

// csvItem is a file-picker entry.
type csvItem struct {
	name string
	size int64
}

func (f csvItem) Title() string       { return f.name }
func (f csvItem) Description() string { return "" }
func (f csvItem) FilterValue() string { return f.name }

func (m *Model) initSessionCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.session.Initialize(context.Background())
		return sessionReadyMsg{authenticated: m.session.IsAuthenticated()}
	}
}

// loadCSVFilesCmd scans dir for candidate spreadsheets.
func loadCSVFilesCmd(dir string) tea.Cmd {
	return func() tea.Msg {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return filesLoadedMsg{err: err}
		}
		var items []list.Item
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			items = append(items, csvItem{name: e.Name(), size: info.Size()})
		}
		sort.Slice(items, func(i, j int) bool {
			return items[i].(csvItem).name < items[j].(csvItem).name
		})
		return filesLoadedMsg{items: items}
	}
}

func (m *Model) uploadCmd(dir, name string) tea.Cmd {
	return func() tea.Msg {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return errMsg{err}
		}
		b, err := m.client.UploadBatch(context.Background(), name, content)
		if err != nil {
			return errMsg{err}
		}
		return uploadedMsg{batch: b}
	}
}

func (m *Model) loadBatchCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.LoadBatch(context.Background(), id); err != nil {
			return errMsg{err}
		}
		return batchLoadedMsg{}
	}
}

func (m *Model) loadShipmentsCmd(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.LoadShipments(context.Background(), id); err != nil {
			return errMsg{err}
		}
		return shipmentsLoadedMsg{}
	}
}

func (m *Model) refreshAllCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.store.RefreshAll(context.Background()); err != nil {
			return errMsg{err}
		}
		return shipmentsLoadedMsg{}
	}
}

// loadRefsCmd fetches the bulk-apply templates, once per review session.
func (m *Model) loadRefsCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.store.LoadSavedAddresses(context.Background()); err != nil {
			return errMsg{err}
		}
		if err := m.store.LoadSavedPackages(context.Background()); err != nil {
			return errMsg{err}
		}
		return refsLoadedMsg{}
	}
}

func (m *Model) bulkFromCmd(savedAddressID int64) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.store.ApplyFromAddress(context.Background(), savedAddressID)
		if err != nil {
			return errMsg{err}
		}
		return bulkDoneMsg{summary: summary}
	}
}

func (m *Model) bulkPackageCmd(savedPackageID int64) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.store.ApplyPackage(context.Background(), savedPackageID)
		if err != nil {
			return errMsg{err}
		}
		return bulkDoneMsg{summary: summary}
	}
}

func (m *Model) bulkServiceCmd(service string) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.store.ApplyService(context.Background(), service)
		if err != nil {
			return errMsg{err}
		}
		return bulkDoneMsg{summary: summary}
	}
}

func (m *Model) bulkVerifyCmd() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.store.VerifySelected(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return bulkDoneMsg{summary: summary}
	}
}

func (m *Model) bulkDeleteCmd() tea.Cmd {
	return func() tea.Msg {
		summary, err := m.store.DeleteSelected(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return bulkDoneMsg{summary: summary}
	}
}

func (m *Model) calcRatesCmd(batchID int64, service string) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.CalculateRates(context.Background(), batchID, service); err != nil {
			return errMsg{err}
		}
		if err := m.store.RefreshAll(context.Background()); err != nil {
			return errMsg{err}
		}
		return ratesDoneMsg{}
	}
}

func (m *Model) setServiceCmd(shipmentID int64, service string) tea.Cmd {
	return func() tea.Msg {
		patch := api.ShipmentPatch{ShippingService: api.String(service)}
		if _, err := m.client.UpdateShipment(context.Background(), shipmentID, patch); err != nil {
			return errMsg{err}
		}
		if err := m.store.RefreshAll(context.Background()); err != nil {
			return errMsg{err}
		}
		return recordUpdatedMsg{}
	}
}

func (m *Model) verifyRecordCmd(shipmentID int64, addressType string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.VerifyAddress(context.Background(), shipmentID, addressType)
		if err != nil {
			return errMsg{err}
		}
		if err := m.store.RefreshAll(context.Background()); err != nil {
			return errMsg{err}
		}
		return recordVerifiedMsg{resp: resp}
	}
}

func (m *Model) deleteRecordCmd(shipmentID int64) tea.Cmd {
	return func() tea.Msg {
		if err := m.client.DeleteShipment(context.Background(), shipmentID); err != nil {
			return errMsg{err}
		}
		if err := m.store.RefreshAll(context.Background()); err != nil {
			return errMsg{err}
		}
		return bulkDoneMsg{summary: "Deleted 1 record"}
	}
}

func (m *Model) purchaseCmd(labelSize string, acceptTerms bool) tea.Cmd {
	return func() tea.Msg {
		balance := 0.0
		if u := m.session.User(); u != nil {
			balance = u.Profile.Balance
		}
		result, err := m.store.Purchase(context.Background(), labelSize, acceptTerms, balance)
		if err != nil {
			return errMsg{err}
		}
		// Pick up the new balance for the success card.
		m.session.RefreshUser(context.Background())
		return purchaseDoneMsg{result: result}
	}
}

func searchTickCmd(seq int) tea.Cmd {
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	})
}
