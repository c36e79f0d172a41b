package batch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"shipdeck/internal/api"
)

// Record list filters.
const (
	FilterAll     = "all"
	FilterValid   = "valid"
	FilterInvalid = "invalid"
)

// Store is the single writer for batch/shipment state. UI layers call its
// methods from command goroutines; all mutation happens under one mutex and
// reads hand out copies, so there is never a competing mutable view.
type Store struct {
	client *api.Client
	log    *zap.Logger

	mu             sync.Mutex
	batch          *api.Batch
	shipments      []api.ShipmentRecord
	selection      Selection
	filter         string
	search         string
	busy           bool
	savedAddresses []api.SavedAddress
	savedPackages  []api.SavedPackage

	// loadGen invalidates superseded shipment loads: a response is applied
	// only if no newer load started after it. Rapid filter switching can
	// therefore never paint stale results.
	loadGen uint64

	// purchaseResult gates re-submission of the purchase action; once set the
	// batch is treated as read-only.
	purchaseResult *api.PurchaseResponse
}

// NewStore creates an empty store bound to an API client.
func NewStore(client *api.Client, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		client:    client,
		log:       log.Named("batch"),
		selection: NewSelection(),
		filter:    FilterAll,
	}
}

// SetBatch replaces the active batch without a fetch (used right after an
// upload response).
func (s *Store) SetBatch(b *api.Batch) {
	s.mu.Lock()
	s.batch = b
	s.mu.Unlock()
}

// Batch returns a copy of the active batch, or nil.
func (s *Store) Batch() *api.Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.batch == nil {
		return nil
	}
	b := *s.batch
	return &b
}

// Shipments returns a copy of the loaded record list.
func (s *Store) Shipments() []api.ShipmentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.ShipmentRecord, len(s.shipments))
	copy(out, s.shipments)
	return out
}

// Busy reports whether a load or bulk call is in flight. Downstream UI uses
// it to avoid duplicate submissions; it is cooperative, not a mutex.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

func (s *Store) setBusy(v bool) {
	s.mu.Lock()
	s.busy = v
	s.mu.Unlock()
}

// LoadBatch replaces the active batch with a fresh fetch.
func (s *Store) LoadBatch(ctx context.Context, id int64) error {
	b, err := s.client.GetBatch(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.batch = b
	s.mu.Unlock()
	return nil
}

// LoadShipments replaces the record list with a fresh fetch using the current
// filter and trimmed search string. A load superseded by a newer one is
// discarded on arrival rather than applied out of order.
func (s *Store) LoadShipments(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	filter, search := s.filter, s.search
	s.busy = true
	s.mu.Unlock()

	records, err := s.client.ListShipments(ctx, id, filter, search)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.loadGen {
		s.busy = false
		if err == nil {
			s.shipments = records
		}
	} else {
		s.log.Debug("dropped stale shipment load", zap.Uint64("gen", gen))
	}
	return err
}

// RefreshAll re-runs LoadBatch then LoadShipments for the active batch.
// No-op without one.
func (s *Store) RefreshAll(ctx context.Context) error {
	b := s.Batch()
	if b == nil {
		return nil
	}
	if err := s.LoadBatch(ctx, b.ID); err != nil {
		return err
	}
	return s.LoadShipments(ctx, b.ID)
}

// Filter returns the active record filter.
func (s *Store) Filter() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter switches the filter and clears the selection set: selection must
// never reference records outside the newly filtered view.
func (s *Store) SetFilter(f string) {
	s.mu.Lock()
	s.filter = f
	s.selection = NewSelection()
	s.mu.Unlock()
}

// Search returns the current search string.
func (s *Store) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// SetSearch updates the search string. Selection is left alone so debounced
// search updates stay decoupled from filter changes.
func (s *Store) SetSearch(q string) {
	s.mu.Lock()
	s.search = q
	s.mu.Unlock()
}

// ToggleSelect flips one record's membership in the selection.
func (s *Store) ToggleSelect(id int64) {
	s.mu.Lock()
	s.selection = s.selection.Toggle(id)
	s.mu.Unlock()
}

// SelectAll toggles between selecting exactly the visible records and
// clearing the selection. Select-all is view-relative, never global.
func (s *Store) SelectAll() {
	s.mu.Lock()
	s.selection = ToggleAll(visibleIDs(s.shipments), s.selection)
	s.mu.Unlock()
}

// IsAllSelected reports whether the visible list is non-empty and fully
// selected.
func (s *Store) IsAllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllSelected(visibleIDs(s.shipments), s.selection)
}

// ClearSelection empties the selection unconditionally.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selection = NewSelection()
	s.mu.Unlock()
}

// IsSelected reports one record's membership.
func (s *Store) IsSelected(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Has(id)
}

// SelectedIDs returns the selection as a sorted list.
func (s *Store) SelectedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IDs()
}

// SelectedCount returns the selection size.
func (s *Store) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.selection)
}

// LoadSavedAddresses fetches and wholesale-replaces the ship-from templates.
func (s *Store) LoadSavedAddresses(ctx context.Context) error {
	addrs, err := s.client.ListSavedAddresses(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.savedAddresses = addrs
	s.mu.Unlock()
	return nil
}

// LoadSavedPackages fetches and wholesale-replaces the package presets.
func (s *Store) LoadSavedPackages(ctx context.Context) error {
	pkgs, err := s.client.ListSavedPackages(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.savedPackages = pkgs
	s.mu.Unlock()
	return nil
}

// SavedAddresses returns a copy of the template list.
func (s *Store) SavedAddresses() []api.SavedAddress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.SavedAddress, len(s.savedAddresses))
	copy(out, s.savedAddresses)
	return out
}

// SavedPackages returns a copy of the preset list.
func (s *Store) SavedPackages() []api.SavedPackage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.SavedPackage, len(s.savedPackages))
	copy(out, s.savedPackages)
	return out
}

// TotalCost sums the server-computed per-record costs of the loaded list.
func (s *Store) TotalCost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, rec := range s.shipments {
		total += rec.ShippingCost
	}
	return total
}

// ReadyCount counts records that are valid and have a service assigned, i.e.
// the labels a purchase would create.
func (s *Store) ReadyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, rec := range s.shipments {
		if rec.IsValid && rec.ShippingService != "" {
			n++
		}
	}
	return n
}

// Reset returns the store to its initial state. Reference lists survive; they
// are overwritten wholesale on the next load anyway.
func (s *Store) Reset() {
	s.mu.Lock()
	s.batch = nil
	s.shipments = nil
	s.selection = NewSelection()
	s.filter = FilterAll
	s.search = ""
	s.busy = false
	s.purchaseResult = nil
	s.mu.Unlock()
}

func visibleIDs(records []api.ShipmentRecord) []int64 {
	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids
}
