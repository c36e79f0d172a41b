package batch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"shipdeck/internal/api"
)

// fakeBackend serves the handful of endpoints the store exercises and records
// what it was asked.
type fakeBackend struct {
	mu              sync.Mutex
	batch           api.Batch
	shipments       []api.ShipmentRecord
	shipmentQueries []string
	bulkPayloads    map[string][]map[string]any
	purchaseCalls   int
	shipmentDelay   func(filter string) time.Duration
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		batch: api.Batch{ID: 7, FileName: "orders.csv", Status: api.BatchDraft, TotalRecords: 3, ValidRecords: 2, InvalidRecords: 1},
		shipments: []api.ShipmentRecord{
			{ID: 11, Batch: 7, RowNumber: 1, IsValid: true, ShippingService: api.ServiceGround, ShippingCost: 5.00},
			{ID: 12, Batch: 7, RowNumber: 2, IsValid: true, ShippingService: api.ServicePriority, ShippingCost: 7.50},
			{ID: 13, Batch: 7, RowNumber: 3, IsValid: false},
		},
		bulkPayloads: map[string][]map[string]any{},
	}
}

func (f *fakeBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeTo := func(status int, v any) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(v)
		}

		switch {
		case r.URL.Path == "/batches/7/":
			f.mu.Lock()
			b := f.batch
			f.mu.Unlock()
			writeTo(200, b)

		case r.URL.Path == "/batches/7/shipments/":
			filter := r.URL.Query().Get("filter")
			f.mu.Lock()
			f.shipmentQueries = append(f.shipmentQueries, r.URL.RawQuery)
			delay := f.shipmentDelay
			records := f.shipments
			f.mu.Unlock()
			if delay != nil {
				time.Sleep(delay(filter))
			}
			if filter == "invalid" {
				var out []api.ShipmentRecord
				for _, rec := range records {
					if !rec.IsValid {
						out = append(out, rec)
					}
				}
				records = out
			}
			writeTo(200, records)

		case r.URL.Path == "/batches/7/purchase/":
			f.mu.Lock()
			f.purchaseCalls++
			f.batch.Status = api.BatchPurchased
			f.mu.Unlock()
			writeTo(200, api.PurchaseResponse{
				Message: "Labels purchased", BatchID: 7, TotalLabels: 2,
				TotalCost: 12.50, LabelSize: api.LabelSizeThermal, NewBalance: 87.50,
			})

		case strings.HasPrefix(r.URL.Path, "/batches/7/shipments/bulk-"):
			action := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/batches/7/shipments/"), "/")
			var payload map[string]any
			_ = json.NewDecoder(r.Body).Decode(&payload)
			f.mu.Lock()
			f.bulkPayloads[action] = append(f.bulkPayloads[action], payload)
			f.mu.Unlock()
			switch action {
			case "bulk-verify":
				writeTo(200, api.BulkVerifyResponse{Total: 2, Verified: 2, Failed: 0, Skipped: 0})
			case "bulk-delete":
				f.removeShipments(payload["shipment_ids"])
				writeTo(200, map[string]string{"message": "deleted"})
			default:
				writeTo(200, api.BulkActionResponse{Message: "Updated 2 records", UpdatedCount: 2})
			}

		case r.URL.Path == "/saved-addresses/":
			writeTo(200, []api.SavedAddress{{ID: 70, Label: "Warehouse", IsDefault: true}})

		case r.URL.Path == "/saved-packages/":
			writeTo(200, []api.SavedPackage{{ID: 80, Label: "Small box", TotalWeightOz: 16}})

		default:
			http.NotFound(w, r)
		}
	})
}

// removeShipments drops the posted ids and recounts the batch, like the real
// backend would.
func (f *fakeBackend) removeShipments(rawIDs any) {
	removed := map[int64]bool{}
	if ids, ok := rawIDs.([]any); ok {
		for _, v := range ids {
			if id, ok := v.(float64); ok {
				removed[int64(id)] = true
			}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var kept []api.ShipmentRecord
	for _, rec := range f.shipments {
		if !removed[rec.ID] {
			kept = append(kept, rec)
		}
	}
	f.shipments = kept
	f.batch.TotalRecords = len(kept)
	f.batch.ValidRecords, f.batch.InvalidRecords = 0, 0
	for _, rec := range kept {
		if rec.IsValid {
			f.batch.ValidRecords++
		} else {
			f.batch.InvalidRecords++
		}
	}
}

func (f *fakeBackend) payloads(action string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bulkPayloads[action]
}

func newTestStore(t *testing.T) (*Store, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	store := NewStore(api.New(srv.URL, 5*time.Second, nil, nil), nil)
	require.NoError(t, store.LoadBatch(context.Background(), 7))
	require.NoError(t, store.LoadShipments(context.Background(), 7))
	return store, backend
}

func TestStore_LoadState(t *testing.T) {
	store, _ := newTestStore(t)
	require.NotNil(t, store.Batch())
	require.Len(t, store.Shipments(), 3)
	require.Equal(t, 12.50, store.TotalCost())
	require.Equal(t, 2, store.ReadyCount())
}

func TestStore_SetFilterClearsSelection(t *testing.T) {
	store, _ := newTestStore(t)
	store.ToggleSelect(11)
	store.ToggleSelect(12)
	require.Equal(t, 2, store.SelectedCount())

	store.SetFilter(FilterInvalid)
	require.Equal(t, 0, store.SelectedCount(), "filter change must clear the selection")
	require.Equal(t, FilterInvalid, store.Filter())

	// Search changes do not clear it.
	store.ToggleSelect(13)
	store.SetSearch("smith")
	require.Equal(t, 1, store.SelectedCount())
}

func TestStore_FilterQuery(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	store.SetFilter(FilterInvalid)
	require.NoError(t, store.LoadShipments(ctx, 7))
	require.Len(t, store.Shipments(), 1)

	store.SetFilter(FilterAll)
	store.SetSearch("  smith  ")
	require.NoError(t, store.LoadShipments(ctx, 7))

	backend.mu.Lock()
	queries := append([]string(nil), backend.shipmentQueries...)
	backend.mu.Unlock()
	want := []string{"", "filter=invalid", "search=smith"}
	if diff := cmp.Diff(want, queries); diff != "" {
		t.Errorf("shipment queries (-want +got):\n%s", diff)
	}
}

func TestStore_SelectAllToggle(t *testing.T) {
	store, _ := newTestStore(t)

	store.SelectAll()
	require.True(t, store.IsAllSelected())
	require.Equal(t, []int64{11, 12, 13}, store.SelectedIDs())

	store.SelectAll()
	require.Equal(t, 0, store.SelectedCount(), "second select-all must clear")
	require.False(t, store.IsAllSelected())
}

func TestStore_ApplyFromAddressSingleCall(t *testing.T) {
	store, backend := newTestStore(t)
	store.ToggleSelect(11)
	store.ToggleSelect(12)

	msg, err := store.ApplyFromAddress(context.Background(), 70)
	require.NoError(t, err)
	require.Equal(t, "Updated 2 records", msg)

	calls := backend.payloads("bulk-update-from")
	require.Len(t, calls, 1, "bulk apply must be exactly one call")
	require.Equal(t, float64(70), calls[0]["saved_address_id"])
	ids := calls[0]["shipment_ids"].([]any)
	require.Len(t, ids, 2)

	// Non-destructive: selection survives the reload.
	require.Equal(t, 2, store.SelectedCount())
}

func TestStore_BulkRequiresSelection(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.ApplyService(context.Background(), api.ServiceCheapest)
	require.EqualError(t, err, "no records selected")

	empty := NewStore(api.New("http://127.0.0.1:1", time.Second, nil, nil), nil)
	_, err = empty.ApplyService(context.Background(), api.ServiceGround)
	require.EqualError(t, err, "no active batch")
}

func TestStore_ApplyServicePassesCheapestThrough(t *testing.T) {
	store, backend := newTestStore(t)
	store.SelectAll()

	_, err := store.ApplyService(context.Background(), api.ServiceCheapest)
	require.NoError(t, err)

	calls := backend.payloads("bulk-update-shipping")
	require.Len(t, calls, 1)
	require.Equal(t, "cheapest", calls[0]["service"], "cheapest is resolved server-side, sent literally")
}

func TestStore_VerifySelectedSummary(t *testing.T) {
	store, backend := newTestStore(t)
	store.ToggleSelect(11)
	store.ToggleSelect(12)

	msg, err := store.VerifySelected(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Verified: 2, Failed: 0, Skipped: 0", msg)

	calls := backend.payloads("bulk-verify")
	require.Len(t, calls, 1)
	require.Equal(t, "both", calls[0]["address_type"])
	require.Equal(t, 2, store.SelectedCount(), "verification is non-destructive")
}

func TestStore_DeleteSelectedClearsSelection(t *testing.T) {
	store, backend := newTestStore(t)
	store.ToggleSelect(13)

	msg, err := store.DeleteSelected(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Deleted 1 records", msg)
	require.Equal(t, 0, store.SelectedCount(), "deleted ids must leave the selection")
	require.Len(t, backend.payloads("bulk-delete"), 1)

	// The reconciliation reload must not contain any deleted id.
	records := store.Shipments()
	require.Len(t, records, 2)
	for _, rec := range records {
		require.NotEqual(t, int64(13), rec.ID, "deleted record came back on reload")
	}
	require.Equal(t, 0, store.Batch().InvalidRecords)
}

// cleanBatch removes the invalid fixture record so the purchase gates pass.
func cleanBatch(t *testing.T, store *Store, backend *fakeBackend) {
	t.Helper()
	backend.removeShipments([]any{float64(13)})
	require.NoError(t, store.RefreshAll(context.Background()))
}

func TestStore_PurchaseFlow(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()
	cleanBatch(t, store, backend)

	_, err := store.Purchase(ctx, api.LabelSizeThermal, false, 100)
	require.EqualError(t, err, "Please accept the terms")

	_, err = store.Purchase(ctx, api.LabelSizeThermal, true, 10)
	require.EqualError(t, err, "Insufficient balance. You need $2.50 more.")

	backend.mu.Lock()
	calls := backend.purchaseCalls
	backend.mu.Unlock()
	require.Equal(t, 0, calls, "precondition failures must not reach the server")

	resp, err := store.Purchase(ctx, api.LabelSizeThermal, true, 100)
	require.NoError(t, err)
	require.Equal(t, 2, resp.TotalLabels)
	require.Equal(t, 87.50, resp.NewBalance)

	// Re-submission returns the stored result without a second charge.
	again, err := store.Purchase(ctx, api.LabelSizeThermal, true, 100)
	require.NoError(t, err)
	require.Equal(t, resp.TotalCost, again.TotalCost)
	backend.mu.Lock()
	calls = backend.purchaseCalls
	backend.mu.Unlock()
	require.Equal(t, 1, calls, "purchase must be issued exactly once")
}

func TestStore_PurchaseBlockedByInvalidRecords(t *testing.T) {
	store, backend := newTestStore(t)

	// The fixture batch still carries one invalid record; checkout must be
	// refused before any network call.
	_, err := store.Purchase(context.Background(), api.LabelSizeThermal, true, 100)
	require.EqualError(t, err, "Fix invalid records before purchase.")

	backend.mu.Lock()
	calls := backend.purchaseCalls
	backend.mu.Unlock()
	require.Equal(t, 0, calls, "invalid records must block the purchase entirely")

	// Deleting the invalid record lifts the gate.
	cleanBatch(t, store, backend)
	_, err = store.Purchase(context.Background(), api.LabelSizeThermal, true, 100)
	require.NoError(t, err)
}

func TestStore_PurchaseBlockedWithoutService(t *testing.T) {
	store, backend := newTestStore(t)
	backend.mu.Lock()
	backend.shipments = []api.ShipmentRecord{
		{ID: 11, Batch: 7, RowNumber: 1, IsValid: true, ShippingService: api.ServiceGround, ShippingCost: 5.00},
		{ID: 12, Batch: 7, RowNumber: 2, IsValid: true},
	}
	backend.batch.TotalRecords = 2
	backend.batch.ValidRecords = 2
	backend.batch.InvalidRecords = 0
	backend.mu.Unlock()
	require.NoError(t, store.RefreshAll(context.Background()))

	_, err := store.Purchase(context.Background(), api.LabelSizeThermal, true, 100)
	require.EqualError(t, err, "Every record needs a shipping service.")

	backend.mu.Lock()
	calls := backend.purchaseCalls
	backend.mu.Unlock()
	require.Equal(t, 0, calls)
}

func TestStore_PurchasedBatchRejectsPurchase(t *testing.T) {
	store, backend := newTestStore(t)
	backend.mu.Lock()
	backend.batch.Status = api.BatchPurchased
	backend.mu.Unlock()
	require.NoError(t, store.LoadBatch(context.Background(), 7))

	_, err := store.Purchase(context.Background(), api.LabelSizeThermal, true, 100)
	require.EqualError(t, err, "This batch has already been purchased.")
}

func TestStore_StaleLoadDropped(t *testing.T) {
	store, backend := newTestStore(t)
	ctx := context.Background()

	// The unfiltered load is slow; a filtered load started later must win even
	// though its response arrives first.
	backend.mu.Lock()
	backend.shipmentDelay = func(filter string) time.Duration {
		if filter == "" {
			return 150 * time.Millisecond
		}
		return 0
	}
	backend.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- store.LoadShipments(ctx, 7) }()
	time.Sleep(20 * time.Millisecond)

	store.SetFilter(FilterInvalid)
	require.NoError(t, store.LoadShipments(ctx, 7))
	require.NoError(t, <-done)

	records := store.Shipments()
	require.Len(t, records, 1, "stale unfiltered response must be dropped")
	require.False(t, records[0].IsValid)
}

func TestStore_SavedTemplates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.LoadSavedAddresses(ctx))
	require.NoError(t, store.LoadSavedPackages(ctx))

	addrs := store.SavedAddresses()
	require.Len(t, addrs, 1)
	require.True(t, addrs[0].IsDefault)
	require.Len(t, store.SavedPackages(), 1)
}

func TestStore_Reset(t *testing.T) {
	store, _ := newTestStore(t)
	store.ToggleSelect(11)
	store.SetFilter(FilterValid)
	store.SetSearch("x")
	store.Reset()

	require.Nil(t, store.Batch())
	require.Empty(t, store.Shipments())
	require.Equal(t, 0, store.SelectedCount())
	require.Equal(t, FilterAll, store.Filter())
	require.Equal(t, "", store.Search())
}
