package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shipdeck/internal/api"
)

// FormatUSD renders a monetary amount to the cent.
func FormatUSD(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

// Shortfall returns how much balance is missing for totalCost, zero when the
// balance covers it.
func Shortfall(balance, totalCost float64) float64 {
	if balance >= totalCost {
		return 0
	}
	return totalCost - balance
}

// PurchaseResult returns the completed purchase, or nil. Once non-nil the
// batch is read-only and the checkout must not be offered again.
func (s *Store) PurchaseResult() *api.PurchaseResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.purchaseResult == nil {
		return nil
	}
	r := *s.purchaseResult
	return &r
}

// Purchase debits the balance for every ready record. Preconditions are
// checked locally and fail before any network call; an already-completed
// purchase returns the stored result without issuing a second charge. The
// backend independently rejects double purchases, so the state gate here is a
// convenience, not the safety net. On failure the checkout inputs stay valid
// for a retry.
func (s *Store) Purchase(ctx context.Context, labelSize string, acceptTerms bool, balance float64) (*api.PurchaseResponse, error) {
	if prior := s.PurchaseResult(); prior != nil {
		return prior, nil
	}
	b := s.Batch()
	if b == nil {
		return nil, &api.ValidationError{Reason: "no active batch"}
	}
	if b.Status == api.BatchPurchased {
		return nil, &api.ValidationError{Reason: "This batch has already been purchased."}
	}
	if b.InvalidRecords > 0 {
		return nil, &api.ValidationError{Reason: "Fix invalid records before purchase."}
	}
	for _, rec := range s.Shipments() {
		if rec.IsValid && rec.ShippingService == "" {
			return nil, &api.ValidationError{Reason: "Every record needs a shipping service."}
		}
	}
	if !acceptTerms {
		return nil, &api.ValidationError{Reason: "Please accept the terms"}
	}
	if short := Shortfall(balance, s.TotalCost()); short > 0 {
		return nil, &api.ValidationError{
			Reason: fmt.Sprintf("Insufficient balance. You need %s more.", FormatUSD(short)),
		}
	}

	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.Purchase(ctx, b.ID, api.PurchaseRequest{
		LabelSize:   labelSize,
		AcceptTerms: true,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.purchaseResult = resp
	s.mu.Unlock()
	s.log.Info("purchase complete",
		zap.Int64("batch", b.ID),
		zap.Int("labels", resp.TotalLabels),
		zap.Float64("cost", resp.TotalCost))

	// Reconcile the now-purchased batch; the result above already carries
	// everything the success screen needs, so a failed reload is not fatal.
	if err := s.LoadBatch(ctx, b.ID); err != nil {
		s.log.Debug("post-purchase reload failed", zap.Error(err))
	}
	return resp, nil
}
