package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shipdeck/internal/api"
)

// Bulk operations. Shared contract: one network call carrying the full
// selected id list plus a single target value; on success a human-readable
// summary and a full reconciliation reload, so server-computed fields are
// never guessed client-side; on failure local state is left untouched.

func (s *Store) selectedForBulk() ([]int64, int64, error) {
	b := s.Batch()
	if b == nil {
		return nil, 0, &api.ValidationError{Reason: "no active batch"}
	}
	ids := s.SelectedIDs()
	if len(ids) == 0 {
		return nil, 0, &api.ValidationError{Reason: "no records selected"}
	}
	return ids, b.ID, nil
}

// ApplyFromAddress applies a saved ship-from template to every selected
// record and returns the server's summary message.
func (s *Store) ApplyFromAddress(ctx context.Context, savedAddressID int64) (string, error) {
	ids, batchID, err := s.selectedForBulk()
	if err != nil {
		return "", err
	}
	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.BulkUpdateFrom(ctx, batchID, ids, savedAddressID)
	if err != nil {
		return "", err
	}
	s.log.Info("bulk ship-from applied", zap.Int("records", len(ids)), zap.Int64("template", savedAddressID))
	return resp.Message, s.RefreshAll(ctx)
}

// ApplyPackage applies a saved package preset to every selected record.
func (s *Store) ApplyPackage(ctx context.Context, savedPackageID int64) (string, error) {
	ids, batchID, err := s.selectedForBulk()
	if err != nil {
		return "", err
	}
	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.BulkUpdatePackage(ctx, batchID, ids, savedPackageID)
	if err != nil {
		return "", err
	}
	s.log.Info("bulk package applied", zap.Int("records", len(ids)), zap.Int64("template", savedPackageID))
	return resp.Message, s.RefreshAll(ctx)
}

// ApplyService assigns a shipping service to every selected record. The
// cheapest pseudo-service is passed through literally; the backend resolves
// it per record and the client never computes cost locally.
func (s *Store) ApplyService(ctx context.Context, service string) (string, error) {
	ids, batchID, err := s.selectedForBulk()
	if err != nil {
		return "", err
	}
	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.BulkUpdateShipping(ctx, batchID, ids, service)
	if err != nil {
		return "", err
	}
	s.log.Info("bulk service applied", zap.Int("records", len(ids)), zap.String("service", service))
	return resp.Message, s.RefreshAll(ctx)
}

// VerifySelected verifies both addresses of every selected record and reports
// the verified/failed/skipped tally. Non-destructive: the list and the
// selection survive.
func (s *Store) VerifySelected(ctx context.Context) (string, error) {
	ids, batchID, err := s.selectedForBulk()
	if err != nil {
		return "", err
	}
	s.setBusy(true)
	defer s.setBusy(false)

	resp, err := s.client.BulkVerify(ctx, batchID, ids)
	if err != nil {
		return "", err
	}
	summary := fmt.Sprintf("Verified: %d, Failed: %d, Skipped: %d", resp.Verified, resp.Failed, resp.Skipped)
	return summary, s.RefreshAll(ctx)
}

// DeleteSelected removes every selected record. The selection is cleared
// after success since the ids no longer exist.
func (s *Store) DeleteSelected(ctx context.Context) (string, error) {
	ids, batchID, err := s.selectedForBulk()
	if err != nil {
		return "", err
	}
	s.setBusy(true)
	defer s.setBusy(false)

	if err := s.client.BulkDelete(ctx, batchID, ids); err != nil {
		return "", err
	}
	s.ClearSelection()
	s.log.Info("bulk delete", zap.Int("records", len(ids)))
	return fmt.Sprintf("Deleted %d records", len(ids)), s.RefreshAll(ctx)
}
