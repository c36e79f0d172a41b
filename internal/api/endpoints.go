package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// maxUploadBytes mirrors the backend's upload cap so oversized files are
// rejected before any bytes travel.
const maxUploadBytes = 10 * 1024 * 1024

// Login exchanges credentials for a token pair and account snapshot. Invalid
// credentials surface as an AuthenticationError with the server's message.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	var out LoginResponse
	err := c.do(ctx, request{
		method:      "POST",
		path:        "/auth/login/",
		body:        payload,
		contentType: "application/json",
		noAuth:      true,
	}, &out)
	if err != nil {
		if remote, ok := err.(*RemoteError); ok && remote.StatusCode == 401 {
			return nil, &AuthenticationError{Message: remote.Message}
		}
		return nil, err
	}
	return &out, nil
}

// Me fetches the authoritative account snapshot.
func (c *Client) Me(ctx context.Context) (*Account, error) {
	var out Account
	if err := c.getJSON(ctx, "/auth/me/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadBatch uploads a spreadsheet and returns the created batch. File type
// and size are validated locally first.
func (c *Client) UploadBatch(ctx context.Context, fileName string, content []byte) (*Batch, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, &ValidationError{Reason: "Only CSV files allowed."}
	}
	if len(content) > maxUploadBytes {
		return nil, &ValidationError{Reason: "Max 10MB."}
	}
	var out Batch
	if err := c.postMultipart(ctx, "/batches/upload/", fileName, content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBatches returns all of the account's batches, newest first per the
// backend's ordering.
func (c *Client) ListBatches(ctx context.Context) ([]Batch, error) {
	var out []Batch
	if err := c.getJSON(ctx, "/batches/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetBatch fetches one batch.
func (c *Client) GetBatch(ctx context.Context, id int64) (*Batch, error) {
	var out Batch
	if err := c.getJSON(ctx, fmt.Sprintf("/batches/%d/", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBatch removes a batch and all its records.
func (c *Client) DeleteBatch(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/batches/%d/delete/", id))
}

// CalculateRates asks the backend to assign defaultService to every valid
// record and compute costs.
func (c *Client) CalculateRates(ctx context.Context, batchID int64, defaultService string) error {
	payload := map[string]string{"default_service": defaultService}
	return c.postJSON(ctx, fmt.Sprintf("/batches/%d/calculate-rates/", batchID), payload, nil)
}

// Purchase debits the prepaid balance and finalizes the batch.
func (c *Client) Purchase(ctx context.Context, batchID int64, req PurchaseRequest) (*PurchaseResponse, error) {
	var out PurchaseResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/batches/%d/purchase/", batchID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShipments returns a batch's records. filter is all|valid|invalid ("" or
// "all" sends no filter param); search is passed through trimmed.
func (c *Client) ListShipments(ctx context.Context, batchID int64, filter, search string) ([]ShipmentRecord, error) {
	q := url.Values{}
	if filter != "" && filter != "all" {
		q.Set("filter", filter)
	}
	if s := strings.TrimSpace(search); s != "" {
		q.Set("search", s)
	}
	var out []ShipmentRecord
	if err := c.getJSON(ctx, fmt.Sprintf("/batches/%d/shipments/", batchID), q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateShipment patches a single record and returns the server's updated
// copy (validation and display fields recomputed server-side).
func (c *Client) UpdateShipment(ctx context.Context, id int64, patch ShipmentPatch) (*ShipmentRecord, error) {
	var out ShipmentRecord
	if err := c.patchJSON(ctx, fmt.Sprintf("/shipments/%d/update/", id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteShipment removes a single record.
func (c *Client) DeleteShipment(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/shipments/%d/delete/", id))
}

// VerifyAddress runs server-side verification of one record's from or to
// address. addressType is "from" or "to".
func (c *Client) VerifyAddress(ctx context.Context, id int64, addressType string) (*VerifyAddressResponse, error) {
	var out VerifyAddressResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/shipments/%d/verify/%s/", id, addressType), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bulk endpoints. Each takes the full id list and one target parameter and is
// issued as exactly one call.

// BulkUpdateFrom applies a saved ship-from address to every listed record.
func (c *Client) BulkUpdateFrom(ctx context.Context, batchID int64, shipmentIDs []int64, savedAddressID int64) (*BulkActionResponse, error) {
	payload := map[string]any{"shipment_ids": shipmentIDs, "saved_address_id": savedAddressID}
	var out BulkActionResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/batches/%d/shipments/bulk-update-from/", batchID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkUpdatePackage applies a saved package preset to every listed record.
func (c *Client) BulkUpdatePackage(ctx context.Context, batchID int64, shipmentIDs []int64, savedPackageID int64) (*BulkActionResponse, error) {
	payload := map[string]any{"shipment_ids": shipmentIDs, "saved_package_id": savedPackageID}
	var out BulkActionResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/batches/%d/shipments/bulk-update-package/", batchID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkUpdateShipping assigns a service to every listed record. service may be
// the cheapest pseudo-service, which the backend resolves per record.
func (c *Client) BulkUpdateShipping(ctx context.Context, batchID int64, shipmentIDs []int64, service string) (*BulkActionResponse, error) {
	payload := map[string]any{"shipment_ids": shipmentIDs, "service": service}
	var out BulkActionResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/batches/%d/shipments/bulk-update-shipping/", batchID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BulkDelete removes every listed record.
func (c *Client) BulkDelete(ctx context.Context, batchID int64, shipmentIDs []int64) error {
	payload := map[string]any{"shipment_ids": shipmentIDs}
	return c.postJSON(ctx, fmt.Sprintf("/batches/%d/shipments/bulk-delete/", batchID), payload, nil)
}

// BulkVerify verifies both addresses of every listed record and returns the
// verified/failed/skipped tally.
func (c *Client) BulkVerify(ctx context.Context, batchID int64, shipmentIDs []int64) (*BulkVerifyResponse, error) {
	payload := map[string]any{"shipment_ids": shipmentIDs, "address_type": "both"}
	var out BulkVerifyResponse
	if err := c.postJSON(ctx, fmt.Sprintf("/batches/%d/shipments/bulk-verify/", batchID), payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSavedAddresses fetches the ship-from templates.
func (c *Client) ListSavedAddresses(ctx context.Context) ([]SavedAddress, error) {
	var out []SavedAddress
	if err := c.getJSON(ctx, "/saved-addresses/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSavedPackages fetches the package presets.
func (c *Client) ListSavedPackages(ctx context.Context) ([]SavedPackage, error) {
	var out []SavedPackage
	if err := c.getJSON(ctx, "/saved-packages/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ShippingRates fetches the service price table.
func (c *Client) ShippingRates(ctx context.Context) (*ShippingRatesResponse, error) {
	var out ShippingRatesResponse
	if err := c.getJSON(ctx, "/shipping-rates/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
