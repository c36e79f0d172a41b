package api

// Wire types for the bulk shipping backend. Field names follow the JSON the
// server emits; the client never recomputes server-derived fields (validation
// results, costs, display strings).

// AccountProfile carries the billing side of an account.
type AccountProfile struct {
	CompanyName string  `json:"company_name"`
	Balance     float64 `json:"balance"`
}

// Account is the authenticated user snapshot returned by login and /auth/me/.
type Account struct {
	ID        int64          `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Profile   AccountProfile `json:"profile"`
}

// LoginResponse is the token pair plus account snapshot from /auth/login/.
type LoginResponse struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    Account `json:"user"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Batch lifecycle statuses. Status only ever advances; once purchased the
// batch is read-only from the client's perspective.
const (
	BatchDraft            = "draft"
	BatchReviewed         = "reviewed"
	BatchShippingSelected = "shipping_selected"
	BatchPurchased        = "purchased"
)

// Batch is one uploaded spreadsheet and its record counts.
type Batch struct {
	ID             int64    `json:"id"`
	FileName       string   `json:"file_name"`
	TotalRecords   int      `json:"total_records"`
	ValidRecords   int      `json:"valid_records"`
	InvalidRecords int      `json:"invalid_records"`
	Status         string   `json:"status"`
	LabelSize      string   `json:"label_size"`
	TotalCost      float64  `json:"total_cost"`
	CreatedAt      string   `json:"created_at"`
	UpdatedAt      string   `json:"updated_at"`
	ParseWarnings  []string `json:"parse_warnings,omitempty"`
}

// Per-address verification outcomes.
const (
	VerifyUnverified = "unverified"
	VerifyVerified   = "verified"
	VerifyFailed     = "failed"
)

// Shipping services. ServiceCheapest is a pseudo-service the backend resolves
// per record; the client only ever sends the literal token.
const (
	ServiceGround   = "ground"
	ServicePriority = "priority"
	ServiceCheapest = "cheapest"
)

// ShipmentRecord is one row of a batch. RowNumber is display-only and not
// unique across batches; ID is the only stable identity.
type ShipmentRecord struct {
	ID        int64 `json:"id"`
	Batch     int64 `json:"batch"`
	RowNumber int   `json:"row_number"`

	FromFirstName string `json:"from_first_name"`
	FromLastName  string `json:"from_last_name"`
	FromAddress1  string `json:"from_address1"`
	FromAddress2  string `json:"from_address2"`
	FromCity      string `json:"from_city"`
	FromState     string `json:"from_state"`
	FromZip       string `json:"from_zip"`
	FromPhone     string `json:"from_phone"`

	ToFirstName string `json:"to_first_name"`
	ToLastName  string `json:"to_last_name"`
	ToAddress1  string `json:"to_address1"`
	ToAddress2  string `json:"to_address2"`
	ToCity      string `json:"to_city"`
	ToState     string `json:"to_state"`
	ToZip       string `json:"to_zip"`
	ToPhone     string `json:"to_phone"`

	WeightLb *float64 `json:"weight_lb"`
	WeightOz *float64 `json:"weight_oz"`
	Length   *float64 `json:"length"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`

	OrderNumber string `json:"order_number"`
	ItemSKU     string `json:"item_sku"`

	ValidationErrors []string `json:"validation_errors"`
	IsValid          bool     `json:"is_valid"`

	FromAddressVerified string `json:"from_address_verified"`
	ToAddressVerified   string `json:"to_address_verified"`

	ShippingService string  `json:"shipping_service"`
	ShippingCost    float64 `json:"shipping_cost"`

	FromAddressDisplay string  `json:"from_address_display"`
	ToAddressDisplay   string  `json:"to_address_display"`
	PackageDisplay     string  `json:"package_display"`
	TotalWeightOz      float64 `json:"total_weight_oz"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// SavedAddress is a read-only ship-from template owned by the backend.
type SavedAddress struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

// SavedPackage is a read-only package-dimensions template.
type SavedPackage struct {
	ID            int64   `json:"id"`
	Label         string  `json:"label"`
	Length        float64 `json:"length"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	WeightLb      float64 `json:"weight_lb"`
	WeightOz      float64 `json:"weight_oz"`
	TotalWeightOz float64 `json:"total_weight_oz"`
}

// ShippingRate describes one service's pricing.
type ShippingRate struct {
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	BasePrice float64 `json:"base_price"`
	PerOzRate float64 `json:"per_oz_rate"`
}

// ShippingRatesResponse is the /shipping-rates/ payload.
type ShippingRatesResponse struct {
	Services []ShippingRate `json:"services"`
}

// BulkActionResponse is the shared success payload of the bulk endpoints.
type BulkActionResponse struct {
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
}

// BulkVerifyResponse tallies a bulk address verification. Skipped counts
// records whose address was not eligible for re-verification; that policy is
// owned by the backend.
type BulkVerifyResponse struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// VerifyAddressResponse is the single-record verification payload.
type VerifyAddressResponse struct {
	ShipmentID  int64             `json:"shipment_id"`
	AddressType string            `json:"address_type"`
	Verified    bool              `json:"verified"`
	Errors      []string          `json:"errors"`
	Warnings    []string          `json:"warnings"`
	Suggestions map[string]string `json:"suggestions"`
}

// Label sizes accepted by the purchase endpoint.
const (
	LabelSizeThermal = "4x6"
	LabelSizeLetter  = "letter"
)

// PurchaseRequest is the checkout payload.
type PurchaseRequest struct {
	LabelSize   string `json:"label_size"`
	AcceptTerms bool   `json:"accept_terms"`
}

// PurchaseResponse confirms a completed purchase and carries the new balance.
type PurchaseResponse struct {
	Message     string  `json:"message"`
	BatchID     int64   `json:"batch_id"`
	TotalLabels int     `json:"total_labels"`
	TotalCost   float64 `json:"total_cost"`
	LabelSize   string  `json:"label_size"`
	NewBalance  float64 `json:"new_balance"`
}

// ShipmentPatch holds the writable fields of a shipment record for PATCH
// updates. Nil fields are omitted from the request body.
type ShipmentPatch struct {
	FromFirstName *string `json:"from_first_name,omitempty"`
	FromLastName  *string `json:"from_last_name,omitempty"`
	FromAddress1  *string `json:"from_address1,omitempty"`
	FromAddress2  *string `json:"from_address2,omitempty"`
	FromCity      *string `json:"from_city,omitempty"`
	FromState     *string `json:"from_state,omitempty"`
	FromZip       *string `json:"from_zip,omitempty"`
	FromPhone     *string `json:"from_phone,omitempty"`

	ToFirstName *string `json:"to_first_name,omitempty"`
	ToLastName  *string `json:"to_last_name,omitempty"`
	ToAddress1  *string `json:"to_address1,omitempty"`
	ToAddress2  *string `json:"to_address2,omitempty"`
	ToCity      *string `json:"to_city,omitempty"`
	ToState     *string `json:"to_state,omitempty"`
	ToZip       *string `json:"to_zip,omitempty"`
	ToPhone     *string `json:"to_phone,omitempty"`

	WeightLb *float64 `json:"weight_lb,omitempty"`
	WeightOz *float64 `json:"weight_oz,omitempty"`
	Length   *float64 `json:"length,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`

	ShippingService *string `json:"shipping_service,omitempty"`
}

// String returns a pointer to s, for building ShipmentPatch values.
func String(s string) *string { return &s }

// Float returns a pointer to f, for building ShipmentPatch values.
func Float(f float64) *float64 { return &f }
