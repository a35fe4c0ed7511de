package audithook

// Action constants for audit events.
const (
	// Catalog actions
	ActionProductCreated = "product.created"

	// Trade actions
	ActionProductPurchased = "product.purchased"
	ActionProductRefunded  = "product.refunded"

	// Treasury actions
	ActionDonationReceived = "donation.received"

	// Service actions
	ActionServicePurchased = "service.purchased"

	// Failure actions
	ActionTransferFailed = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourceProduct  = "product"
	ResourceDonation = "donation"
	ResourceService  = "service"
	ResourceTransfer = "transfer"
)

// Category constants for audit events.
const (
	CategoryCatalog  = "catalog"
	CategoryTrade    = "trade"
	CategoryTreasury = "treasury"
	CategoryPayment  = "payment"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
