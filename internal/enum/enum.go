package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusOpen = "OPEN"
	OrderStatusPaid = "PAID"
	// Cancelled orders have no status constant: the order row is deleted
	// and replaced by an audit record.
)

const (
	PaymentMethodCash          = "CASH"
	PaymentMethodDigitalWallet = "DIGITAL_WALLET"
	PaymentMethodCardTerminal  = "CARD_TERMINAL"
)

// ── Cancellation audit ──

const (
	RiskLevelLow    = "LOW"
	RiskLevelMedium = "MEDIUM"
	RiskLevelHigh   = "HIGH"
)

const (
	AuditActionOrderCancelled = "ORDER_CANCELLED"
)

// ── Staff roles (CHECK constrained in DB) ──

const (
	RoleManager = "MANAGER"
	RoleWaiter  = "WAITER"
	RoleKitchen = "KITCHEN"
)
