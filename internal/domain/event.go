package domain

// EventKind tags the MarketEvent union.
type EventKind string

const (
	EventSale         EventKind = "sale"
	EventRegistration EventKind = "registration"
)

// SaleEvent is a settled secondary sale sourced from the system of record.
type SaleEvent struct {
	Name      string
	Contract  string
	TokenID   string
	Buyer     string
	Seller    string
	Price     Price
	Timestamp int64
	TxHash    string
}

// RegistrationEvent is a fresh name registration. There is no seller.
type RegistrationEvent struct {
	Name       string
	Contract   string
	TokenID    string
	Registrant string
	Cost       Price
	Timestamp  int64
	TxHash     string
}

// MarketEvent is a tagged union of the event variants the enrichment engine
// accepts. Exactly one variant matches the Kind; consumers switch on Kind
// instead of probing field presence.
type MarketEvent struct {
	Kind         EventKind
	Sale         *SaleEvent
	Registration *RegistrationEvent
}

// NewSaleEvent wraps a sale into a MarketEvent.
func NewSaleEvent(s SaleEvent) MarketEvent {
	return MarketEvent{Kind: EventSale, Sale: &s}
}

// NewRegistrationEvent wraps a registration into a MarketEvent.
func NewRegistrationEvent(r RegistrationEvent) MarketEvent {
	return MarketEvent{Kind: EventRegistration, Registration: &r}
}

// Valid reports whether the union carries the variant its tag names.
func (e MarketEvent) Valid() bool {
	switch e.Kind {
	case EventSale:
		return e.Sale != nil
	case EventRegistration:
		return e.Registration != nil
	default:
		return false
	}
}

// Token returns the contract and token id of the subject token.
func (e MarketEvent) Token() (contract, tokenID string) {
	switch e.Kind {
	case EventSale:
		return e.Sale.Contract, e.Sale.TokenID
	case EventRegistration:
		return e.Registration.Contract, e.Registration.TokenID
	}
	return "", ""
}

// TxHash returns the transaction hash of the current event.
func (e MarketEvent) TxHash() string {
	switch e.Kind {
	case EventSale:
		return e.Sale.TxHash
	case EventRegistration:
		return e.Registration.TxHash
	}
	return ""
}

// Timestamp returns the event time in unix seconds.
func (e MarketEvent) Timestamp() int64 {
	switch e.Kind {
	case EventSale:
		return e.Sale.Timestamp
	case EventRegistration:
		return e.Registration.Timestamp
	}
	return 0
}
