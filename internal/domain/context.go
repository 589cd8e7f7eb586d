package domain

import "github.com/google/uuid"

// SourceFlags records, per upstream branch, whether the data backing the
// context is complete. A consumer must never mistake partial data for
// complete data, so every degradation is observable here.
type SourceFlags struct {
	TokenHistory   bool
	BuyerActivity  bool
	SellerActivity bool
	BuyerHoldings  bool
	SellerHoldings bool
	Names          bool
}

// AnyIncomplete reports whether any branch degraded.
func (f SourceFlags) AnyIncomplete() bool {
	return f.TokenHistory || f.BuyerActivity || f.SellerActivity ||
		f.BuyerHoldings || f.SellerHoldings || f.Names
}

// NameInfo is the outcome of the name-research collaborator for one party.
type NameInfo struct {
	Address string
	Name    string
}

// ReplyContext is the immutable enrichment handed to the reply-generation
// consumer. Seller-side fields are entirely absent, not merely null, when the
// event is a registration.
type ReplyContext struct {
	ContextID uuid.UUID

	Event MarketEvent
	Token TokenInsights
	Buyer UserStats

	// Seller is nil for registrations.
	Seller *UserStats

	BuyerName  NameInfo
	SellerName NameInfo

	Incomplete SourceFlags
}
