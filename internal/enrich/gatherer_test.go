package enrich

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"ens-market-context/internal/analysis"
	"ens-market-context/internal/currency"
	"ens-market-context/internal/domain"
)

const (
	buyerAddr  = "0x00000000000000000000000000000000000000aa"
	sellerAddr = "0x00000000000000000000000000000000000000bb"
)

type passthroughResolver struct{}

func (passthroughResolver) Resolve(_ context.Context, a domain.Activity) domain.ResolvedActivity {
	return domain.ResolvedActivity{Activity: a, ResolvedBuyer: a.ToAddress, ResolvedSeller: a.FromAddress}
}

// fakeSources implements every collaborator with canned data and switchable
// failures.
type fakeSources struct {
	tokenActivities []domain.Activity
	tokenErr        error
	userActivities  map[string][]domain.Activity
	userErr         error
	holdingsErr     error
	nameOf          map[string]string
	nameErr         error
	nameCalls       atomic.Int32
}

func (f *fakeSources) TokenActivities(_ context.Context, _, _ string) ([]domain.Activity, bool, error) {
	if f.tokenErr != nil {
		return nil, false, f.tokenErr
	}
	return f.tokenActivities, true, nil
}

func (f *fakeSources) UserActivities(_ context.Context, wallet string) ([]domain.Activity, bool, error) {
	if f.userErr != nil {
		return nil, false, f.userErr
	}
	return f.userActivities[wallet], true, nil
}

func (f *fakeSources) Holdings(_ context.Context, wallet string) (domain.HoldingsSnapshot, error) {
	if f.holdingsErr != nil {
		return domain.HoldingsSnapshot{}, f.holdingsErr
	}
	return domain.HoldingsSnapshot{Names: []string{"held.eth"}, Count: 1}, nil
}

func (f *fakeSources) ReverseName(_ context.Context, addr string) (string, error) {
	f.nameCalls.Add(1)
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.nameOf[addr], nil
}

func newTestGatherer(f *fakeSources) *Gatherer {
	norm := currency.NewNormalizer()
	analyzer := analysis.NewAnalyzer(passthroughResolver{}, norm)
	return NewGatherer(f, f, f, f, analyzer, norm, GathererOptions{})
}

func saleEvent() domain.MarketEvent {
	return domain.NewSaleEvent(domain.SaleEvent{
		Name:     "vault.eth",
		Contract: "0xens0000000000000000000000000000000000ee",
		TokenID:  "42",
		Buyer:    buyerAddr,
		Seller:   sellerAddr,
		Price: domain.Price{
			CurrencyContract: domain.ZeroAddress,
			NativeETH:        decimal.RequireFromString("1.5"),
			USDAmount:        3000,
		},
		Timestamp: 1700000500,
		TxHash:    "0xnow",
	})
}

func registrationEvent() domain.MarketEvent {
	return domain.NewRegistrationEvent(domain.RegistrationEvent{
		Name:       "fresh.eth",
		Contract:   "0xens0000000000000000000000000000000000ee",
		TokenID:    "77",
		Registrant: buyerAddr,
		Timestamp:  1700000500,
		TxHash:     "0xreg",
	})
}

func TestEnrich_SaleFullContext(t *testing.T) {
	f := &fakeSources{
		tokenActivities: []domain.Activity{{
			Type:        domain.ActivitySale,
			FromAddress: "0x00000000000000000000000000000000000000cc",
			ToAddress:   sellerAddr,
			Timestamp:   1700000000,
			TxHash:      "0xacq",
			Price:       domain.Price{NativeETH: decimal.RequireFromString("1.0"), USDAmount: 2000},
		}},
		userActivities: map[string][]domain.Activity{},
		nameOf:         map[string]string{buyerAddr: "buyer.eth", sellerAddr: "seller.eth"},
	}
	g := newTestGatherer(f)

	got, err := g.Enrich(context.Background(), saleEvent())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if got.ContextID == [16]byte{} {
		t.Error("context id must be minted")
	}
	if got.Token.TradeCount != 1 {
		t.Errorf("trade count = %d, want 1", got.Token.TradeCount)
	}
	if !got.Token.SellerAcquisitionTracked {
		t.Error("the seller bought at 0xacq; acquisition should be tracked")
	}
	if got.Seller == nil {
		t.Fatal("a sale has a seller profile")
	}
	if got.BuyerName.Name != "buyer.eth" || got.SellerName.Name != "seller.eth" {
		t.Errorf("names = %q/%q", got.BuyerName.Name, got.SellerName.Name)
	}
	if got.Incomplete.AnyIncomplete() {
		t.Errorf("nothing degraded, flags = %+v", got.Incomplete)
	}
	if got.Buyer.Holdings.Count != 1 {
		t.Errorf("buyer holdings = %+v", got.Buyer.Holdings)
	}
}

func TestEnrich_RegistrationHasNoSeller(t *testing.T) {
	f := &fakeSources{
		userActivities: map[string][]domain.Activity{},
		nameOf:         map[string]string{buyerAddr: "buyer.eth"},
	}
	g := newTestGatherer(f)

	got, err := g.Enrich(context.Background(), registrationEvent())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got.Seller != nil {
		t.Error("a registration must carry no seller profile at all")
	}
	if got.SellerName.Address != "" || got.SellerName.Name != "" {
		t.Errorf("seller name must stay empty, got %+v", got.SellerName)
	}
	if got.Buyer.Address != buyerAddr {
		t.Errorf("buyer address = %q", got.Buyer.Address)
	}
}

func TestEnrich_BranchFailureDegradesNotFails(t *testing.T) {
	f := &fakeSources{
		tokenErr:       errors.New("provider down"),
		userActivities: map[string][]domain.Activity{},
		nameOf:         map[string]string{buyerAddr: "buyer.eth", sellerAddr: "seller.eth"},
	}
	g := newTestGatherer(f)

	got, err := g.Enrich(context.Background(), saleEvent())
	if err != nil {
		t.Fatalf("a degraded branch must not fail the context: %v", err)
	}
	if !got.Incomplete.TokenHistory {
		t.Error("token history flag must be set")
	}
	if got.Incomplete.BuyerActivity || got.Incomplete.Names {
		t.Errorf("sibling branches must be untouched, flags = %+v", got.Incomplete)
	}
	if got.Token.TradeCount != 0 {
		t.Errorf("degraded token insights must be empty, got %+v", got.Token)
	}
	if got.BuyerName.Name != "buyer.eth" {
		t.Errorf("names branch should still run, got %q", got.BuyerName.Name)
	}
}

func TestEnrich_HoldingsFailureFlagsOnlyHoldings(t *testing.T) {
	f := &fakeSources{
		holdingsErr:    errors.New("holdings api down"),
		userActivities: map[string][]domain.Activity{},
		nameOf:         map[string]string{},
	}
	g := newTestGatherer(f)

	got, err := g.Enrich(context.Background(), saleEvent())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if !got.Incomplete.BuyerHoldings || !got.Incomplete.SellerHoldings {
		t.Errorf("holdings flags must be set, got %+v", got.Incomplete)
	}
	if got.Incomplete.TokenHistory {
		t.Error("token branch must be unaffected")
	}
	if !got.Buyer.Incomplete {
		t.Error("buyer profile must be flagged incomplete")
	}
}

func TestEnrich_NameFailureLeavesAddressOnly(t *testing.T) {
	f := &fakeSources{
		nameErr:        errors.New("reverse lookup down"),
		userActivities: map[string][]domain.Activity{},
	}
	g := newTestGatherer(f)

	got, err := g.Enrich(context.Background(), saleEvent())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if !got.Incomplete.Names {
		t.Error("names flag must be set")
	}
	if got.BuyerName.Address != buyerAddr || got.BuyerName.Name != "" {
		t.Errorf("buyer name = %+v, want bare address", got.BuyerName)
	}
}

func TestEnrich_NamesAreCached(t *testing.T) {
	f := &fakeSources{
		userActivities: map[string][]domain.Activity{},
		nameOf:         map[string]string{buyerAddr: "buyer.eth", sellerAddr: "seller.eth"},
	}
	g := newTestGatherer(f)

	ctx := context.Background()
	if _, err := g.Enrich(ctx, saleEvent()); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	first := f.nameCalls.Load()
	if _, err := g.Enrich(ctx, saleEvent()); err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if f.nameCalls.Load() != first {
		t.Errorf("second enrichment must hit the cache, lookups %d -> %d",
			first, f.nameCalls.Load())
	}
}

func TestEnrich_InvalidEvent(t *testing.T) {
	g := newTestGatherer(&fakeSources{})

	_, err := g.Enrich(context.Background(), domain.MarketEvent{Kind: domain.EventSale})
	if !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("err = %v, want ErrInvalidEvent", err)
	}
}

func TestEnrich_FreshContextIDPerCall(t *testing.T) {
	f := &fakeSources{userActivities: map[string][]domain.Activity{}, nameOf: map[string]string{}}
	g := newTestGatherer(f)

	ctx := context.Background()
	a, err := g.Enrich(ctx, saleEvent())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	b, err := g.Enrich(ctx, saleEvent())
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if a.ContextID == b.ContextID {
		t.Error("each enrichment mints its own context id")
	}
}
