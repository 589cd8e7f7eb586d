package analysis

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"ens-market-context/internal/domain"
)

func filledTrade(ts int64, from, to, tx, amount, source string) domain.Activity {
	a := tradeAt(domain.ActivitySale, ts, from, to, tx, amount, 0)
	a.FillSource = source
	return a
}

func TestUserActivity_RequiresWallet(t *testing.T) {
	_, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{})
	if err == nil {
		t.Fatal("expected an error without a wallet")
	}
}

func TestUserActivity_BuysAndSells(t *testing.T) {
	in := UserActivityInput{
		Wallet: walletA,
		Activities: []domain.Activity{
			filledTrade(1000, walletB, walletA, "0xb1", "1.0", "opensea.io"),
			filledTrade(2000, walletA, walletC, "0xs1", "2.5", "blur.io"),
			filledTrade(3000, walletB, walletA, "0xb2", "0.5", "opensea.io"),
		},
	}
	got, err := newTestAnalyzer().UserActivity(context.Background(), in)
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}

	if got.BuyCount != 2 || got.SellCount != 1 {
		t.Errorf("buys/sells = %d/%d, want 2/1", got.BuyCount, got.SellCount)
	}
	if !got.BuyVolumeETH.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("buy volume = %s, want 1.5", got.BuyVolumeETH)
	}
	if !got.SellVolumeETH.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("sell volume = %s, want 2.5", got.SellVolumeETH)
	}
}

func TestUserActivity_MintsAreBuys(t *testing.T) {
	mint := tradeAt(domain.ActivityMint, 1000, domain.ZeroAddress, walletA, "0xm1", "0.1", 0)
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet:     walletA,
		Activities: []domain.Activity{mint},
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if got.BuyCount != 1 {
		t.Errorf("buy count = %d, want 1 (mint acquired the token)", got.BuyCount)
	}
	if !got.BuyVolumeETH.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("buy volume = %s", got.BuyVolumeETH)
	}
}

func TestUserActivity_ZeroAddressNeverSells(t *testing.T) {
	// Mint legs carry the zero address as seller. Stats scoped to the zero
	// address itself must not claim those mints as its sales.
	mint := tradeAt(domain.ActivityMint, 1000, domain.ZeroAddress, walletA, "0xm1", "0.1", 0)
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet:     domain.ZeroAddress,
		Activities: []domain.Activity{mint},
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if got.SellCount != 0 {
		t.Errorf("sell count = %d, want 0 for the zero address", got.SellCount)
	}
	if !got.SellVolumeETH.IsZero() {
		t.Errorf("sell volume = %s, want 0", got.SellVolumeETH)
	}
}

func TestUserActivity_SingleTradeCadenceIsOne(t *testing.T) {
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet: walletA,
		Activities: []domain.Activity{
			filledTrade(1000, walletB, walletA, "0xb1", "1.0", ""),
		},
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if got.TradesPerMonth != 1 {
		t.Errorf("cadence = %f, want 1 for a single trade", got.TradesPerMonth)
	}
}

func TestUserActivity_CadenceOverSpan(t *testing.T) {
	// Three trades across exactly one 30-day month.
	const month = 30 * 24 * 3600
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet: walletA,
		Activities: []domain.Activity{
			filledTrade(0, walletB, walletA, "0xb1", "1", ""),
			filledTrade(month/2, walletA, walletB, "0xs1", "1", ""),
			filledTrade(month, walletB, walletA, "0xb2", "1", ""),
		},
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if got.TradesPerMonth != 3 {
		t.Errorf("cadence = %f, want 3", got.TradesPerMonth)
	}
}

func TestUserActivity_TopMarketplaces(t *testing.T) {
	acts := []domain.Activity{
		filledTrade(1, walletB, walletA, "0x1", "1", "blur.io"),
		filledTrade(2, walletB, walletA, "0x2", "1", "blur.io"),
		filledTrade(3, walletB, walletA, "0x3", "1", "opensea.io"),
		filledTrade(4, walletB, walletA, "0x4", "1", "opensea.io"),
		filledTrade(5, walletB, walletA, "0x5", "1", "x2y2.io"),
		filledTrade(6, walletB, walletA, "0x6", "1", "looksrare.org"),
	}
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet:     walletA,
		Activities: acts,
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}

	if len(got.TopMarketplaces) != 3 {
		t.Fatalf("top marketplaces = %d entries, want 3", len(got.TopMarketplaces))
	}
	// blur and opensea tie at 2 and sort alphabetically; the 1-count tie
	// resolves to looksrare.
	want := []string{"blur.io", "opensea.io", "looksrare.org"}
	for i, w := range want {
		if got.TopMarketplaces[i].Source != w {
			t.Errorf("rank %d = %q, want %q", i, got.TopMarketplaces[i].Source, w)
		}
	}
}

func TestUserActivity_EmptyWalletIsValid(t *testing.T) {
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet:   walletA,
		Holdings: domain.HoldingsSnapshot{Names: []string{"alpha.eth"}, Count: 1},
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if got.BuyCount != 0 || got.SellCount != 0 || got.TradesPerMonth != 0 {
		t.Errorf("fresh wallet stats must be zero, got %+v", got)
	}
	if got.Holdings.Count != 1 {
		t.Errorf("holdings must carry through, got %+v", got.Holdings)
	}
}

func TestUserActivity_HoldingsIncompleteFlagsResult(t *testing.T) {
	got, err := newTestAnalyzer().UserActivity(context.Background(), UserActivityInput{
		Wallet:   walletA,
		Holdings: domain.HoldingsSnapshot{Incomplete: true},
	})
	if err != nil {
		t.Fatalf("UserActivity: %v", err)
	}
	if !got.Incomplete {
		t.Error("incomplete holdings must flag the profile")
	}
}
