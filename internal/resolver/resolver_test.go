package resolver

import (
	"context"
	"errors"
	"testing"

	"ens-market-context/internal/domain"
)

const (
	conduit = "0x1e0049783F008A0085193E00003D00cd54003c71"
	buyer   = "0xbbbb000000000000000000000000000000000001"
	seller  = "0xaaaa000000000000000000000000000000000002"
)

type fakeTransfers struct {
	legs       []domain.Activity
	incomplete bool
	err        error
	calls      int
}

func (f *fakeTransfers) TxTransfers(_ context.Context, _, _, _ string) ([]domain.Activity, bool, error) {
	f.calls++
	return f.legs, f.incomplete, f.err
}

func transfer(from, to string, logIndex int) domain.Activity {
	return domain.Activity{
		Type:        domain.ActivityTransfer,
		FromAddress: from,
		ToAddress:   to,
		Timestamp:   100,
		TxHash:      "0xtx1",
		LogIndex:    logIndex,
	}
}

func proxySale() domain.Activity {
	return domain.Activity{
		Type:        domain.ActivitySale,
		FromAddress: seller,
		ToAddress:   conduit,
		TxHash:      "0xTX1", // hash casing differs from the transfer legs
		Contract:    "0xens",
		TokenID:     "42",
	}
}

func TestResolve_ThroughProxy(t *testing.T) {
	ft := &fakeTransfers{legs: []domain.Activity{
		transfer(conduit, buyer, 2),
		transfer(seller, conduit, 1),
	}}
	r := NewResolver(ft)

	got := r.Resolve(context.Background(), proxySale())

	if got.ResolvedBuyer != buyer {
		t.Errorf("buyer = %q, want the final transfer recipient", got.ResolvedBuyer)
	}
	if got.ResolvedSeller != seller {
		t.Errorf("seller = %q, want the first sender", got.ResolvedSeller)
	}
	if ft.calls != 1 {
		t.Errorf("transfer lookups = %d, want 1", ft.calls)
	}
}

func TestResolve_SkipsZeroAddressSeller(t *testing.T) {
	ft := &fakeTransfers{legs: []domain.Activity{
		transfer(domain.ZeroAddress, conduit, 1),
		transfer(conduit, buyer, 2),
	}}
	r := NewResolver(ft)

	got := r.Resolve(context.Background(), proxySale())
	if got.ResolvedSeller != seller {
		t.Errorf("seller = %q, want fallback past the mint leg", got.ResolvedSeller)
	}
}

func TestResolve_FallsBackWhenLookupFails(t *testing.T) {
	for name, ft := range map[string]*fakeTransfers{
		"error":                {err: errors.New("boom")},
		"empty":                {},
		"incomplete and empty": {incomplete: true},
	} {
		t.Run(name, func(t *testing.T) {
			r := NewResolver(ft)
			got := r.Resolve(context.Background(), proxySale())
			if got.ResolvedBuyer != conduit || got.ResolvedSeller != seller {
				t.Errorf("fallback must keep originals, got buyer=%q seller=%q",
					got.ResolvedBuyer, got.ResolvedSeller)
			}
		})
	}
}

func TestResolve_IncompleteFetchStillResolvesMatchedLegs(t *testing.T) {
	ft := &fakeTransfers{
		legs: []domain.Activity{
			transfer(conduit, buyer, 2),
			transfer(seller, conduit, 1),
		},
		incomplete: true,
	}
	r := NewResolver(ft)

	got := r.Resolve(context.Background(), proxySale())
	if got.ResolvedBuyer != buyer || got.ResolvedSeller != seller {
		t.Errorf("matched legs must resolve despite the partial fetch, got buyer=%q seller=%q",
			got.ResolvedBuyer, got.ResolvedSeller)
	}
}

func TestResolve_NoLookupWithoutProxy(t *testing.T) {
	ft := &fakeTransfers{}
	r := NewResolver(ft)

	plain := domain.Activity{
		Type:        domain.ActivitySale,
		FromAddress: seller,
		ToAddress:   buyer,
		TxHash:      "0xtx9",
	}
	got := r.Resolve(context.Background(), plain)

	if ft.calls != 0 {
		t.Errorf("lookups = %d, want 0 for a direct sale", ft.calls)
	}
	if got.ResolvedBuyer != buyer || got.ResolvedSeller != seller {
		t.Errorf("direct sale must pass through, got %+v", got)
	}
}

func TestResolve_IgnoresOtherTransactionsAndTypes(t *testing.T) {
	other := transfer(conduit, "0xsomeoneelse", 5)
	other.TxHash = "0xother"
	saleLeg := domain.Activity{Type: domain.ActivitySale, TxHash: "0xtx1", ToAddress: "0xnoise"}
	ft := &fakeTransfers{legs: []domain.Activity{
		other,
		saleLeg,
		transfer(seller, conduit, 1),
		transfer(conduit, buyer, 2),
	}}
	r := NewResolver(ft)

	got := r.Resolve(context.Background(), proxySale())
	if got.ResolvedBuyer != buyer || got.ResolvedSeller != seller {
		t.Errorf("got buyer=%q seller=%q", got.ResolvedBuyer, got.ResolvedSeller)
	}
}

func TestResolve_CustomProxyList(t *testing.T) {
	custom := "0xC0FFEE0000000000000000000000000000000001"
	ft := &fakeTransfers{legs: []domain.Activity{
		transfer(seller, custom, 1),
		transfer(custom, buyer, 2),
	}}
	r := NewResolver(ft, WithProxies(map[string]string{custom: "house router"}))

	if r.IsProxy(conduit) {
		t.Error("default list must be replaced, not merged")
	}
	if !r.IsProxy(custom) {
		t.Fatal("custom proxy not recognized")
	}

	a := proxySale()
	a.ToAddress = custom
	got := r.Resolve(context.Background(), a)
	if got.ResolvedBuyer != buyer {
		t.Errorf("buyer = %q", got.ResolvedBuyer)
	}
}
