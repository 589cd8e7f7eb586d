// apiprobe is a one-shot debugging tool: fetch a page of marketplace
// activity, or resolve the counterparties of one transaction, and print the
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"ens-market-context/internal/domain"
	"ens-market-context/internal/marketplace"
	"ens-market-context/internal/resolver"
)

func main() {
	baseURL := flag.String("base-url", "", "Marketplace API base URL")
	apiKey := flag.String("api-key", "", "Marketplace API key (or ENSCTX_API_KEY)")
	contract := flag.String("contract", "", "Collection contract address")
	tokenID := flag.String("token", "", "Token ID within the collection")
	wallet := flag.String("wallet", "", "Wallet address to fetch activity for")
	txHash := flag.String("tx", "", "Resolve the counterparties of this transaction (needs --contract and --token)")
	limit := flag.Int("limit", 20, "Page size")
	types := flag.String("types", "sale,mint,transfer", "Comma-separated activity types")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")

	flag.Parse()

	logger := log.New(os.Stderr, "[apiprobe] ", log.LstdFlags)

	if *baseURL == "" {
		logger.Fatal("--base-url is required")
	}
	key := *apiKey
	if key == "" {
		key = os.Getenv("ENSCTX_API_KEY")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := marketplace.NewClient(*baseURL, key)

	var out any
	var err error
	if *txHash != "" {
		out, err = resolveTx(ctx, client, *contract, *tokenID, *txHash)
	} else {
		out, err = fetchPage(ctx, client, *contract, *tokenID, *wallet, *types, *limit)
	}
	if err != nil {
		logger.Fatalf("probe failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatalf("encode output: %v", err)
	}
}

func fetchPage(ctx context.Context, client *marketplace.Client, contract, tokenID, wallet, types string, limit int) (marketplace.Page, error) {
	return client.FetchPage(ctx, marketplace.PageRequest{
		Scope: marketplace.Scope{Contract: contract, TokenID: tokenID, Wallet: wallet},
		Types: parseTypes(types),
		Limit: limit,
	})
}

func resolveTx(ctx context.Context, client *marketplace.Client, contract, tokenID, txHash string) (domain.ResolvedActivity, error) {
	page, err := client.FetchPage(ctx, marketplace.PageRequest{
		Scope: marketplace.Scope{Contract: contract, TokenID: tokenID},
		Types: []domain.ActivityType{domain.ActivitySale, domain.ActivityMint},
	})
	if err != nil {
		return domain.ResolvedActivity{}, err
	}

	res := resolver.NewResolver(client)
	for _, a := range page.Activities {
		if a.SameTx(txHash) {
			return res.Resolve(ctx, a), nil
		}
	}
	return domain.ResolvedActivity{}, errNotInPage(txHash)
}

type errNotInPage string

func (e errNotInPage) Error() string {
	return "transaction not found in the latest activity page: " + string(e)
}

func parseTypes(s string) []domain.ActivityType {
	var out []domain.ActivityType
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, domain.ActivityType(part))
		}
	}
	return out
}
