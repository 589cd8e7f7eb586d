package marketplace

import (
	"context"

	"ens-market-context/internal/domain"
)

// transferLookupTypes is the filter used when resolving a settlement proxy:
// the full movement log for the token around one transaction.
var transferLookupTypes = []domain.ActivityType{
	domain.ActivityTransfer,
	domain.ActivitySale,
	domain.ActivityMint,
}

// maxTransferPages bounds the walk when hunting for one transaction. The
// target transaction is recent in practice, so a short walk suffices.
const maxTransferPages = 3

// TxTransfers fetches the token's activity log and returns the entries that
// share the given transaction hash. The second return value is true when the
// walk stopped before exhausting available data, so an empty result may mean
// "not visible" rather than "does not exist".
func (c *Client) TxTransfers(ctx context.Context, contract, tokenID, txHash string) ([]domain.Activity, bool, error) {
	scope := Scope{Contract: contract, TokenID: tokenID}
	if err := scope.Validate(); err != nil {
		return nil, false, err
	}

	var matched []domain.Activity
	cursor := ""

	for i := 0; i < maxTransferPages; i++ {
		page, err := c.FetchPage(ctx, PageRequest{
			Scope:        scope,
			Types:        transferLookupTypes,
			Continuation: cursor,
			Limit:        DefaultPageSize,
		})
		if err != nil {
			return nil, false, err
		}
		if page.Incomplete {
			return matched, true, nil
		}

		for _, a := range page.Activities {
			if a.SameTx(txHash) {
				matched = append(matched, a)
			}
		}

		// Pages arrive newest-first; once we matched something and the page
		// moved past the transaction, the chain is complete.
		if len(matched) > 0 && !pageContainsTx(page.Activities, txHash) {
			return matched, false, nil
		}
		if page.Continuation == "" {
			return matched, false, nil
		}
		cursor = page.Continuation
	}

	return matched, true, nil
}

func pageContainsTx(items []domain.Activity, txHash string) bool {
	for _, a := range items {
		if a.SameTx(txHash) {
			return true
		}
	}
	return false
}
