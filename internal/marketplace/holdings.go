package marketplace

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"ens-market-context/internal/domain"
)

// holdingsPageLimit is the provider maximum for one holdings page.
const holdingsPageLimit = 200

type holdingsJSON struct {
	Tokens       []heldTokenJSON `json:"tokens"`
	Continuation string          `json:"continuation"`
}

type heldTokenJSON struct {
	Token tokenJSON `json:"token"`
}

// Holdings reports the names a wallet currently holds. A wallet holding
// more than one page of names gets a truncated, Incomplete snapshot; the
// count of names already fetched is still right for display.
func (c *Client) Holdings(ctx context.Context, wallet string) (domain.HoldingsSnapshot, error) {
	q := url.Values{}
	q.Set("user", wallet)
	q.Set("limit", strconv.Itoa(holdingsPageLimit))

	body, err := c.doRequest(ctx, "/users/tokens", q)
	if err != nil {
		return domain.HoldingsSnapshot{}, err
	}

	var page holdingsJSON
	if err := json.Unmarshal(body, &page); err != nil {
		return domain.HoldingsSnapshot{}, err
	}

	snapshot := domain.HoldingsSnapshot{
		Count:      len(page.Tokens),
		Incomplete: page.Continuation != "",
	}
	for _, t := range page.Tokens {
		if t.Token.Name != "" {
			snapshot.Names = append(snapshot.Names, t.Token.Name)
		}
	}
	if snapshot.Incomplete {
		c.logger.Debug("holdings truncated at one page",
			zap.String("wallet", wallet),
			zap.Int("fetched", snapshot.Count))
	}
	return snapshot, nil
}
