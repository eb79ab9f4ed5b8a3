package polymarket

// Trade lookup and transaction matching. The data API has been seen
// returning the transaction hash and market title under different keys
// depending on endpoint version, so Trade keeps the variants and exposes
// accessors that pick the first populated one.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Trade is a single Polymarket trade record.
type Trade struct {
	Side    string      `json:"side"`
	Price   json.Number `json:"price"`
	Size    json.Number `json:"size"`
	Outcome string      `json:"outcome"`

	Title  string `json:"title"`
	Name   string `json:"name"`
	Market string `json:"market"`

	TxHash          string `json:"txHash"`
	TransactionHash string `json:"transactionHash"`
	TxHashSnake     string `json:"transaction_hash"`
}

// Hash returns the trade's transaction hash under whichever key the API
// used, or "" when absent.
func (t Trade) Hash() string {
	switch {
	case t.TxHash != "":
		return t.TxHash
	case t.TransactionHash != "":
		return t.TransactionHash
	default:
		return t.TxHashSnake
	}
}

// MarketTitle returns the market display name under whichever key the API
// used.
func (t Trade) MarketTitle() string {
	switch {
	case t.Title != "":
		return t.Title
	case t.Name != "":
		return t.Name
	default:
		return t.Market
	}
}

// GetRecentTrades returns the most recent trades for a proxy wallet.
func (c *Client) GetRecentTrades(ctx context.Context, wallet string, limit int) ([]Trade, error) {
	params := url.Values{}
	params.Set("proxyWallet", wallet)
	params.Set("limit", strconv.Itoa(limit))

	respBody, err := c.MakeRequest(ctx, "/trades?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to get recent trades: %w", err)
	}

	if len(respBody) == 0 {
		return []Trade{}, nil
	}

	var trades []Trade
	if err := json.Unmarshal(respBody, &trades); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trades response: %w", err)
	}
	return trades, nil
}

// MatchTrade looks for a recent trade of wallet whose transaction hash
// equals txHash (case-insensitive). Returns nil when no trade matches.
func (c *Client) MatchTrade(ctx context.Context, txHash, wallet string) (*Trade, error) {
	trades, err := c.GetRecentTrades(ctx, wallet, 10)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(txHash)
	for i := range trades {
		h := trades[i].Hash()
		if h != "" && strings.ToLower(h) == want {
			return &trades[i], nil
		}
	}
	return nil, nil
}
