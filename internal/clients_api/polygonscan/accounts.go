package polygonscan

// Account endpoints: transaction lists and balances. Polygonscan wraps
// every payload in a status/message/result envelope; status "0" with an
// empty result is how it reports "no transactions", so that case is not
// an error here.

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"time"
)

// weiPerMatic converts base-unit values to MATIC.
var weiPerMatic = new(big.Float).SetFloat64(1e18)

// Transaction is a single chain transaction as returned by the txlist
// action. All numeric fields arrive as decimal strings.
type Transaction struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`
	Input       string `json:"input"`
}

// Time parses the unix timestamp. Zero time on malformed input.
func (t Transaction) Time() time.Time {
	secs, err := strconv.ParseInt(t.TimeStamp, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// ValueMATIC converts the wei value string to MATIC.
func (t Transaction) ValueMATIC() float64 {
	return weiToMatic(t.Value)
}

func weiToMatic(wei string) float64 {
	v, ok := new(big.Float).SetString(wei)
	if !ok {
		return 0
	}
	out, _ := new(big.Float).Quo(v, weiPerMatic).Float64()
	return out
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// GetTransactions returns up to 100 transactions for address, oldest
// first. A "no transactions" response yields an empty slice and nil error.
func (c *Client) GetTransactions(ctx context.Context, address string) ([]Transaction, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "txlist")
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("page", "1")
	params.Set("offset", "100")
	params.Set("sort", "asc")

	respBody, err := c.MakeRequest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal txlist response: %w", err)
	}

	if resp.Status != "1" || len(resp.Result) == 0 {
		return []Transaction{}, nil
	}

	var txs []Transaction
	if err := json.Unmarshal(resp.Result, &txs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction list: %w", err)
	}
	return txs, nil
}

// GetBalance returns the current balance of address in MATIC.
func (c *Client) GetBalance(ctx context.Context, address string) (float64, error) {
	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "balance")
	params.Set("address", address)
	params.Set("tag", "latest")

	respBody, err := c.MakeRequest(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	var resp apiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal balance response: %w", err)
	}

	if resp.Status != "1" || len(resp.Result) == 0 {
		return 0, fmt.Errorf("balance lookup failed: %s", resp.Message)
	}

	var wei string
	if err := json.Unmarshal(resp.Result, &wei); err != nil {
		return 0, fmt.Errorf("failed to unmarshal balance value: %w", err)
	}
	return weiToMatic(wei), nil
}
