package bots_monitor

import (
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"polymarket-alert/internal/clients_api/polygonscan"
	"polymarket-alert/internal/clients_api/polymarket"
	"polymarket-alert/internal/infra/fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActivity struct {
	txs      map[string][]polygonscan.Transaction
	balances map[string]float64
	err      error
}

func (f *fakeActivity) GetTransactions(ctx context.Context, address string) ([]polygonscan.Transaction, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.txs[address], nil
}

func (f *fakeActivity) GetBalance(ctx context.Context, address string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.balances[address], nil
}

type fakeTrades struct {
	byHash map[string]polymarket.Trade
	err    error
}

func (f *fakeTrades) MatchTrade(ctx context.Context, txHash, wallet string) (*polymarket.Trade, error) {
	if f.err != nil {
		return nil, f.err
	}
	if trade, ok := f.byHash[strings.ToLower(txHash)]; ok {
		return &trade, nil
	}
	return nil, nil
}

type sentMessage struct {
	chatID string
	text   string
}

type fakeSender struct {
	sent    []sentMessage
	failFor map[string]bool
}

func (f *fakeSender) Send(chatID, text string) error {
	if f.failFor[chatID] {
		return errors.New("transport down")
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func tx(hash string, ts int64) polygonscan.Transaction {
	return polygonscan.Transaction{
		Hash:      hash,
		TimeStamp: strconv.FormatInt(ts, 10),
		From:      "0xfrom",
		To:        "0xto",
		Value:     "500000000000000000", // 0.5 MATIC
		Input:     "0xdeadbeef",
	}
}

func newMonitorFixture(t *testing.T) (*AlertsMonitor, *fakeActivity, *fakeTrades, *fakeSender, *fs.SubscriptionStore, *fs.WatermarkStore) {
	t.Helper()
	dir := t.TempDir()
	wm := fs.NewWatermarkStore(filepath.Join(dir, "seen_tx.json"))
	subs := fs.NewSubscriptionStore(filepath.Join(dir, "subscriptions.json"), wm)
	activity := &fakeActivity{txs: map[string][]polygonscan.Transaction{}, balances: map[string]float64{}}
	trades := &fakeTrades{byHash: map[string]polymarket.Trade{}}
	sender := &fakeSender{failFor: map[string]bool{}}
	m := NewAlertsMonitor(activity, trades, sender, subs, wm, 0)
	return m, activity, trades, sender, subs, wm
}

func TestFirstCycleSeedsWatermarkSilently(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xABC")
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("tx2", 200), tx("tx3", 300)}

	m.runCycle(context.Background())

	hash, ok := wm.Get("0xabc")
	require.True(t, ok)
	assert.Equal(t, "tx3", hash)
	assert.Empty(t, sender.sent, "silent sync must not notify")
}

func TestEmptyActivityLeavesWatermarkUninitialized(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	activity.txs["0xabc"] = nil

	m.runCycle(context.Background())

	_, ok := wm.Get("0xabc")
	assert.False(t, ok)
	assert.Empty(t, sender.sent)
}

func TestNewTransactionsNotifiedOldestFirst(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("tx2", 200), tx("tx3", 300)}

	m.runCycle(context.Background()) // silent sync to tx3
	require.Empty(t, sender.sent)

	activity.txs["0xabc"] = []polygonscan.Transaction{
		tx("tx1", 100), tx("tx2", 200), tx("tx3", 300), tx("tx4", 400), tx("tx5", 500),
	}

	m.runCycle(context.Background())

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].text, "tx/tx4")
	assert.Contains(t, sender.sent[1].text, "tx/tx5")

	hash, _ := wm.Get("0xabc")
	assert.Equal(t, "tx5", hash)
}

func TestLostWatermarkFallsBackToLastTwo(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	wm.Set("0xabc", "gone")
	activity.txs["0xabc"] = []polygonscan.Transaction{
		tx("tx1", 100), tx("tx2", 200), tx("tx3", 300), tx("tx4", 400),
	}

	m.runCycle(context.Background())

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].text, "tx/tx3")
	assert.Contains(t, sender.sent[1].text, "tx/tx4")

	hash, _ := wm.Get("0xabc")
	assert.Equal(t, "tx4", hash)
}

func TestFanOutToAllSubscribers(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	subs.Add("7", "0xabc")
	subs.Add("7", "0xother")
	wm.Set("0xabc", "tx1")
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("tx2", 200)}

	m.runCycle(context.Background())

	require.Len(t, sender.sent, 2)
	chats := []string{sender.sent[0].chatID, sender.sent[1].chatID}
	assert.ElementsMatch(t, []string{"42", "7"}, chats)
}

func TestDeliveryFailureDoesNotBlockOthersOrWatermark(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	subs.Add("7", "0xabc")
	sender.failFor["42"] = true
	wm.Set("0xabc", "tx1")
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("tx2", 200)}

	m.runCycle(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "7", sender.sent[0].chatID)

	hash, _ := wm.Get("0xabc")
	assert.Equal(t, "tx2", hash)
}

func TestFetchErrorSkipsAddressForCycle(t *testing.T) {
	m, activity, _, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	wm.Set("0xabc", "tx1")
	activity.err = errors.New("polygonscan down")

	m.runCycle(context.Background())

	assert.Empty(t, sender.sent)
	hash, _ := wm.Get("0xabc")
	assert.Equal(t, "tx1", hash, "watermark must not move on fetch failure")

	// Next cycle recovers.
	activity.err = nil
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("tx2", 200)}
	m.runCycle(context.Background())
	assert.Len(t, sender.sent, 1)
}

func TestTradeEnrichment(t *testing.T) {
	m, activity, trades, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	wm.Set("0xabc", "tx1")
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("TX2", 200)}
	trades.byHash["tx2"] = polymarket.Trade{
		Side:    "BUY",
		Price:   "0.62",
		Size:    "150",
		Title:   "Will it rain tomorrow?",
		Outcome: "Yes",
		TxHash:  "TX2",
	}

	m.runCycle(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "Polymarket Trade by")
	assert.Contains(t, sender.sent[0].text, "Will it rain tomorrow?")
	assert.Contains(t, sender.sent[0].text, "BUY")
}

func TestEnrichmentFallbackToPlainAlert(t *testing.T) {
	m, activity, trades, sender, subs, wm := newMonitorFixture(t)

	subs.Add("42", "0xabc")
	wm.Set("0xabc", "tx1")
	activity.txs["0xabc"] = []polygonscan.Transaction{tx("tx1", 100), tx("tx2", 200)}
	trades.err = errors.New("data api down")

	m.runCycle(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].text, "New transaction by")
	assert.NotContains(t, sender.sent[0].text, "Polymarket Trade by")
}

func TestFindNewTransactions(t *testing.T) {
	txs := []polygonscan.Transaction{tx("a", 1), tx("b", 2), tx("c", 3), tx("d", 4)}

	cases := []struct {
		name     string
		lastSeen string
		want     []string
	}{
		{"watermark at tail", "d", nil},
		{"watermark in middle", "b", []string{"c", "d"}},
		{"watermark at head", "a", []string{"b", "c", "d"}},
		{"watermark out of window", "z", []string{"c", "d"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := findNewTransactions(txs, tc.lastSeen)
			var hashes []string
			for _, x := range got {
				hashes = append(hashes, x.Hash)
			}
			assert.Equal(t, tc.want, hashes)
		})
	}

	t.Run("short window out of watermark", func(t *testing.T) {
		short := []polygonscan.Transaction{tx("a", 1)}
		got := findNewTransactions(short, "z")
		require.Len(t, got, 1)
		assert.Equal(t, "a", got[0].Hash)
	})
}
