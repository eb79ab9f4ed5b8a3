package bots_monitor

// Wallet activity monitor: polls Polygonscan for every watched address,
// diffs against the per-address watermark, enriches new transactions with
// Polymarket trade data and fans alerts out to subscribers.

import (
	"context"
	"time"

	"polymarket-alert/internal/clients_api/polygonscan"
	"polymarket-alert/internal/clients_api/polymarket"
	"polymarket-alert/internal/infra/fs"
	"polymarket-alert/internal/infra/log"

	"go.uber.org/zap"
)

// ActivitySource provides chain activity for an address.
type ActivitySource interface {
	GetTransactions(ctx context.Context, address string) ([]polygonscan.Transaction, error)
	GetBalance(ctx context.Context, address string) (float64, error)
}

// TradeSource matches a transaction to a Polymarket trade, nil when none.
type TradeSource interface {
	MatchTrade(ctx context.Context, txHash, wallet string) (*polymarket.Trade, error)
}

// MessageSender delivers a text message to a chat.
type MessageSender interface {
	Send(chatID, text string) error
}

// AlertsMonitor runs the notification loop.
type AlertsMonitor struct {
	activity ActivitySource
	trades   TradeSource
	sender   MessageSender
	subs     *fs.SubscriptionStore
	seen     *fs.WatermarkStore
	interval time.Duration
}

func NewAlertsMonitor(activity ActivitySource, trades TradeSource, sender MessageSender,
	subs *fs.SubscriptionStore, seen *fs.WatermarkStore, interval time.Duration) *AlertsMonitor {
	if interval <= 0 {
		interval = 20 * time.Second
	}
	return &AlertsMonitor{
		activity: activity,
		trades:   trades,
		sender:   sender,
		subs:     subs,
		seen:     seen,
		interval: interval,
	}
}

// Run executes poll cycles at the configured interval until ctx is
// cancelled. The first cycle runs immediately.
func (m *AlertsMonitor) Run(ctx context.Context) {
	log.LogInfo("Starting alerts monitor", zap.Duration("interval", m.interval))

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Alerts monitor stopped")
			return
		case <-ticker.C:
			m.runCycle(ctx)
		}
	}
}

// runCycle processes every watched address once. A failure on one address
// never aborts the rest of the cycle.
func (m *AlertsMonitor) runCycle(ctx context.Context) {
	addresses := m.subs.AllWatchedAddresses()
	for _, addr := range addresses {
		if ctx.Err() != nil {
			return
		}
		m.processAddress(ctx, addr)
	}
}

func (m *AlertsMonitor) processAddress(ctx context.Context, addr string) {
	txs, err := m.activity.GetTransactions(ctx, addr)
	if err != nil {
		log.LogError("Failed to fetch transactions, skipping address this cycle",
			zap.String("address", addr), zap.Error(err))
		return
	}
	if len(txs) == 0 {
		return
	}

	lastSeen, initialized := m.seen.Get(addr)
	if !initialized {
		// Silent sync: seed to the newest transaction so a freshly
		// followed address does not flood its subscribers with backlog.
		m.seen.Set(addr, txs[len(txs)-1].Hash)
		log.LogInfo("Initial sync for address",
			zap.String("address", addr),
			zap.String("lastTx", txs[len(txs)-1].Hash))
		return
	}

	newTxs := findNewTransactions(txs, lastSeen)
	for _, tx := range newTxs {
		text := m.buildAlert(ctx, addr, tx)

		for _, chatID := range m.subs.SubscribersOf(addr) {
			if err := m.sender.Send(chatID, text); err != nil {
				log.LogError("Failed to deliver alert",
					zap.String("chatID", chatID),
					zap.String("address", addr),
					zap.String("txHash", tx.Hash),
					zap.Error(err))
			}
		}

		log.LogSuccess("Alert sent",
			zap.String("address", addr),
			zap.String("txHash", tx.Hash))

		// Advance per transaction so a crash mid-cycle reprocesses at
		// most the in-flight transaction, never skips one.
		m.seen.Set(addr, tx.Hash)
	}
}

// findNewTransactions returns the entries strictly after lastSeen in
// fetch order. When lastSeen has slid out of the fetch window, only the
// last two entries are treated as new: a deliberate trade-off that bounds
// backlog flood at the risk of missing or repeating transactions.
func findNewTransactions(txs []polygonscan.Transaction, lastSeen string) []polygonscan.Transaction {
	found := false
	var fresh []polygonscan.Transaction
	for _, tx := range txs {
		if tx.Hash == lastSeen {
			found = true
			fresh = fresh[:0]
			continue
		}
		if found {
			fresh = append(fresh, tx)
		}
	}

	if !found {
		if len(txs) <= 2 {
			return txs
		}
		return txs[len(txs)-2:]
	}
	return fresh
}

// buildAlert composes the notification text, enriched with trade data
// when a matching Polymarket trade exists.
func (m *AlertsMonitor) buildAlert(ctx context.Context, addr string, tx polygonscan.Transaction) string {
	trade, err := m.trades.MatchTrade(ctx, tx.Hash, addr)
	if err != nil {
		log.LogWarn("Trade enrichment failed, sending plain alert",
			zap.String("address", addr),
			zap.String("txHash", tx.Hash),
			zap.Error(err))
		trade = nil
	}
	if trade != nil {
		return FormatTradeAlert(addr, tx, *trade)
	}
	return FormatTxAlert(addr, tx)
}
