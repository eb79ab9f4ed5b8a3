package bots_monitor

// Telegram message texts. Everything is sent as Markdown with web
// previews disabled; addresses and hashes go in backticks so they can be
// copied with one tap.

import (
	"fmt"
	"strings"

	"polymarket-alert/internal/clients_api/polygonscan"
	"polymarket-alert/internal/clients_api/polymarket"
	"polymarket-alert/internal/infra/fs"
)

const txLinkBase = "https://polygonscan.com/tx/"

// HelpText is the /help reply.
const HelpText = "Usage:\n" +
	"/follow <address> - follow an address and receive alerts\n" +
	"/unfollow <address> - stop following\n" +
	"/list - list addresses you follow\n" +
	"/info <address> - get wallet details now\n" +
	"Or simply paste a Polygon wallet address to get details and follow prompt."

// UnknownCommandText is the fallback for unrecognized or malformed
// commands.
const UnknownCommandText = "Unknown command. Send /help for usage."

// NotAnAddressText is the reply to plain text that is not an address.
const NotAnAddressText = "Send a Polygon wallet address (0x...) or /help for commands."

func formatTime(tx polygonscan.Transaction) string {
	return tx.Time().Format("2006-01-02 15:04:05 UTC")
}

func formatMATIC(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", v), "0"), ".")
}

// FormatTxAlert renders a plain transaction notification, used when no
// Polymarket trade matches the transaction.
func FormatTxAlert(address string, tx polygonscan.Transaction) string {
	input := tx.Input
	if len(input) > 200 {
		input = input[:200]
	}

	return fmt.Sprintf("*New transaction by* `%s`\n"+
		"*Time:* %s\n"+
		"*From:* `%s`\n"+
		"*To:* `%s`\n"+
		"*Value (MATIC):* %s\n"+
		"*Tx:* %s\n\n"+
		"_Raw input:_ `%s`",
		address, formatTime(tx), tx.From, tx.To, formatMATIC(tx.ValueMATIC()), txLinkBase+tx.Hash, input)
}

// FormatTradeAlert renders an enriched notification for a transaction
// matched to a Polymarket trade.
func FormatTradeAlert(address string, tx polygonscan.Transaction, trade polymarket.Trade) string {
	return fmt.Sprintf("*Polymarket Trade by* `%s`\n"+
		"*Market:* %s\n"+
		"*Outcome:* %s\n"+
		"*Side:* %s | *Price:* %s | *Size:* %s\n"+
		"*Time:* %s\n"+
		"*Tx:* %s",
		address, trade.MarketTitle(), trade.Outcome,
		trade.Side, trade.Price.String(), trade.Size.String(),
		formatTime(tx), txLinkBase+tx.Hash)
}

// FormatWalletInfo renders the /info reply: balance plus the last five
// transactions, newest first. balance is nil when the lookup failed.
func FormatWalletInfo(address string, balance *float64, txs []polygonscan.Transaction) string {
	addr := fs.NormalizeAddress(address)

	lines := []string{fmt.Sprintf("*Wallet:* `%s`", addr)}
	if balance != nil {
		lines = append(lines, fmt.Sprintf("*Balance (MATIC):* %s", formatMATIC(*balance)))
	}
	lines = append(lines, "*Recent transactions:*")

	if len(txs) == 0 {
		lines = append(lines, "_No recent transactions found or API returned empty._")
	} else {
		start := len(txs) - 5
		if start < 0 {
			start = 0
		}
		for i := len(txs) - 1; i >= start; i-- {
			tx := txs[i]
			lines = append(lines, fmt.Sprintf("- %s | from `%s` → `%s` | %s MATIC | [tx](%s)",
				formatTime(tx), tx.From, tx.To, formatMATIC(tx.ValueMATIC()), txLinkBase+tx.Hash))
		}
	}

	lines = append(lines, "\n_Send /follow <address> to subscribe to alerts for this address._")
	return strings.Join(lines, "\n")
}
