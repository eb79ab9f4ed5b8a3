package bots_monitor

// Telegram command handler: long-polls getUpdates and mutates the
// subscription store. Runs independently of the alerts monitor; the two
// only meet at the mutex-guarded stores.

import (
	"context"
	"strconv"
	"strings"

	"polymarket-alert/internal/clients_api/polygonscan"
	"polymarket-alert/internal/infra/fs"
	"polymarket-alert/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// minAddressLength is the shortest text starting with 0x treated as a
// pasted wallet address.
const minAddressLength = 10

// CommandHandler processes inbound chat messages.
type CommandHandler struct {
	subs     *fs.SubscriptionStore
	activity ActivitySource
	sender   MessageSender
}

func NewCommandHandler(subs *fs.SubscriptionStore, activity ActivitySource, sender MessageSender) *CommandHandler {
	return &CommandHandler{
		subs:     subs,
		activity: activity,
		sender:   sender,
	}
}

// RunCommandHandler consumes updates until ctx is cancelled. The offset
// cursor inside GetUpdatesChan guarantees each update is handled at most
// once per process lifetime; after a restart Telegram may redeliver, which
// is safe because every handler is idempotent.
func RunCommandHandler(ctx context.Context, bot *tgbotapi.BotAPI, pollTimeout int, handler *CommandHandler) {
	if bot == nil {
		log.LogWarn("Bot is nil, command handler not started")
		return
	}

	log.LogInfo("Starting command handler", zap.Int("pollTimeout", pollTimeout))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			log.LogInfo("Command handler stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
			handler.HandleText(ctx, chatID, update.Message.Text)
		}
	}
}

// HandleText dispatches one inbound message and sends the replies.
func (h *CommandHandler) HandleText(ctx context.Context, chatID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		h.handleCommand(ctx, chatID, text)
		return
	}

	if strings.HasPrefix(text, "0x") && len(text) >= minAddressLength {
		h.reply(chatID, h.walletInfo(ctx, text))
		h.reply(chatID, "To receive ongoing alerts for this address, reply with `/follow "+fs.NormalizeAddress(text)+"`")
		return
	}

	h.reply(chatID, NotAnAddressText)
}

func (h *CommandHandler) handleCommand(ctx context.Context, chatID, text string) {
	parts := strings.SplitN(text, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}

	log.LogDebug("Received command",
		zap.String("command", cmd),
		zap.String("arg", arg),
		zap.String("chatID", chatID))

	switch {
	case cmd == "/help":
		h.reply(chatID, HelpText)

	case cmd == "/follow" && arg != "":
		addr := fs.NormalizeAddress(arg)
		if h.subs.Add(chatID, addr) {
			h.reply(chatID, "✅ Now following `"+addr+"` for alerts.")
			log.LogInfo("Subscription added", zap.String("chatID", chatID), zap.String("address", addr))
		} else {
			h.reply(chatID, "ℹ️ `"+addr+"` was already in your list.")
		}

	case cmd == "/unfollow" && arg != "":
		addr := fs.NormalizeAddress(arg)
		if h.subs.Remove(chatID, addr) {
			h.reply(chatID, "🗑️ Unfollowed `"+addr+"`")
			log.LogInfo("Subscription removed", zap.String("chatID", chatID), zap.String("address", addr))
		} else {
			h.reply(chatID, "⚠️ `"+addr+"` not found in your subscriptions.")
		}

	case cmd == "/list":
		list := h.subs.ListFor(chatID)
		if len(list) == 0 {
			h.reply(chatID, "You are not following any addresses.")
		} else {
			var b strings.Builder
			b.WriteString("*Your subscriptions:*")
			for _, a := range list {
				b.WriteString("\n- `" + a + "`")
			}
			h.reply(chatID, b.String())
		}

	case cmd == "/info" && arg != "":
		h.reply(chatID, h.walletInfo(ctx, arg))

	default:
		// A recognized command missing its argument ends up here too.
		h.reply(chatID, UnknownCommandText)
	}
}

// walletInfo fetches balance and recent transactions for address. Both
// lookups are best-effort; failures degrade to a partial reply.
func (h *CommandHandler) walletInfo(ctx context.Context, address string) string {
	addr := fs.NormalizeAddress(address)

	var balance *float64
	if bal, err := h.activity.GetBalance(ctx, addr); err != nil {
		log.LogWarn("Balance lookup failed", zap.String("address", addr), zap.Error(err))
	} else {
		balance = &bal
	}

	var txs []polygonscan.Transaction
	if fetched, err := h.activity.GetTransactions(ctx, addr); err != nil {
		log.LogWarn("Transaction lookup failed", zap.String("address", addr), zap.Error(err))
	} else {
		txs = fetched
	}

	return FormatWalletInfo(addr, balance, txs)
}

func (h *CommandHandler) reply(chatID, text string) {
	if err := h.sender.Send(chatID, text); err != nil {
		log.LogError("Failed to send reply", zap.String("chatID", chatID), zap.Error(err))
	}
}
