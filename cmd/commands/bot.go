package commands

// bot subcommand: loads configuration and state, builds the API clients
// and runs the two loops (alerts monitor + command handler) until a
// shutdown signal arrives.

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"polymarket-alert/bots_monitor"
	"polymarket-alert/internal/clients_api/polygonscan"
	"polymarket-alert/internal/clients_api/polymarket"
	"polymarket-alert/internal/infra/config"
	"polymarket-alert/internal/infra/fs"
	logging "polymarket-alert/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the alert bot (wallet monitor + Telegram commands)",
	Long: `Run the complete bot: the wallet activity monitor polling Polygonscan
and the Telegram command handler for subscription management.`,
	RunE: runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.LogError("Failed to load config", zap.Error(err))
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dataDir := cfg.App.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	watermarks := fs.NewWatermarkStore(filepath.Join(dataDir, "seen_tx.json"))
	subs := fs.NewSubscriptionStore(filepath.Join(dataDir, "subscriptions.json"), watermarks)
	logging.LogInfo("State loaded",
		zap.String("dataDir", dataDir),
		zap.Int("watchedAddresses", len(subs.AllWatchedAddresses())))

	scanClient := polygonscan.NewClient(cfg.Polygonscan, cfg.App.MaxResponseSize)
	polyClient := polymarket.NewClient(cfg.Polymarket, cfg.App.MaxResponseSize)

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logging.LogError("Failed to create Telegram bot", zap.Error(err))
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logging.LogInfo("Authorized on Telegram", zap.String("username", bot.Self.UserName))

	sender := bots_monitor.NewTelegramSender(bot)
	monitor := bots_monitor.NewAlertsMonitor(scanClient, polyClient, sender, subs, watermarks,
		cfg.App.PollIntervalDuration())
	handler := bots_monitor.NewCommandHandler(subs, scanClient, sender)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		monitor.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		bots_monitor.RunCommandHandler(ctx, bot, cfg.Telegram.PollTimeout, handler)
	}()

	logging.LogSuccess("Bot is running", zap.Int("pollIntervalSec", cfg.App.PollInterval))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, stopping...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Shutdown complete")
	case <-time.After(35 * time.Second):
		// Long-poll can hold the command handler up to the poll timeout.
		logging.LogWarn("Shutdown timed out waiting for loops")
	}

	return nil
}
