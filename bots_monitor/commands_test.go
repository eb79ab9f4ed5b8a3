package bots_monitor

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"polymarket-alert/internal/clients_api/polygonscan"
	"polymarket-alert/internal/infra/fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerFixture(t *testing.T) (*CommandHandler, *fakeActivity, *fakeSender, *fs.SubscriptionStore) {
	t.Helper()
	dir := t.TempDir()
	wm := fs.NewWatermarkStore(filepath.Join(dir, "seen_tx.json"))
	subs := fs.NewSubscriptionStore(filepath.Join(dir, "subscriptions.json"), wm)
	activity := &fakeActivity{txs: map[string][]polygonscan.Transaction{}, balances: map[string]float64{}}
	sender := &fakeSender{failFor: map[string]bool{}}
	return NewCommandHandler(subs, activity, sender), activity, sender, subs
}

func lastReply(t *testing.T, sender *fakeSender) string {
	t.Helper()
	require.NotEmpty(t, sender.sent)
	return sender.sent[len(sender.sent)-1].text
}

func TestHelpCommand(t *testing.T) {
	h, _, sender, _ := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "/help")

	assert.Equal(t, HelpText, lastReply(t, sender))
}

func TestFollowCommand(t *testing.T) {
	h, _, sender, subs := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "/follow 0xDEF")
	assert.Contains(t, lastReply(t, sender), "Now following `0xdef`")

	// Case variant is a duplicate of the normalized entry.
	h.HandleText(context.Background(), "42", "/follow 0xdef")
	assert.Contains(t, lastReply(t, sender), "already in your list")

	assert.Equal(t, []string{"0xdef"}, subs.ListFor("42"))
}

func TestUnfollowCommand(t *testing.T) {
	h, _, sender, subs := newHandlerFixture(t)

	subs.Add("42", "0xdef")

	h.HandleText(context.Background(), "42", "/unfollow 0xDEF")
	assert.Contains(t, lastReply(t, sender), "Unfollowed `0xdef`")

	h.HandleText(context.Background(), "42", "/unfollow 0xdef")
	assert.Contains(t, lastReply(t, sender), "not found in your subscriptions")
}

func TestListCommand(t *testing.T) {
	h, _, sender, subs := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "/list")
	assert.Equal(t, "You are not following any addresses.", lastReply(t, sender))

	subs.Add("42", "0xaaa")
	subs.Add("42", "0xbbb")

	h.HandleText(context.Background(), "42", "/list")
	reply := lastReply(t, sender)
	assert.Contains(t, reply, "*Your subscriptions:*")
	assert.Contains(t, reply, "- `0xaaa`")
	assert.Contains(t, reply, "- `0xbbb`")
}

func TestInfoCommand(t *testing.T) {
	h, activity, sender, subs := newHandlerFixture(t)

	activity.balances["0xabc"] = 1.5
	activity.txs["0xabc"] = []polygonscan.Transaction{
		tx("tx1", 100), tx("tx2", 200), tx("tx3", 300),
		tx("tx4", 400), tx("tx5", 500), tx("tx6", 600),
	}

	h.HandleText(context.Background(), "42", "/info 0xABC")

	reply := lastReply(t, sender)
	assert.Contains(t, reply, "*Wallet:* `0xabc`")
	assert.Contains(t, reply, "*Balance (MATIC):* 1.5")
	// Last five, newest first.
	assert.Contains(t, reply, "tx/tx6")
	assert.NotContains(t, reply, "tx/tx1")
	assert.Less(t, strings.Index(reply, "tx/tx6"), strings.Index(reply, "tx/tx2"))

	// Lookup is read-only.
	assert.Empty(t, subs.ListFor("42"))
}

func TestInfoDegradesWhenLookupsFail(t *testing.T) {
	h, activity, sender, _ := newHandlerFixture(t)

	activity.err = assert.AnError
	h.HandleText(context.Background(), "42", "/info 0xabc")

	reply := lastReply(t, sender)
	assert.Contains(t, reply, "*Wallet:* `0xabc`")
	assert.NotContains(t, reply, "*Balance")
	assert.Contains(t, reply, "No recent transactions found")
}

func TestBareAddressActsAsInfoWithFollowPrompt(t *testing.T) {
	h, _, sender, _ := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "0xAbCdEf1234")

	require.Len(t, sender.sent, 2)
	assert.Contains(t, sender.sent[0].text, "*Wallet:* `0xabcdef1234`")
	assert.Contains(t, sender.sent[1].text, "/follow 0xabcdef1234")
}

func TestShortHexTextIsNotAnAddress(t *testing.T) {
	h, _, sender, _ := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "0xabc")

	assert.Equal(t, NotAnAddressText, lastReply(t, sender))
}

func TestUnknownCommand(t *testing.T) {
	h, _, sender, _ := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "/frobnicate")
	assert.Equal(t, UnknownCommandText, lastReply(t, sender))
}

func TestMissingArgumentFallsThroughToUnknown(t *testing.T) {
	h, _, sender, subs := newHandlerFixture(t)

	for _, cmd := range []string{"/follow", "/unfollow", "/info"} {
		h.HandleText(context.Background(), "42", cmd)
		assert.Equal(t, UnknownCommandText, lastReply(t, sender), cmd)
	}
	assert.Empty(t, subs.ListFor("42"))
}

func TestCommandsAreCaseInsensitive(t *testing.T) {
	h, _, sender, subs := newHandlerFixture(t)

	h.HandleText(context.Background(), "42", "/FOLLOW 0xdef")
	assert.Contains(t, lastReply(t, sender), "Now following")
	assert.Equal(t, []string{"0xdef"}, subs.ListFor("42"))
}
