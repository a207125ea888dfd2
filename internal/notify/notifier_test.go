package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	params []*bot.SendMessageParams
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{Text: params.Text}, nil
}

func TestTelegramNotifierSendsToChat(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{sender: sender, chatID: 42}

	require.NoError(t, n.Notify(context.Background(), "hello"))
	require.Len(t, sender.params, 1)
	assert.Equal(t, int64(42), sender.params[0].ChatID)
	assert.Equal(t, "hello", sender.params[0].Text)
}

func TestTelegramNotifierWrapsError(t *testing.T) {
	boom := errors.New("boom")
	n := &TelegramNotifier{sender: &fakeSender{err: boom}, chatID: 1}

	err := n.Notify(context.Background(), "hello")
	assert.ErrorIs(t, err, boom)
}

func TestNopNotifier(t *testing.T) {
	var n Notifier = NopNotifier{}
	assert.NoError(t, n.Notify(context.Background(), "ignored"))
}

func TestTelegramNotifierEscapesHTML(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{sender: sender, chatID: 7}

	require.NoError(t, n.Notify(context.Background(), `Purpose: grades <90 & "retake"`))
	require.Len(t, sender.params, 1)
	assert.Equal(t, "Purpose: grades &lt;90 &amp; &#34;retake&#34;", sender.params[0].Text)
	assert.Equal(t, models.ParseModeHTML, sender.params[0].ParseMode)
}
