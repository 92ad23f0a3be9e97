package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"campus-canteen-api/notify"
	"campus-canteen-api/notify/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestMailer_RetriesThenSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	msg := notify.Message{To: "a@mits.ac.in", Subject: "OTP", Body: "123456"}

	gomock.InOrder(
		sender.EXPECT().Send(gomock.Any(), msg).Return(errors.New("421 try later")),
		sender.EXPECT().Send(gomock.Any(), msg).Return(nil),
	)

	m := &notify.Mailer{Sender: sender, Attempts: 3, Backoff: time.Millisecond, Logger: quiet}
	require.NoError(t, m.Send(context.Background(), msg))
}

func TestMailer_GivesUpAfterAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("connection refused")).Times(3)

	m := &notify.Mailer{Sender: sender, Attempts: 3, Backoff: time.Millisecond, Logger: quiet}
	err := m.Send(context.Background(), notify.Message{To: "a@mits.ac.in"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := mocks.NewMockSender(ctrl)
	done := make(chan struct{})
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, notify.Message) error {
		close(done)
		return nil
	})

	d := notify.NewDispatcher(&notify.Mailer{Sender: sender, Attempts: 1, Logger: quiet}, quiet)
	require.True(t, d.Enqueue(notify.Message{To: "a@mits.ac.in", Subject: "Order placed"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not delivered")
	}
	d.Close()
}
