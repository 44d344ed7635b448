package chathub_test

import (
	"context"
	"testing"
	"time"

	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

func startSession(t *testing.T, ctx context.Context, broker realtime.Broker, clientID string) (*chathub.Session, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	s := chathub.NewSession(clientID, realtime.NewChannel(broker, "public:chat_room"), nil, n, nil)
	require.NoError(t, s.Start(ctx))
	return s, n
}

func snapshot(t *testing.T, s *chathub.Session) models.SessionState {
	t.Helper()
	st, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	return st
}

func conversationWith(st models.SessionState, partner string) *models.Conversation {
	for i := range st.Conversations {
		if st.Conversations[i].PartnerUsername == partner {
			return &st.Conversations[i]
		}
	}
	return nil
}

func TestScenario_TwoUsersChat(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice, aliceOut := startSession(t, ctx, broker, "browser-a")
	bob, bobOut := startSession(t, ctx, broker, "browser-b")

	assert.Eventually(t, func() bool { return aliceOut.hasToast("Connected to chat server") }, waitFor, 10*time.Millisecond)

	require.NoError(t, alice.Join(ctx, "alice"))
	require.NoError(t, bob.Join(ctx, "bob"))

	// each roster lists self first, then the other user
	assert.Eventually(t, func() bool {
		a, b := snapshot(t, alice), snapshot(t, bob)
		return len(a.Users) == 2 && a.Users[0].Username == "alice" && a.Users[1].Username == "bob" &&
			len(b.Users) == 2 && b.Users[0].Username == "bob" && b.Users[1].Username == "alice"
	}, waitFor, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		for _, m := range snapshot(t, alice).Messages {
			if m.Text == "bob joined the chat" {
				return true
			}
		}
		return false
	}, waitFor, 10*time.Millisecond)

	require.NoError(t, alice.SelectPartner(ctx, "bob"))
	sent, err := alice.SendMessage(ctx, "hi bob")
	require.NoError(t, err)
	require.True(t, sent)

	assert.Eventually(t, func() bool {
		conv := conversationWith(snapshot(t, bob), "alice")
		return conv != nil && len(conv.Messages) == 1 && conv.Unread == 1
	}, waitFor, 10*time.Millisecond)
	assert.True(t, bobOut.hasToast("New message from alice"))

	// alice's own echo arrives too but is filed once
	time.Sleep(100 * time.Millisecond)
	conv := conversationWith(snapshot(t, alice), "bob")
	require.NotNil(t, conv)
	assert.Len(t, conv.Messages, 1)

	require.NoError(t, bob.SwitchConversation(ctx, "alice"))
	bobState := snapshot(t, bob)
	require.Len(t, bobState.Messages, 2)
	assert.Equal(t, "hi bob", bobState.Messages[1].Text)
	assert.Zero(t, conversationWith(bobState, "alice").Unread)

	sent, err = bob.SendMessage(ctx, "hey alice")
	require.NoError(t, err)
	require.True(t, sent)
	assert.Eventually(t, func() bool {
		st := snapshot(t, alice)
		last := st.Messages[len(st.Messages)-1]
		return last.Text == "hey alice" && last.SenderUsername == "bob"
	}, waitFor, 10*time.Millisecond)

	require.NoError(t, bob.Logout(ctx))
	assert.Eventually(t, func() bool {
		st := snapshot(t, alice)
		return len(st.Users) == 1 && st.Messages[len(st.Messages)-1].Text == "bob left the chat"
	}, waitFor, 10*time.Millisecond)
}

func TestScenario_DuplicateUsernameRejected(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, _ := startSession(t, ctx, broker, "browser-a")
	second, secondOut := startSession(t, ctx, broker, "browser-b")

	require.NoError(t, first.Join(ctx, "alice"))
	assert.Eventually(t, func() bool { return len(snapshot(t, second).Users) == 1 }, waitFor, 10*time.Millisecond)

	err := second.Join(ctx, "ALICE")
	assert.ErrorIs(t, err, chathub.ErrUsernameTaken)
	assert.True(t, secondOut.hasToast("Username taken"))
}

func TestScenario_CloseRemovesPresence(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, _ := startSession(t, ctx, broker, "browser-w")
	leaverCtx, leaverCancel := context.WithCancel(ctx)
	leaver, _ := startSession(t, leaverCtx, broker, "browser-l")

	require.NoError(t, leaver.Join(leaverCtx, "leaver"))
	assert.Eventually(t, func() bool { return len(snapshot(t, watcher).Users) == 1 }, waitFor, 10*time.Millisecond)

	leaverCancel()
	leaver.Close(context.Background())

	assert.Eventually(t, func() bool { return len(snapshot(t, watcher).Users) == 0 }, waitFor, 10*time.Millisecond)
}
