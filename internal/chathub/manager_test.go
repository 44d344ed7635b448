package chathub_test

import (
	"context"
	"testing"
	"time"

	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *chathub.ManagerService {
	broker := realtime.NewMemoryBroker()
	return chathub.NewManagerService(nil, func() chathub.Channel {
		return realtime.NewChannel(broker, "public:chat_room")
	})
}

func TestManager_RegisterAndUnregister(t *testing.T) {
	hub := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	clientA := newMockClient("A")
	require.True(t, hub.Register(clientA))

	hub.Unregister(clientA)
	assert.Eventually(t, func() bool { return clientA.closed.Load() == 1 }, time.Second, 10*time.Millisecond)

	// unregistering twice closes nothing more
	hub.Unregister(clientA)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), clientA.closed.Load())
}

func TestManager_ShutdownClosesClients(t *testing.T) {
	hub := newTestManager()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	clientA := newMockClient("A")
	clientB := newMockClient("B")
	require.True(t, hub.Register(clientA))
	require.True(t, hub.Register(clientB))

	cancel()
	<-stopped

	assert.Equal(t, int32(1), clientA.closed.Load())
	assert.Equal(t, int32(1), clientB.closed.Load())

	late := newMockClient("late")
	assert.False(t, hub.Register(late))
	assert.Equal(t, int32(1), late.closed.Load())

	hub.Unregister(clientA)
	assert.Equal(t, int32(2), clientA.closed.Load(), "unregister after shutdown must not block")
}

func TestManager_OpenSession(t *testing.T) {
	hub := newTestManager()

	s := hub.OpenSession("browser-1", &recordingNotifier{})

	require.NotNil(t, s)
	assert.Equal(t, "browser-1", s.ClientID())
}
