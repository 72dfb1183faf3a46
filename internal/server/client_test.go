package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/synapso/backend/internal/stats"
	"github.com/synapso/backend/internal/testutil"
	"github.com/synapso/backend/internal/types"
)

func Test_queueMessage(t *testing.T) {
	t.Run("queues while buffer has room", func(t *testing.T) {
		c := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}

		assert.True(t, c.queueMessage(UserListMessage([]string{"alice"}, "alice")))
		assert.Len(t, c.send, 1)
	})

	t.Run("drops when buffer is full", func(t *testing.T) {
		c := &Client{log: testutil.TestLogger(t), send: make(chan *ServerMessage, 1)}

		require.True(t, c.queueMessage(UserListMessage([]string{"alice"}, "alice")))
		assert.False(t, c.queueMessage(UserListMessage([]string{"alice"}, "alice")))
		assert.Len(t, c.send, 1)
	})
}

func Test_stopClient(t *testing.T) {
	c := NewClient("alice", "algebra-1", nil, nil, testutil.TestLogger(t))

	assert.False(t, c.stopped())
	c.stopClient()
	assert.True(t, c.stopped())
	// stopping twice must not panic
	c.stopClient()
}

func Test_setRoom_getRoom(t *testing.T) {
	c := NewClient("alice", "algebra-1", nil, nil, testutil.TestLogger(t))
	assert.Nil(t, c.getRoom())

	r := &Room{id: "algebra-1"}
	c.setRoom(r)
	assert.Equal(t, r, c.getRoom())
}

// Test_clientRoundTrip drives a real websocket connection through the study
// server: join, initial state, chat fan-out and disconnect teardown.
func Test_clientRoundTrip(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything)
	su.On("Incr", mock.Anything)
	su.On("Decr", mock.Anything)

	cs := newTestStudyServer(t, su)
	go cs.Run()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		client := NewClient("alice", "algebra-1", conn, cs, testutil.TestLogger(t))
		cs.RegisterClient(client)
		go client.Write()
		go client.Read()
	}))
	defer srv.Close()

	wsUrl := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsUrl, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeTimerUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, types.DefaultTimerSeconds, msg.Data.Remaining)

	msg = ServerMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeUserList, msg.Type)
	assert.Equal(t, []string{"alice"}, msg.Users)
	assert.Equal(t, "alice", msg.Owner)

	require.NoError(t, conn.WriteJSON(map[string]string{
		"type":    TypeChatMessage,
		"message": "hello room",
	}))

	msg = ServerMessage{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeChatMessage, msg.Type)
	assert.Equal(t, "alice", msg.Username)
	assert.Equal(t, "hello room", msg.Message)

	require.NoError(t, conn.Close())

	// the read pump tears the client down, emptying the room
	assert.Eventually(t, func() bool {
		cs.clientsLock.Lock()
		defer cs.clientsLock.Unlock()
		return len(cs.clients) == 0
	}, 2*time.Second, 10*time.Millisecond, "expected client to be deregistered after disconnect")
}
