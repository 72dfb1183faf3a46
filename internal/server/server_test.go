package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/synapso/backend/internal/stats"
	"github.com/synapso/backend/internal/testutil"
)

func newTestStudyServer(t *testing.T, su stats.StatsProvider) *StudyServer {
	t.Helper()

	cs, err := NewStudyServer(testutil.TestLogger(t), su)
	require.NoError(t, err)

	return cs
}

func Test_NewStudyServer(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", activeConnectionsMetric)
	su.On("RegisterMetric", activeRoomsMetric)
	su.On("RegisterMetric", chatMessagesMetric)
	defer su.AssertExpectations(t)

	cs := newTestStudyServer(t, su)

	assert.NotNil(t, cs.rooms)
	assert.NotNil(t, cs.clients)
	assert.NotNil(t, cs.joinChan)
	assert.NotNil(t, cs.unloadRoomChan)
}

func Test_serverHandleJoin(t *testing.T) {
	t.Run("creates room on first join", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything)
		su.On("Incr", activeRoomsMetric).Once()
		defer su.AssertExpectations(t)

		cs := newTestStudyServer(t, su)

		alice := newTestClient(t, "alice")
		alice.roomId = "algebra-1"
		cs.handleJoin(alice)

		room, ok := cs.rooms["algebra-1"]
		require.True(t, ok, "expected room to be registered")

		// the room goroutine picks the client up from its join channel
		assert.Eventually(t, func() bool {
			select {
			case <-room.done:
				return false
			default:
			}
			return len(alice.send) > 0
		}, time.Second, 10*time.Millisecond, "expected joined client to receive room state")

		close(room.exit)
		<-room.done
	})

	t.Run("reuses an existing room", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything)
		su.On("Incr", activeRoomsMetric).Once()
		defer su.AssertExpectations(t)

		cs := newTestStudyServer(t, su)

		alice := newTestClient(t, "alice")
		alice.roomId = "algebra-1"
		cs.handleJoin(alice)

		bob := newTestClient(t, "bob")
		bob.roomId = "algebra-1"
		cs.handleJoin(bob)

		require.Len(t, cs.rooms, 1)

		room := cs.rooms["algebra-1"]
		close(room.exit)
		<-room.done
	})
}

func Test_serverHandleUnload(t *testing.T) {
	t.Run("removes the room and stops its goroutine", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything)
		su.On("Incr", activeRoomsMetric)
		su.On("Decr", activeRoomsMetric).Once()
		defer su.AssertExpectations(t)

		cs := newTestStudyServer(t, su)

		alice := newTestClient(t, "alice")
		alice.roomId = "algebra-1"
		cs.handleJoin(alice)
		room := cs.rooms["algebra-1"]

		cs.handleUnload(unloadRoomRequest{roomId: "algebra-1"})

		assert.NotContains(t, cs.rooms, "algebra-1")
		select {
		case <-room.done:
		case <-time.After(time.Second):
			t.Error("timeout: room goroutine did not exit")
		}
	})

	t.Run("unknown room is a no-op", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything)
		defer su.AssertExpectations(t)

		cs := newTestStudyServer(t, su)
		cs.handleUnload(unloadRoomRequest{roomId: "nope"})
	})
}

func Test_roomLifecycle(t *testing.T) {
	// leaving the last participant destroys the room; the next join gets a
	// fresh one with default state
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything)
	su.On("Incr", mock.Anything)
	su.On("Decr", mock.Anything)

	cs := newTestStudyServer(t, su)
	go cs.Run()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, cs.Shutdown(ctx))
	}()

	alice := newTestClient(t, "alice")
	alice.roomId = "algebra-1"
	cs.joinChan <- alice

	var room *Room
	require.Eventually(t, func() bool {
		if len(alice.send) == 0 {
			return false
		}
		room = alice.getRoom()
		return room != nil
	}, time.Second, 10*time.Millisecond)

	room.leaveChan <- alice

	select {
	case <-room.done:
	case <-time.After(time.Second):
		t.Fatal("timeout: empty room was not destroyed")
	}

	bob := newTestClient(t, "bob")
	bob.roomId = "algebra-1"
	cs.joinChan <- bob

	require.Eventually(t, func() bool {
		return bob.getRoom() != nil && bob.getRoom() != room
	}, time.Second, 10*time.Millisecond, "expected a fresh room for the next joiner")

	msg := receiveMessage(t, bob)
	require.Equal(t, TypeTimerUpdate, msg.Type)
	require.NotNil(t, msg.Data)
	assert.False(t, msg.Data.Running, "expected the recreated room to start with default timer state")

	msg = receiveMessage(t, bob)
	require.Equal(t, TypeUserList, msg.Type)
	assert.Equal(t, "bob", msg.Owner, "expected the first joiner of the recreated room to own it")
}

func Test_requestUnload(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything)

	cs := newTestStudyServer(t, su)
	cs.requestUnload("algebra-1")

	select {
	case req := <-cs.unloadRoomChan:
		assert.Equal(t, "algebra-1", req.roomId)
	default:
		t.Error("expected an unload request")
	}
}

func Test_requeueJoin(t *testing.T) {
	t.Run("queues a live client", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything)

		cs := newTestStudyServer(t, su)
		alice := newTestClient(t, "alice")
		cs.requeueJoin(alice)

		select {
		case c := <-cs.joinChan:
			assert.Equal(t, alice, c)
		default:
			t.Error("expected client on join channel")
		}
	})

	t.Run("drops a stopped client", func(t *testing.T) {
		su := &stats.MockStatsUpdater{}
		su.On("RegisterMetric", mock.Anything)

		cs := newTestStudyServer(t, su)
		alice := newTestClient(t, "alice")
		alice.stopClient()
		cs.requeueJoin(alice)

		select {
		case <-cs.joinChan:
			t.Error("expected stopped client not to be requeued")
		default:
		}
	})
}

func Test_RegisterDeregisterClient(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything)
	su.On("Incr", activeConnectionsMetric).Once()
	su.On("Decr", activeConnectionsMetric).Once()
	defer su.AssertExpectations(t)

	cs := newTestStudyServer(t, su)
	alice := newTestClient(t, "alice")

	cs.RegisterClient(alice)
	assert.Contains(t, cs.clients, alice)

	cs.DeregisterClient(alice)
	assert.NotContains(t, cs.clients, alice)

	// a second deregister must not decrement again
	cs.DeregisterClient(alice)
}

func Test_Shutdown(t *testing.T) {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything)
	su.On("Incr", mock.Anything)

	cs := newTestStudyServer(t, su)
	go cs.Run()

	alice := newTestClient(t, "alice")
	cs.RegisterClient(alice)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, cs.Shutdown(ctx))
	assert.True(t, alice.stopped(), "expected registered client to be stopped")

	select {
	case <-cs.done:
	default:
		t.Error("expected done channel to be closed")
	}
}
