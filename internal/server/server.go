package server

import (
	"context"
	"log"
	"sync"

	"github.com/synapso/backend/internal/stats"
)

const (
	activeConnectionsMetric = "ActiveConnections"
	activeRoomsMetric       = "ActiveRooms"
	chatMessagesMetric      = "ChatMessages"
)

type unloadRoomRequest struct {
	roomId string
}

// StudyServer owns the registry of live study rooms. All room creation and
// destruction flows through its Run loop, so a room exists in the registry
// exactly while it has at least one connected participant.
type StudyServer struct {
	log            *log.Logger
	stats          stats.StatsProvider
	rooms          map[string]*Room
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	joinChan       chan *Client
	unloadRoomChan chan unloadRoomRequest
	stop           chan struct{}
	done           chan struct{}
}

func NewStudyServer(logger *log.Logger, su stats.StatsProvider) (*StudyServer, error) {
	su.RegisterMetric(activeConnectionsMetric)
	su.RegisterMetric(activeRoomsMetric)
	su.RegisterMetric(chatMessagesMetric)

	return &StudyServer{
		log:            logger,
		stats:          su,
		rooms:          make(map[string]*Room),
		clients:        make(map[*Client]struct{}),
		joinChan:       make(chan *Client, 256),
		unloadRoomChan: make(chan unloadRoomRequest, 64),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

func (cs *StudyServer) Run() {
	for {
		select {
		case c := <-cs.joinChan:
			cs.handleJoin(c)
		case req := <-cs.unloadRoomChan:
			cs.handleUnload(req)
		case <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				cs.log.Printf("shutting down room %q", r.id)
				close(r.exit)
				<-r.done
			}

			close(cs.done)
			return
		}
	}
}

func (cs *StudyServer) handleJoin(c *Client) {
	room, ok := cs.rooms[c.roomId]
	if !ok {
		room = newRoom(c.roomId, cs, cs.log)
		cs.rooms[c.roomId] = room
		go room.start()
		cs.stats.Incr(activeRoomsMetric)
		cs.log.Printf("created room %q", c.roomId)
	}

	select {
	case room.joinChan <- c:
	default:
		cs.log.Printf("join channel full on room %q", room.id)
	}
}

func (cs *StudyServer) handleUnload(req unloadRoomRequest) {
	r, ok := cs.rooms[req.roomId]
	if !ok {
		return
	}

	delete(cs.rooms, req.roomId)
	cs.stats.Decr(activeRoomsMetric)
	close(r.exit)
	cs.log.Printf("unloaded room %q", req.roomId)
}

// requestUnload is called by a room that just lost its last participant.
func (cs *StudyServer) requestUnload(roomId string) {
	select {
	case cs.unloadRoomChan <- unloadRoomRequest{roomId: roomId}:
	default:
		cs.log.Printf("unload channel full, room %q left in registry", roomId)
	}
}

// requeueJoin sends a client back through the registry after its room was
// torn down underneath it.
func (cs *StudyServer) requeueJoin(c *Client) {
	if c.stopped() {
		return
	}

	select {
	case cs.joinChan <- c:
	default:
		cs.log.Printf("join channel full, dropping rejoin for %q", c.username)
	}
}

func (cs *StudyServer) RegisterClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	cs.clients[c] = struct{}{}
	cs.stats.Incr(activeConnectionsMetric)
}

func (cs *StudyServer) DeregisterClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()

	if _, ok := cs.clients[c]; !ok {
		return
	}

	delete(cs.clients, c)
	cs.stats.Decr(activeConnectionsMetric)
}

func (cs *StudyServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")

	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
