package server

import (
	"log"
	"sort"

	"github.com/synapso/backend/internal/types"
)

// Room holds the ephemeral state of a single study room: the participants
// keyed by display name, the elected owner, the shared timer and the chat
// log. All of it is mutated exclusively by the room's own goroutine and is
// discarded the moment the last connection closes.
type Room struct {
	id            string
	cs            *StudyServer
	joinChan      chan *Client
	leaveChan     chan *Client
	clientMsgChan chan *ClientMessage
	// participants maps a display name to its open connection count; the
	// name stays a member for as long as any of its connections remain.
	participants map[string]int
	owner        string
	timer        types.TimerState
	chat         []types.ChatEntry
	clients      map[*Client]struct{}
	log          *log.Logger
	// exit is closed by the study server to tear the room down
	exit      chan struct{}
	done      chan struct{}
	unloading bool
}

func newRoom(id string, cs *StudyServer, logger *log.Logger) *Room {
	return &Room{
		id:            id,
		cs:            cs,
		joinChan:      make(chan *Client, 256),
		leaveChan:     make(chan *Client, 256),
		clientMsgChan: make(chan *ClientMessage, 256),
		participants:  make(map[string]int),
		timer:         types.DefaultTimerState(),
		clients:       make(map[*Client]struct{}),
		log:           logger,
		exit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.id)

	for {
		select {
		case c := <-r.joinChan:
			r.handleJoin(c)
		case c := <-r.leaveChan:
			r.handleLeave(c)
		case msg := <-r.clientMsgChan:
			switch msg.Type {
			case TypeTimerUpdate:
				r.handleTimerUpdate(msg)
			case TypeChatMessage:
				r.handleChatMessage(msg)
			default:
				r.log.Printf("dropping message with unknown type %q in room %q", msg.Type, r.id)
			}
		case <-r.exit:
			r.handleRoomExit()
			return
		}
	}
}

func (r *Room) handleJoin(c *Client) {
	if r.unloading {
		// the room is being torn down, route the client to a fresh room
		r.cs.requeueJoin(c)
		return
	}

	existed := len(r.participants) > 0

	r.clients[c] = struct{}{}
	r.participants[c.username]++
	c.setRoom(r)

	// A disconnect can race the join: cleanup closes stop before reading
	// the client's room, which may still have been nil at that point.
	// Membership is recorded above, so checking stopped here guarantees
	// one side runs the leave.
	if c.stopped() {
		r.log.Printf("client %q disconnected while joining room %q", c.username, r.id)
		r.handleLeave(c)
		return
	}

	if r.owner == "" {
		r.owner = c.username
		r.log.Printf("%q owns room %q", c.username, r.id)
	}

	c.queueMessage(TimerUpdateMessage(r.timer))
	if existed {
		c.queueMessage(ChatHistoryMessage(r.chat))
	}

	r.broadcastUserList()
}

func (r *Room) handleLeave(c *Client) {
	if _, ok := r.clients[c]; !ok {
		return
	}

	delete(r.clients, c)

	if n := r.participants[c.username]; n > 1 {
		// the same name is still connected elsewhere, membership unchanged
		r.participants[c.username] = n - 1
		return
	}
	delete(r.participants, c.username)

	if len(r.participants) == 0 {
		r.unloading = true
		r.cs.requestUnload(r.id)
		return
	}

	if r.owner == c.username {
		r.owner = r.anyParticipant()
		r.log.Printf("room %q owner changed to %q", r.id, r.owner)
	}

	r.broadcastUserList()
}

func (r *Room) anyParticipant() string {
	for name := range r.participants {
		return name
	}
	return ""
}

func (r *Room) handleTimerUpdate(msg *ClientMessage) {
	if msg.client.username != r.owner {
		// only the owner may drive the shared timer
		r.log.Printf("ignoring timer update from non-owner %q in room %q", msg.client.username, r.id)
		return
	}
	if msg.Data == nil {
		r.log.Printf("dropping timer update without state in room %q", r.id)
		return
	}

	r.timer = *msg.Data
	r.broadcast(TimerUpdateMessage(r.timer))
}

func (r *Room) handleChatMessage(msg *ClientMessage) {
	if msg.Message == "" {
		return
	}

	entry := types.ChatEntry{
		Username:  msg.client.username,
		Message:   msg.Message,
		Timestamp: Now(),
	}
	r.chat = append(r.chat, entry)
	r.cs.stats.Incr(chatMessagesMetric)

	r.broadcast(ChatBroadcastMessage(entry))
}

func (r *Room) handleRoomExit() {
	r.log.Printf("room %q is exiting", r.id)

	for {
		select {
		case c := <-r.joinChan:
			r.cs.requeueJoin(c)
		default:
			// clients that slipped in after the room emptied get routed to
			// a fresh room by the study server
			for c := range r.clients {
				r.cs.requeueJoin(c)
			}

			close(r.done)
			return
		}
	}
}

func (r *Room) broadcastUserList() {
	users := make([]string, 0, len(r.participants))
	for name := range r.participants {
		users = append(users, name)
	}
	sort.Strings(users)

	r.broadcast(UserListMessage(users, r.owner))
}

// broadcast fans a message out to every connection in the room. Sends are
// best-effort per connection; a slow or dead connection never blocks the
// others.
func (r *Room) broadcast(msg *ServerMessage) {
	for c := range r.clients {
		if !c.queueMessage(msg) {
			r.log.Printf("dropping broadcast for %q in room %q", c.username, r.id)
		}
	}
}
