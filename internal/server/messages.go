package server

import (
	"time"

	"github.com/synapso/backend/internal/types"
)

const (
	TypeTimerUpdate = "timer_update"
	TypeChatMessage = "chat_message"
	TypeChatHistory = "chat_history"
	TypeUserList    = "user_list"
)

// ClientMessage is an inbound event from a participant's connection.
type ClientMessage struct {
	Type    string            `json:"type"`
	Data    *types.TimerState `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	client  *Client
}

// ServerMessage is a type-tagged event sent to one or all connections in a
// room.
type ServerMessage struct {
	Type      string            `json:"type"`
	Data      *types.TimerState `json:"data,omitempty"`
	Messages  []types.ChatEntry `json:"messages,omitempty"`
	Users     []string          `json:"users,omitempty"`
	Owner     string            `json:"owner,omitempty"`
	Username  string            `json:"username,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
}

func TimerUpdateMessage(state types.TimerState) *ServerMessage {
	return &ServerMessage{
		Type: TypeTimerUpdate,
		Data: &state,
	}
}

func ChatHistoryMessage(entries []types.ChatEntry) *ServerMessage {
	return &ServerMessage{
		Type:     TypeChatHistory,
		Messages: entries,
	}
}

func UserListMessage(users []string, owner string) *ServerMessage {
	return &ServerMessage{
		Type:  TypeUserList,
		Users: users,
		Owner: owner,
	}
}

func ChatBroadcastMessage(entry types.ChatEntry) *ServerMessage {
	ts := entry.Timestamp
	return &ServerMessage{
		Type:      TypeChatMessage,
		Username:  entry.Username,
		Message:   entry.Message,
		Timestamp: &ts,
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
