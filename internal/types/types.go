package types

import (
	"time"
)

type User struct {
	Id                 int       `json:"id"`
	Username           string    `json:"username"`
	EmailAddress       string    `json:"email_address,omitempty"`
	Password           string    `json:"-"`
	Subjects           []string  `json:"subjects"`
	Availability       []string  `json:"availability"`
	Bio                string    `json:"bio,omitempty"`
	StudyHabits        []string  `json:"study_habits,omitempty"`
	Interests          []string  `json:"interests,omitempty"`
	AcademicLevel      string    `json:"academic_level,omitempty"`
	StudyLocation      string    `json:"study_location,omitempty"`
	PreferredStudyTime string    `json:"preferred_study_time,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// TimerState is the shared pomodoro timer replicated to every participant of
// a study room. Only the room owner may replace it.
type TimerState struct {
	Running   bool       `json:"running"`
	Remaining int        `json:"remaining"`
	StartTime *time.Time `json:"start_time"`
}

const DefaultTimerSeconds = 1500

func DefaultTimerState() TimerState {
	return TimerState{Running: false, Remaining: DefaultTimerSeconds, StartTime: nil}
}

// ChatEntry is a single room-scoped chat message. It lives only as long as
// the room does.
type ChatEntry struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Match struct {
	MatchId      string    `json:"match_id"`
	UserId       int       `json:"user_id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Subjects     []string  `json:"subjects"`
	Availability []string  `json:"availability"`
	Bio          string    `json:"bio,omitempty"`
	MatchedAt    time.Time `json:"matched_at"`
}

type Message struct {
	Id             int       `json:"id"`
	MatchId        string    `json:"match_id"`
	SenderId       int       `json:"sender_id"`
	SenderUsername string    `json:"sender_username,omitempty"`
	ReceiverId     int       `json:"receiver_id"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sent_at"`
	IsRead         bool      `json:"is_read"`
}

type Chat struct {
	MatchId           string    `json:"match_id"`
	OtherUserId       int       `json:"other_user_id"`
	OtherUserUsername string    `json:"other_user_username"`
	LastMessage       string    `json:"last_message"`
	LastMessageAt     time.Time `json:"last_message_at"`
	UnreadCount       int       `json:"unread_count"`
}
