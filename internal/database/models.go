package database

import "time"

type User struct {
	Id                 int
	Username           string
	EmailAddress       string
	PasswordHash       string
	Subjects           []string
	Availability       []string
	Bio                string
	StudyHabits        []string
	Interests          []string
	AcademicLevel      string
	StudyLocation      string
	PreferredStudyTime string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Swipe struct {
	Id         int
	ExternalId string
	SwiperId   int
	SwipeeId   int
	Direction  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Match struct {
	Id         int
	ExternalId string
	UserAId    int
	UserBId    int
	CreatedAt  time.Time
}

type Message struct {
	Id         int
	MatchId    int
	SenderId   int
	ReceiverId int
	Content    string
	IsRead     bool
	CreatedAt  time.Time
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Subjects     []string
	Availability []string
}

type UpdateProfileParams struct {
	UserId             int
	Subjects           []string
	Availability       []string
	Bio                string
	StudyHabits        []string
	Interests          []string
	AcademicLevel      string
	StudyLocation      string
	PreferredStudyTime string
}

type CreateSwipeParams struct {
	ExternalId string
	SwiperId   int
	SwipeeId   int
	Direction  string
}

type CreateMatchParams struct {
	ExternalId string
	UserAId    int
	UserBId    int
}

type CreateMessageParams struct {
	MatchId    int
	SenderId   int
	ReceiverId int
	Content    string
}
