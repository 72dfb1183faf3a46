package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/lib/pq"
	"github.com/synapso/backend/internal/database"
	"github.com/synapso/backend/internal/matching"
	"github.com/synapso/backend/internal/server"
	"github.com/synapso/backend/internal/types"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	Username     string   `json:"username" validate:"required,min=3,max=32"`
	Password     string   `json:"password" validate:"required,min=8,max=72"`
	Subjects     []string `json:"subjects"`
	Availability []string `json:"availability"`
}

type UpdateProfileRequest struct {
	Subjects           []string `json:"subjects"`
	Availability       []string `json:"availability"`
	Bio                string   `json:"bio" validate:"max=500"`
	StudyHabits        []string `json:"study_habits"`
	Interests          []string `json:"interests"`
	AcademicLevel      string   `json:"academic_level"`
	StudyLocation      string   `json:"study_location"`
	PreferredStudyTime string   `json:"preferred_study_time"`
}

type SwipeRequest struct {
	SwipeeId  int    `json:"swipee_id" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=left right"`
}

type SwipeResponse struct {
	Success bool   `json:"success"`
	SwipeId string `json:"swipe_id"`
	IsMatch bool   `json:"is_match"`
	Message string `json:"message"`
}

type SendMessageRequest struct {
	MatchId string `json:"match_id" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

type CreateRoomResponse struct {
	RoomId string `json:"room_id"`
}

const matchedMessage = "It's a match! 🎉"

func (s *SynapsoApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func userResponse(u database.User) types.User {
	return types.User{
		Id:                 u.Id,
		Username:           u.Username,
		EmailAddress:       u.EmailAddress,
		Subjects:           u.Subjects,
		Availability:       u.Availability,
		Bio:                u.Bio,
		StudyHabits:        u.StudyHabits,
		Interests:          u.Interests,
		AcademicLevel:      u.AcademicLevel,
		StudyLocation:      u.StudyLocation,
		PreferredStudyTime: u.PreferredStudyTime,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

func (s *SynapsoApp) validateRequest(v interface{}) *ApiError {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		fe := validationErrs[0]
		return NewValidationError("invalid field " + fe.Field())
	}

	return NewBadRequestError()
}

func (s *SynapsoApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.validateRequest(req); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
		Subjects:     req.Subjects,
		Availability: req.Availability,
	}

	newUser, err := s.db.CreateAccount(params)
	if err != nil {
		var errResp *ApiError
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			errResp = NewConflictError("email already registered")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, userResponse(newUser))
}

func (s *SynapsoApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.validateRequest(lr); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	token, err := s.createJwtForSession(dbUser.Id, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, userResponse(dbUser))
}

func (s *SynapsoApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *SynapsoApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userResponse(user))
}

func (s *SynapsoApp) profile(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := s.db.GetAccountById(userId)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, userResponse(user))
	case http.MethodPut:
		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		if errResp := s.validateRequest(req); errResp != nil {
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		params := database.UpdateProfileParams{
			UserId:             userId,
			Subjects:           req.Subjects,
			Availability:       req.Availability,
			Bio:                req.Bio,
			StudyHabits:        req.StudyHabits,
			Interests:          req.Interests,
			AcademicLevel:      req.AcademicLevel,
			StudyLocation:      req.StudyLocation,
			PreferredStudyTime: req.PreferredStudyTime,
		}

		user, err := s.db.UpdateProfile(params)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, userResponse(user))
	case http.MethodDelete:
		if err := s.db.DeleteAccount(userId); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
		w.WriteHeader(http.StatusNoContent)
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *SynapsoApp) userStats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	userStats, err := s.matcher.StatsFor(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, userStats)
}

func (s *SynapsoApp) recommendations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	candidates, err := s.matcher.Recommendations(userId)
	if err != nil {
		s.log.Println("recommendations:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users := make([]types.User, 0, len(candidates))
	for _, c := range candidates {
		u := userResponse(c)
		u.EmailAddress = ""
		users = append(users, u)
	}

	s.writeJson(w, http.StatusOK, users)
}

func (s *SynapsoApp) createSwipe(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.validateRequest(req); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetAccountById(req.SwipeeId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	result, err := s.matcher.RecordSwipe(userId, req.SwipeeId, req.Direction)
	if err != nil {
		var errResp *ApiError
		switch {
		case errors.Is(err, matching.ErrSelfSwipe), errors.Is(err, matching.ErrInvalidDirection):
			errResp = NewValidationError(err.Error())
		default:
			s.log.Println("record swipe:", err)
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg := "Swipe recorded"
	if result.IsMatch {
		msg = matchedMessage
	}

	s.writeJson(w, http.StatusCreated, SwipeResponse{
		Success: true,
		SwipeId: result.SwipeId,
		IsMatch: result.IsMatch,
		Message: msg,
	})
}

func (s *SynapsoApp) getMatches(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	matched, err := s.matcher.MatchesFor(userId)
	if err != nil {
		s.log.Println("list matches:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	matches := make([]types.Match, 0, len(matched))
	for _, m := range matched {
		matches = append(matches, types.Match{
			MatchId:      m.MatchId,
			UserId:       m.Partner.Id,
			Username:     m.Partner.Username,
			Subjects:     m.Partner.Subjects,
			Availability: m.Partner.Availability,
			Bio:          m.Partner.Bio,
			MatchedAt:    m.MatchedAt,
		})
	}

	s.writeJson(w, http.StatusOK, matches)
}

func (s *SynapsoApp) getChats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMatches, err := s.db.ListMatchesForUser(userId)
	if err != nil {
		s.log.Println("list matches:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	chats := make([]types.Chat, 0, len(dbMatches))
	for _, m := range dbMatches {
		partnerId := m.UserAId
		if partnerId == userId {
			partnerId = m.UserBId
		}

		partner, err := s.db.GetAccountById(partnerId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		chat := types.Chat{
			MatchId:           m.ExternalId,
			OtherUserId:       partner.Id,
			OtherUserUsername: partner.Username,
		}

		last, err := s.db.GetLastMessageForMatch(m.Id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		if err == nil {
			chat.LastMessage = last.Content
			chat.LastMessageAt = last.CreatedAt
		}

		unread, err := s.db.CountUnreadMessages(m.Id, userId)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		chat.UnreadCount = unread

		chats = append(chats, chat)
	}

	s.writeJson(w, http.StatusOK, chats)
}

// matchForParticipant resolves a match by external id and confirms the caller
// is one of its two users.
func (s *SynapsoApp) matchForParticipant(externalId string, userId int) (database.Match, *ApiError) {
	match, err := s.db.GetMatchByExternalId(externalId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.Match{}, NewNotFoundError()
		}
		return database.Match{}, NewInternalServerError(err)
	}

	if match.UserAId != userId && match.UserBId != userId {
		return database.Match{}, NewForbiddenError()
	}

	return match, nil
}

func (s *SynapsoApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("match_id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	match, errResp := s.matchForParticipant(externalId, userId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbMessages, err := s.db.ListMessagesForMatch(match.Id)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	usernames := make(map[int]string)
	for _, id := range []int{match.UserAId, match.UserBId} {
		if u, err := s.db.GetAccountById(id); err == nil {
			usernames[id] = u.Username
		}
	}

	messages := make([]types.Message, 0, len(dbMessages))
	for _, msg := range dbMessages {
		messages = append(messages, types.Message{
			Id:             msg.Id,
			MatchId:        match.ExternalId,
			SenderId:       msg.SenderId,
			SenderUsername: usernames[msg.SenderId],
			ReceiverId:     msg.ReceiverId,
			Content:        msg.Content,
			SentAt:         msg.CreatedAt,
			IsRead:         msg.IsRead,
		})
	}

	if err := s.db.MarkMessagesRead(match.Id, userId); err != nil {
		s.log.Println("mark messages read:", err)
	}

	s.writeJson(w, http.StatusOK, messages)
}

func (s *SynapsoApp) createMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if errResp := s.validateRequest(req); errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	match, errResp := s.matchForParticipant(req.MatchId, userId)
	if errResp != nil {
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	receiverId := match.UserAId
	if receiverId == userId {
		receiverId = match.UserBId
	}

	msg, err := s.db.CreateMessage(database.CreateMessageParams{
		MatchId:    match.Id,
		SenderId:   userId,
		ReceiverId: receiverId,
		Content:    req.Content,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Message{
		Id:         msg.Id,
		MatchId:    match.ExternalId,
		SenderId:   msg.SenderId,
		ReceiverId: msg.ReceiverId,
		Content:    msg.Content,
		SentAt:     msg.CreatedAt,
		IsRead:     msg.IsRead,
	})
}

func (s *SynapsoApp) createRoom(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserId(r.Context()); !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, CreateRoomResponse{RoomId: sid})
}

func (s *SynapsoApp) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Println("health check:", err)
		s.writeJson(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	s.writeJson(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *SynapsoApp) serveWs(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserId(r.Context()); !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomId := r.PathValue("room_id")
	username := r.PathValue("username")
	if roomId == "" || username == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(username, roomId, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}
