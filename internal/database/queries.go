package database

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

const accountColumns = "id, username, email, password_hash, subjects, availability, bio, " +
	"study_habits, interests, academic_level, study_location, preferred_study_time, created_at, updated_at"

func scanAccount(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		pq.Array(&u.Subjects),
		pq.Array(&u.Availability),
		&u.Bio,
		pq.Array(&u.StudyHabits),
		pq.Array(&u.Interests),
		&u.AcademicLevel,
		&u.StudyLocation,
		&u.PreferredStudyTime,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgSynapsoRepository) CreateAccount(params CreateAccountParams) (User, error) {
	row := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, subjects, availability) "+
			"VALUES ($1, $2, $3, $4, $5) RETURNING "+accountColumns,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		pq.Array(params.Subjects),
		pq.Array(params.Availability),
	)

	return scanAccount(row)
}

func (db *PgSynapsoRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE id = $1 LIMIT 1",
		accountId,
	)

	return scanAccount(row)
}

func (db *PgSynapsoRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts WHERE email = $1 LIMIT 1",
		email,
	)

	return scanAccount(row)
}

func (db *PgSynapsoRepository) UpdateProfile(params UpdateProfileParams) (User, error) {
	row := db.conn.QueryRow(
		"UPDATE accounts SET subjects = $2, availability = $3, bio = $4, study_habits = $5, "+
			"interests = $6, academic_level = $7, study_location = $8, preferred_study_time = $9, "+
			"updated_at = $10 WHERE id = $1 RETURNING "+accountColumns,
		params.UserId,
		pq.Array(params.Subjects),
		pq.Array(params.Availability),
		params.Bio,
		pq.Array(params.StudyHabits),
		pq.Array(params.Interests),
		params.AcademicLevel,
		params.StudyLocation,
		params.PreferredStudyTime,
		time.Now().UTC(),
	)

	return scanAccount(row)
}

func (db *PgSynapsoRepository) DeleteAccount(accountId int) error {
	_, err := db.conn.Exec("DELETE FROM accounts WHERE id = $1", accountId)
	return err
}

func (db *PgSynapsoRepository) ListAccountsExcluding(excludeIds []int, limit int) ([]User, error) {
	rows, err := db.conn.Query(
		"SELECT "+accountColumns+" FROM accounts WHERE id <> ALL($1) ORDER BY id LIMIT $2",
		pq.Array(excludeIds),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(
			&u.Id,
			&u.Username,
			&u.EmailAddress,
			&u.PasswordHash,
			pq.Array(&u.Subjects),
			pq.Array(&u.Availability),
			&u.Bio,
			pq.Array(&u.StudyHabits),
			pq.Array(&u.Interests),
			&u.AcademicLevel,
			&u.StudyLocation,
			&u.PreferredStudyTime,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

const swipeColumns = "id, external_id, swiper_id, swipee_id, direction, created_at, updated_at"

func scanSwipe(row *sql.Row) (Swipe, error) {
	var s Swipe
	err := row.Scan(
		&s.Id,
		&s.ExternalId,
		&s.SwiperId,
		&s.SwipeeId,
		&s.Direction,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	return s, err
}

func (db *PgSynapsoRepository) GetSwipe(swiperId, swipeeId int) (Swipe, error) {
	row := db.conn.QueryRow(
		"SELECT "+swipeColumns+" FROM swipes WHERE swiper_id = $1 AND swipee_id = $2 LIMIT 1",
		swiperId,
		swipeeId,
	)

	return scanSwipe(row)
}

func (db *PgSynapsoRepository) CreateSwipe(params CreateSwipeParams) (Swipe, error) {
	row := db.conn.QueryRow(
		"INSERT INTO swipes (external_id, swiper_id, swipee_id, direction) "+
			"VALUES ($1, $2, $3, $4) RETURNING "+swipeColumns,
		params.ExternalId,
		params.SwiperId,
		params.SwipeeId,
		params.Direction,
	)

	return scanSwipe(row)
}

func (db *PgSynapsoRepository) UpdateSwipeDirection(swipeId int, direction string) (Swipe, error) {
	row := db.conn.QueryRow(
		"UPDATE swipes SET direction = $2, updated_at = $3 WHERE id = $1 RETURNING "+swipeColumns,
		swipeId,
		direction,
		time.Now().UTC(),
	)

	return scanSwipe(row)
}

func (db *PgSynapsoRepository) ListSwipesBySwiper(swiperId int) ([]Swipe, error) {
	rows, err := db.conn.Query(
		"SELECT "+swipeColumns+" FROM swipes WHERE swiper_id = $1",
		swiperId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swipes []Swipe
	for rows.Next() {
		var s Swipe
		err := rows.Scan(
			&s.Id,
			&s.ExternalId,
			&s.SwiperId,
			&s.SwipeeId,
			&s.Direction,
			&s.CreatedAt,
			&s.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		swipes = append(swipes, s)
	}

	return swipes, rows.Err()
}

func (db *PgSynapsoRepository) CountSwipesBySwiper(swiperId int, direction string) (int, error) {
	query := "SELECT COUNT(*) FROM swipes WHERE swiper_id = $1"
	args := []any{swiperId}
	if direction != "" {
		query += " AND direction = $2"
		args = append(args, direction)
	}

	var count int
	err := db.conn.QueryRow(query, args...).Scan(&count)
	return count, err
}

const matchColumns = "id, external_id, user_a_id, user_b_id, created_at"

func scanMatch(row *sql.Row) (Match, error) {
	var m Match
	err := row.Scan(
		&m.Id,
		&m.ExternalId,
		&m.UserAId,
		&m.UserBId,
		&m.CreatedAt,
	)

	return m, err
}

func (db *PgSynapsoRepository) GetMatchByUsers(userAId, userBId int) (Match, error) {
	row := db.conn.QueryRow(
		"SELECT "+matchColumns+" FROM matches "+
			"WHERE (user_a_id = $1 AND user_b_id = $2) OR (user_a_id = $2 AND user_b_id = $1) LIMIT 1",
		userAId,
		userBId,
	)

	return scanMatch(row)
}

func (db *PgSynapsoRepository) GetMatchByExternalId(externalId string) (Match, error) {
	row := db.conn.QueryRow(
		"SELECT "+matchColumns+" FROM matches WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanMatch(row)
}

func (db *PgSynapsoRepository) CreateMatch(params CreateMatchParams) (Match, error) {
	row := db.conn.QueryRow(
		"INSERT INTO matches (external_id, user_a_id, user_b_id) "+
			"VALUES ($1, $2, $3) RETURNING "+matchColumns,
		params.ExternalId,
		params.UserAId,
		params.UserBId,
	)

	return scanMatch(row)
}

func (db *PgSynapsoRepository) ListMatchesForUser(userId int) ([]Match, error) {
	rows, err := db.conn.Query(
		"SELECT "+matchColumns+" FROM matches "+
			"WHERE user_a_id = $1 OR user_b_id = $1 ORDER BY created_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		err := rows.Scan(
			&m.Id,
			&m.ExternalId,
			&m.UserAId,
			&m.UserBId,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func (db *PgSynapsoRepository) CountMatchesForUser(userId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM matches WHERE user_a_id = $1 OR user_b_id = $1",
		userId,
	).Scan(&count)

	return count, err
}

const messageColumns = "id, match_id, sender_id, receiver_id, content, is_read, created_at"

func (db *PgSynapsoRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	row := db.conn.QueryRow(
		"INSERT INTO messages (match_id, sender_id, receiver_id, content) "+
			"VALUES ($1, $2, $3, $4) RETURNING "+messageColumns,
		params.MatchId,
		params.SenderId,
		params.ReceiverId,
		params.Content,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.MatchId,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.Content,
		&msg.IsRead,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgSynapsoRepository) ListMessagesForMatch(matchId int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT "+messageColumns+" FROM messages WHERE match_id = $1 ORDER BY created_at",
		matchId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		err := rows.Scan(
			&msg.Id,
			&msg.MatchId,
			&msg.SenderId,
			&msg.ReceiverId,
			&msg.Content,
			&msg.IsRead,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (db *PgSynapsoRepository) GetLastMessageForMatch(matchId int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT "+messageColumns+" FROM messages WHERE match_id = $1 "+
			"ORDER BY created_at DESC LIMIT 1",
		matchId,
	)

	var msg Message
	err := row.Scan(
		&msg.Id,
		&msg.MatchId,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.Content,
		&msg.IsRead,
		&msg.CreatedAt,
	)

	return msg, err
}

func (db *PgSynapsoRepository) CountUnreadMessages(matchId, receiverId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE match_id = $1 AND receiver_id = $2 AND is_read = FALSE",
		matchId,
		receiverId,
	).Scan(&count)

	return count, err
}

func (db *PgSynapsoRepository) MarkMessagesRead(matchId, receiverId int) error {
	_, err := db.conn.Exec(
		"UPDATE messages SET is_read = TRUE WHERE match_id = $1 AND receiver_id = $2 AND is_read = FALSE",
		matchId,
		receiverId,
	)

	return err
}
