package matching

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/synapso/backend/internal/database"
	"github.com/synapso/backend/internal/stats"
)

const (
	DirectionLeft  = "left"
	DirectionRight = "right"

	// RecommendationPageSize bounds a single recommendations response.
	RecommendationPageSize = 10

	pairLockShards = 64

	totalSwipesMetric  = "TotalSwipes"
	totalMatchesMetric = "TotalMatches"
)

var (
	ErrInvalidDirection = errors.New("direction must be \"left\" or \"right\"")
	ErrSelfSwipe        = errors.New("cannot swipe on yourself")
)

// Service implements swipe recording, mutual-match detection and candidate
// recommendations on top of the repository.
type Service struct {
	log   *log.Logger
	db    database.SynapsoRepository
	stats stats.StatsProvider

	// pairLocks serializes match creation per unordered user pair so two
	// near-simultaneous reciprocal swipes cannot both pass the existence
	// check. Striped at a fixed size so the lock set never grows with the
	// number of pairs evaluated.
	pairLocks [pairLockShards]sync.Mutex
}

func NewService(logger *log.Logger, db database.SynapsoRepository, su stats.StatsProvider) *Service {
	su.RegisterMetric(totalSwipesMetric)
	su.RegisterMetric(totalMatchesMetric)

	return &Service{
		log:   logger,
		db:    db,
		stats: su,
	}
}

type SwipeResult struct {
	SwipeId string
	IsMatch bool
}

type MatchedUser struct {
	MatchId   string
	MatchedAt time.Time
	Partner   database.User
}

func (s *Service) pairLock(a, b int) *sync.Mutex {
	if a > b {
		a, b = b, a
	}
	return &s.pairLocks[(uint(a)*31+uint(b))%pairLockShards]
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// RecordSwipe stores a directional swipe and reports whether it completed a
// mutual right-swipe pair. Repeating an identical swipe is a no-op beyond
// reporting the pair's current match state; a repeat with the opposite
// direction overwrites the stored direction in place.
func (s *Service) RecordSwipe(swiperId, swipeeId int, direction string) (SwipeResult, error) {
	if direction != DirectionLeft && direction != DirectionRight {
		return SwipeResult{}, ErrInvalidDirection
	}
	if swiperId == swipeeId {
		return SwipeResult{}, ErrSelfSwipe
	}

	swipe, err := s.db.GetSwipe(swiperId, swipeeId)
	switch {
	case err == nil:
		if swipe.Direction == direction {
			return SwipeResult{SwipeId: swipe.ExternalId, IsMatch: s.pairMatched(swiperId, swipeeId)}, nil
		}
		swipe, err = s.db.UpdateSwipeDirection(swipe.Id, direction)
		if err != nil {
			return SwipeResult{}, fmt.Errorf("update swipe: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		swipe, err = s.db.CreateSwipe(database.CreateSwipeParams{
			ExternalId: uuid.NewString(),
			SwiperId:   swiperId,
			SwipeeId:   swipeeId,
			Direction:  direction,
		})
		if isUniqueViolation(err) {
			// lost a race with an identical concurrent swipe
			swipe, err = s.db.GetSwipe(swiperId, swipeeId)
		}
		if err != nil {
			return SwipeResult{}, fmt.Errorf("create swipe: %w", err)
		}
		s.stats.Incr(totalSwipesMetric)
	default:
		return SwipeResult{}, fmt.Errorf("get swipe: %w", err)
	}

	if direction != DirectionRight {
		return SwipeResult{SwipeId: swipe.ExternalId, IsMatch: false}, nil
	}

	reciprocal, err := s.db.GetSwipe(swipeeId, swiperId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SwipeResult{SwipeId: swipe.ExternalId, IsMatch: false}, nil
		}
		return SwipeResult{}, fmt.Errorf("get reciprocal swipe: %w", err)
	}
	if reciprocal.Direction != DirectionRight {
		return SwipeResult{SwipeId: swipe.ExternalId, IsMatch: false}, nil
	}

	if err := s.createMatch(swiperId, swipeeId); err != nil {
		return SwipeResult{}, err
	}

	return SwipeResult{SwipeId: swipe.ExternalId, IsMatch: true}, nil
}

// createMatch inserts the match record for an unordered pair exactly once.
func (s *Service) createMatch(userAId, userBId int) error {
	mu := s.pairLock(userAId, userBId)
	mu.Lock()
	defer mu.Unlock()

	_, err := s.db.GetMatchByUsers(userAId, userBId)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get match: %w", err)
	}

	_, err = s.db.CreateMatch(database.CreateMatchParams{
		ExternalId: uuid.NewString(),
		UserAId:    userAId,
		UserBId:    userBId,
	})
	if err != nil {
		if isUniqueViolation(err) {
			// another process created the match first
			return nil
		}
		return fmt.Errorf("create match: %w", err)
	}

	s.log.Printf("match created between %d and %d", userAId, userBId)
	s.stats.Incr(totalMatchesMetric)
	return nil
}

func (s *Service) pairMatched(userAId, userBId int) bool {
	_, err := s.db.GetMatchByUsers(userAId, userBId)
	return err == nil
}

// Recommendations returns a bounded page of candidates the user has not yet
// swiped on, ordered by descending profile affinity.
func (s *Service) Recommendations(userId int) ([]database.User, error) {
	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	swipes, err := s.db.ListSwipesBySwiper(userId)
	if err != nil {
		return nil, fmt.Errorf("list swipes: %w", err)
	}

	exclude := append([]int{userId}, lo.Map(swipes, func(sw database.Swipe, _ int) int {
		return sw.SwipeeId
	})...)

	candidates, err := s.db.ListAccountsExcluding(exclude, RecommendationPageSize)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return affinityScore(user, candidates[i]) > affinityScore(user, candidates[j])
	})

	return candidates, nil
}

// affinityScore weighs shared subjects twice as heavily as shared
// availability slots.
func affinityScore(a, b database.User) int {
	return 2*overlap(a.Subjects, b.Subjects) + overlap(a.Availability, b.Availability)
}

func overlap(a, b []string) int {
	return len(lo.Intersect(normalize(a), normalize(b)))
}

func normalize(tags []string) []string {
	return lo.Map(tags, func(tag string, _ int) string {
		return strings.ToLower(strings.TrimSpace(tag))
	})
}

// MatchesFor returns the user's matches with the partner's profile attached.
// Matches whose partner account has since been deleted are skipped.
func (s *Service) MatchesFor(userId int) ([]MatchedUser, error) {
	matches, err := s.db.ListMatchesForUser(userId)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	var result []MatchedUser
	for _, m := range matches {
		otherId := m.UserBId
		if m.UserBId == userId {
			otherId = m.UserAId
		}

		partner, err := s.db.GetAccountById(otherId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.log.Printf("match %s references missing account %d", m.ExternalId, otherId)
				continue
			}
			return nil, fmt.Errorf("get account: %w", err)
		}

		result = append(result, MatchedUser{
			MatchId:   m.ExternalId,
			MatchedAt: m.CreatedAt,
			Partner:   partner,
		})
	}

	return result, nil
}

type UserStats struct {
	TotalSwipes       int `json:"total_swipes"`
	RightSwipes       int `json:"right_swipes"`
	LeftSwipes        int `json:"left_swipes"`
	Matches           int `json:"matches"`
	ProfileCompletion int `json:"profile_completion"`
}

// StatsFor summarizes a user's swipe and match activity.
func (s *Service) StatsFor(userId int) (UserStats, error) {
	user, err := s.db.GetAccountById(userId)
	if err != nil {
		return UserStats{}, fmt.Errorf("get account: %w", err)
	}

	total, err := s.db.CountSwipesBySwiper(userId, "")
	if err != nil {
		return UserStats{}, fmt.Errorf("count swipes: %w", err)
	}
	right, err := s.db.CountSwipesBySwiper(userId, DirectionRight)
	if err != nil {
		return UserStats{}, fmt.Errorf("count right swipes: %w", err)
	}
	matchCount, err := s.db.CountMatchesForUser(userId)
	if err != nil {
		return UserStats{}, fmt.Errorf("count matches: %w", err)
	}

	return UserStats{
		TotalSwipes:       total,
		RightSwipes:       right,
		LeftSwipes:        total - right,
		Matches:           matchCount,
		ProfileCompletion: profileCompletion(user),
	}, nil
}

func profileCompletion(u database.User) int {
	fields := []bool{
		len(u.Subjects) > 0,
		len(u.Availability) > 0,
		u.Bio != "",
		len(u.StudyHabits) > 0,
		len(u.Interests) > 0,
		u.AcademicLevel != "",
		u.StudyLocation != "",
		u.PreferredStudyTime != "",
	}

	completed := lo.Count(fields, true)
	return completed * 100 / len(fields)
}
