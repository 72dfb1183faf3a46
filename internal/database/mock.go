package database

import (
	"github.com/stretchr/testify/mock"
)

type MockSynapsoRepository struct {
	mock.Mock
}

func (m *MockSynapsoRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockSynapsoRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSynapsoRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSynapsoRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSynapsoRepository) UpdateProfile(params UpdateProfileParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockSynapsoRepository) DeleteAccount(accountId int) error {
	args := m.Called(accountId)
	return args.Error(0)
}
func (m *MockSynapsoRepository) ListAccountsExcluding(excludeIds []int, limit int) ([]User, error) {
	args := m.Called(excludeIds, limit)
	return args.Get(0).([]User), args.Error(1)
}
func (m *MockSynapsoRepository) GetSwipe(swiperId, swipeeId int) (Swipe, error) {
	args := m.Called(swiperId, swipeeId)
	return args.Get(0).(Swipe), args.Error(1)
}
func (m *MockSynapsoRepository) CreateSwipe(params CreateSwipeParams) (Swipe, error) {
	args := m.Called(params)
	return args.Get(0).(Swipe), args.Error(1)
}
func (m *MockSynapsoRepository) UpdateSwipeDirection(swipeId int, direction string) (Swipe, error) {
	args := m.Called(swipeId, direction)
	return args.Get(0).(Swipe), args.Error(1)
}
func (m *MockSynapsoRepository) ListSwipesBySwiper(swiperId int) ([]Swipe, error) {
	args := m.Called(swiperId)
	return args.Get(0).([]Swipe), args.Error(1)
}
func (m *MockSynapsoRepository) CountSwipesBySwiper(swiperId int, direction string) (int, error) {
	args := m.Called(swiperId, direction)
	return args.Int(0), args.Error(1)
}
func (m *MockSynapsoRepository) GetMatchByUsers(userAId, userBId int) (Match, error) {
	args := m.Called(userAId, userBId)
	return args.Get(0).(Match), args.Error(1)
}
func (m *MockSynapsoRepository) GetMatchByExternalId(externalId string) (Match, error) {
	args := m.Called(externalId)
	return args.Get(0).(Match), args.Error(1)
}
func (m *MockSynapsoRepository) CreateMatch(params CreateMatchParams) (Match, error) {
	args := m.Called(params)
	return args.Get(0).(Match), args.Error(1)
}
func (m *MockSynapsoRepository) ListMatchesForUser(userId int) ([]Match, error) {
	args := m.Called(userId)
	return args.Get(0).([]Match), args.Error(1)
}
func (m *MockSynapsoRepository) CountMatchesForUser(userId int) (int, error) {
	args := m.Called(userId)
	return args.Int(0), args.Error(1)
}
func (m *MockSynapsoRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockSynapsoRepository) ListMessagesForMatch(matchId int) ([]Message, error) {
	args := m.Called(matchId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockSynapsoRepository) GetLastMessageForMatch(matchId int) (Message, error) {
	args := m.Called(matchId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockSynapsoRepository) CountUnreadMessages(matchId, receiverId int) (int, error) {
	args := m.Called(matchId, receiverId)
	return args.Int(0), args.Error(1)
}
func (m *MockSynapsoRepository) MarkMessagesRead(matchId, receiverId int) error {
	args := m.Called(matchId, receiverId)
	return args.Error(0)
}
