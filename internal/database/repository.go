package database

type SynapsoRepository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	UpdateProfile(params UpdateProfileParams) (User, error)
	DeleteAccount(accountId int) error
	ListAccountsExcluding(excludeIds []int, limit int) ([]User, error)
	GetSwipe(swiperId, swipeeId int) (Swipe, error)
	CreateSwipe(params CreateSwipeParams) (Swipe, error)
	UpdateSwipeDirection(swipeId int, direction string) (Swipe, error)
	ListSwipesBySwiper(swiperId int) ([]Swipe, error)
	CountSwipesBySwiper(swiperId int, direction string) (int, error)
	GetMatchByUsers(userAId, userBId int) (Match, error)
	GetMatchByExternalId(externalId string) (Match, error)
	CreateMatch(params CreateMatchParams) (Match, error)
	ListMatchesForUser(userId int) ([]Match, error)
	CountMatchesForUser(userId int) (int, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	ListMessagesForMatch(matchId int) ([]Message, error)
	GetLastMessageForMatch(matchId int) (Message, error)
	CountUnreadMessages(matchId, receiverId int) (int, error)
	MarkMessagesRead(matchId, receiverId int) error
}
