package views

import "github.com/isdelr/sample-app/internal/models"

// Sidebar is the user summary shown beside feeds and follow lists.
type Sidebar struct {
	User           models.User
	MicropostCount int
	Following      int
	Followers      int
}

// Feed is a page of microposts. CurrentUserID gets delete buttons on its own posts.
type Feed struct {
	Items         []models.Micropost
	Pager         Pager
	CurrentUserID string
}

type HomeContent struct {
	Sidebar Sidebar
	Feed    Feed
	Draft   string
}

type UsersIndexContent struct {
	Users []models.User
	Pager Pager
}

type ProfileContent struct {
	User           models.User
	Sidebar        Sidebar
	Feed           Feed
	ShowFollowForm bool
	Relationship   *models.Relationship
}

type UserFormContent struct {
	User models.User
	Form models.UserForm
}

type FollowContent struct {
	Heading string
	Sidebar Sidebar
	Users   []models.User
	Pager   Pager
}

type SignInContent struct {
	Email string
}

type AdminStatsContent struct {
	Users          int
	Microposts     int
	HostAvailable  bool
	CPUPercent     float64
	MemUsedPercent float64
	Uptime         string
	Goroutines     int
	FeedClients    int
}
