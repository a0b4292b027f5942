package squads

import "time"

// Squad is a collaboration group players can join to learn together.
type Squad struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	IsActive    bool      `json:"isActive"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Message is a chat line posted inside a squad.
type Message struct {
	ID        string    `json:"id"`
	SquadID   string    `json:"squadId"`
	UserID    string    `json:"userId"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
