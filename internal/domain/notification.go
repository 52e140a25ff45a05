package domain

import "time"

type Notification struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	Link      string
	ReadAt    *time.Time
	CreatedAt time.Time
}

func (n Notification) Read() bool { return n.ReadAt != nil }

// Message is the payload fanned out to recipients.
type Message struct {
	Title string
	Body  string
	Link  string
}
