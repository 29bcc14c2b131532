package models

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// Ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Ticket categories and priorities.
var (
	TicketCategories = []string{"technical", "billing", "account", "booking", "property", "general", "complaint"}
	TicketPriorities = []string{"low", "medium", "high", "urgent"}
)

type SupportTicket struct {
	gorm.Model
	TicketNumber string `json:"ticketNumber" gorm:"type:varchar(20);uniqueIndex"`
	UserID       uint   `json:"userID" gorm:"index"`
	Subject      string `json:"subject"`
	Category     string `json:"category" gorm:"type:varchar(20);default:general;index"`
	Priority     string `json:"priority" gorm:"type:varchar(10);default:medium"`
	Status       string `json:"status" gorm:"type:varchar(15);default:open;index"`
	Description  string `json:"description" gorm:"type:text"`

	AssignedToID *uint `json:"assignedToID" gorm:"index"`

	RelatedBookingID  *uint `json:"relatedBookingID,omitempty"`
	RelatedPropertyID *uint `json:"relatedPropertyID,omitempty"`
	RelatedPaymentID  *uint `json:"relatedPaymentID,omitempty"`

	OpenedAt        time.Time  `json:"openedAt"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	FirstResponseAt *time.Time `json:"firstResponseAt,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	LastActivityAt  time.Time  `json:"lastActivityAt"`

	SatisfactionRating   int    `json:"satisfactionRating,omitempty"`
	SatisfactionFeedback string `json:"satisfactionFeedback,omitempty"`

	User       *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	AssignedTo *AdminUser      `json:"-" gorm:"foreignKey:AssignedToID"`
	Messages   []TicketMessage `json:"messages,omitempty" gorm:"foreignKey:TicketID"`
}

// TicketMessage is one entry in a ticket's conversation thread.
type TicketMessage struct {
	gorm.Model
	TicketID   uint   `json:"ticketID" gorm:"index"`
	Sender     string `json:"sender" gorm:"type:varchar(10)"` // user, admin, system
	SenderID   uint   `json:"senderID"`
	Message    string `json:"message" gorm:"type:text"`
	IsInternal bool   `json:"isInternal" gorm:"default:false"`
}

// Assign routes the ticket to an admin and moves it in progress.
func (t *SupportTicket) Assign(adminID uint, now time.Time) {
	t.AssignedToID = &adminID
	t.Status = TicketInProgress
	t.AssignedAt = &now
}

// Resolve marks the ticket resolved. Re-applying it to an already resolved
// ticket is a no-op, so ResolvedAt keeps its original value.
func (t *SupportTicket) Resolve(now time.Time) {
	if t.Status == TicketResolved {
		return
	}
	t.Status = TicketResolved
	t.ResolvedAt = &now
}

// Close marks the ticket closed, once.
func (t *SupportTicket) Close(now time.Time) {
	if t.Status == TicketClosed {
		return
	}
	t.Status = TicketClosed
	t.ClosedAt = &now
}

// RecordResponse stamps the first admin reply for response-time stats.
func (t *SupportTicket) RecordResponse(sender string, now time.Time) {
	if sender == "admin" && t.FirstResponseAt == nil {
		t.FirstResponseAt = &now
	}
	t.LastActivityAt = now
}

// NewTicketNumber generates a reference like TKT550817231.
func NewTicketNumber() string {
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	return fmt.Sprintf("TKT%s%03d", ts[len(ts)-6:], rand.Intn(1000))
}
