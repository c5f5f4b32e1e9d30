package domain

import "time"

// Category tags a notification with the event that produced it.
// Free-form string; the constants below cover the events this backend emits.
type Category = string

const (
	CategoryThreadComment Category = "thread_comment"
	CategoryThreadReply   Category = "thread_reply"
	CategorySystem        Category = "system"
)

// Notification is a delivered in-app notification row.
// Created only by the notification worker; mutated only by MarkRead.
type Notification struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationPreference gates delivery channels per user.
// One row per user; created lazily with all channels enabled.
type NotificationPreference struct {
	UserID       int64     `json:"user_id"`
	EmailEnabled bool      `json:"email_enabled"`
	InAppEnabled bool      `json:"in_app_enabled"`
	SMSEnabled   bool      `json:"sms_enabled"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DefaultPreference returns the record a first read materialises.
func DefaultPreference(userID int64) *NotificationPreference {
	return &NotificationPreference{
		UserID:       userID,
		EmailEnabled: true,
		InAppEnabled: true,
		SMSEnabled:   true,
		UpdatedAt:    time.Now().UTC(),
	}
}

// PreferencePatch carries a partial preference update.
// Nil fields are left untouched.
type PreferencePatch struct {
	EmailEnabled *bool `json:"email_enabled,omitempty"`
	InAppEnabled *bool `json:"in_app_enabled,omitempty"`
	SMSEnabled   *bool `json:"sms_enabled,omitempty"`
}

func (p *PreferencePatch) IsEmpty() bool {
	return p.EmailEnabled == nil && p.InAppEnabled == nil && p.SMSEnabled == nil
}

// NotificationJob is the payload placed on the "notifications" queue.
// Immutable once enqueued; the worker resolves preferences at processing time,
// not enqueue time, so a user who disables a channel mid-flight is honoured.
type NotificationJob struct {
	RecipientID int64    `json:"recipient_id"`
	Title       string   `json:"title"`
	Message     string   `json:"message"`
	Category    Category `json:"category"`
}

func (j *NotificationJob) Validate() error {
	if j.RecipientID <= 0 {
		return ErrInvalidRecipient
	}
	if j.Title == "" || len(j.Title) > 255 {
		return ErrInvalidTitle
	}
	if j.Message == "" || len(j.Message) > 4096 {
		return ErrInvalidMessage
	}
	return nil
}

// EmailJob is the payload placed on the "emails" queue.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}

func (j *EmailJob) Validate() error {
	if j.To == "" {
		return ErrInvalidRecipient
	}
	if j.Subject == "" {
		return ErrInvalidTitle
	}
	return nil
}
