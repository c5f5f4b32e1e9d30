package domain_test

import (
	"strings"
	"testing"

	"github.com/forumkit/forumkit/internal/domain"
)

func TestNotificationJob_Validate(t *testing.T) {
	valid := domain.NotificationJob{
		RecipientID: 42,
		Title:       "New comment on thread",
		Message:     "alice commented on a thread you follow",
		Category:    domain.CategoryThreadComment,
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		mutate   func(j *domain.NotificationJob)
		expected error
	}{
		{"zero recipient", func(j *domain.NotificationJob) { j.RecipientID = 0 }, domain.ErrInvalidRecipient},
		{"negative recipient", func(j *domain.NotificationJob) { j.RecipientID = -1 }, domain.ErrInvalidRecipient},
		{"empty title", func(j *domain.NotificationJob) { j.Title = "" }, domain.ErrInvalidTitle},
		{"oversized title", func(j *domain.NotificationJob) { j.Title = strings.Repeat("x", 256) }, domain.ErrInvalidTitle},
		{"empty message", func(j *domain.NotificationJob) { j.Message = "" }, domain.ErrInvalidMessage},
		{"oversized message", func(j *domain.NotificationJob) { j.Message = strings.Repeat("x", 4097) }, domain.ErrInvalidMessage},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job := valid
			tc.mutate(&job)
			if err := job.Validate(); err != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestEmailJob_Validate(t *testing.T) {
	valid := domain.EmailJob{To: "alice@example.com", Subject: "hi", Text: "hello"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noTo := valid
	noTo.To = ""
	if err := noTo.Validate(); err != domain.ErrInvalidRecipient {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}

	noSubject := valid
	noSubject.Subject = ""
	if err := noSubject.Validate(); err != domain.ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestPreferencePatch_IsEmpty(t *testing.T) {
	var patch domain.PreferencePatch
	if !patch.IsEmpty() {
		t.Fatal("expected zero patch to be empty")
	}

	f := false
	patch.SMSEnabled = &f
	if patch.IsEmpty() {
		t.Fatal("expected patch with a field set to be non-empty")
	}
}

func TestDefaultPreference(t *testing.T) {
	p := domain.DefaultPreference(7)
	if p.UserID != 7 {
		t.Fatalf("expected user_id=7, got %d", p.UserID)
	}
	if !p.EmailEnabled || !p.InAppEnabled || !p.SMSEnabled {
		t.Fatal("expected all channels enabled by default")
	}
}
