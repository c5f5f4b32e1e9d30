package domain

import "time"

// User is the slice of the user directory the pipeline needs:
// the notification worker resolves recipient addresses through it.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Thread struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id"`
	ThreadID  int64     `json:"thread_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateThreadRequest is the inbound payload for a new thread.
type CreateThreadRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (r *CreateThreadRequest) Validate() error {
	if r.Title == "" || len(r.Title) > 255 {
		return ErrInvalidTitle
	}
	if r.Body == "" || len(r.Body) > 8192 {
		return ErrInvalidBody
	}
	return nil
}

// CreateCommentRequest is the inbound payload for a new comment.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

func (r *CreateCommentRequest) Validate() error {
	if r.Body == "" || len(r.Body) > 8192 {
		return ErrInvalidBody
	}
	return nil
}
