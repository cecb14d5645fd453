package models

import (
	"time"
)

// Role distinguishes requesters from reviewers.
type Role string

const (
	RoleRequester Role = "REQUESTER"
	RoleReviewer  Role = "REVIEWER"
)

// RequestStatus is the lifecycle state of a review request.
type RequestStatus string

const (
	StatusUnsolved RequestStatus = "UNSOLVED"
	StatusAnswered RequestStatus = "ANSWERED"
)

// User represents an account in the system. Reviewer-only fields
// (languages, counters, rating) are zero-valued for requesters.
type User struct {
	ID              uint      `json:"id" db:"id"`
	Username        string    `json:"username" db:"username"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Nickname        string    `json:"nickname" db:"nickname"`
	Role            Role      `json:"role" db:"role"`
	Languages       []string  `json:"languages,omitempty" db:"-"`
	AnswerCount     int       `json:"answer_count" db:"answer_count"`
	EvaluationCount int       `json:"evaluation_count" db:"evaluation_count"`
	EvaluationTotal float64   `json:"-" db:"evaluation_total"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Average returns the reviewer's running average score. It is derived
// from the stored total and count so it is exact after every update.
func (u *User) Average() float64 {
	if u.EvaluationCount == 0 {
		return 0
	}
	return u.EvaluationTotal / float64(u.EvaluationCount)
}

// QualifiedIn reports whether the user may review the given language.
func (u *User) QualifiedIn(language string) bool {
	if u.Role != RoleReviewer {
		return false
	}
	for _, l := range u.Languages {
		if l == language {
			return true
		}
	}
	return false
}

// ReviewRequest represents one review ask. The requester reference is
// immutable after creation; the reviewer reference may be swapped until
// an answer exists.
type ReviewRequest struct {
	ID          uint          `json:"id" db:"id"`
	RequesterID uint          `json:"requester_id" db:"requester_id"`
	ReviewerID  uint          `json:"reviewer_id" db:"reviewer_id"`
	Title       string        `json:"title" db:"title"`
	Content     string        `json:"content" db:"content"`
	Language    string        `json:"language" db:"language"`
	Status      RequestStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ReviewComment is a remark attached to a request. Append-only.
type ReviewComment struct {
	ID        uint      `json:"id" db:"id"`
	RequestID uint      `json:"request_id" db:"request_id"`
	AuthorID  uint      `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReviewAnswer is the single answer attached to a request. Point stays
// nil until the requester evaluates it, then it is fixed.
type ReviewAnswer struct {
	ID         uint      `json:"id" db:"id"`
	RequestID  uint      `json:"request_id" db:"request_id"`
	ReviewerID uint      `json:"reviewer_id" db:"reviewer_id"`
	Content    string    `json:"content" db:"content"`
	Point      *float64  `json:"point,omitempty" db:"point"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Evaluated reports whether the answer already carries a score.
func (a *ReviewAnswer) Evaluated() bool {
	return a.Point != nil
}

// RequestSummary is the list-view projection of a request.
type RequestSummary struct {
	ReviewRequest
	RequesterName     string `json:"username"`
	RequesterNickname string `json:"nickname"`
	CommentCount      int    `json:"comment_count"`
}

// RequestDetail includes the answer and the comment thread.
type RequestDetail struct {
	ReviewRequest
	RequesterName     string           `json:"username"`
	RequesterNickname string           `json:"nickname"`
	Answer            *AnswerWithUser  `json:"answer,omitempty"`
	Comments          []CommentWithUser `json:"comments"`
}

// AnswerWithUser is an answer joined with its author's names.
type AnswerWithUser struct {
	ReviewAnswer
	ReviewerName     string `json:"username"`
	ReviewerNickname string `json:"nickname"`
}

// CommentWithUser is a comment joined with its author's names.
type CommentWithUser struct {
	ReviewComment
	AuthorName     string `json:"username"`
	AuthorNickname string `json:"nickname"`
}

// ReviewerSummary is the directory projection of a reviewer with the
// aggregate rating the evaluations folded into.
type ReviewerSummary struct {
	ID              uint     `json:"id"`
	Username        string   `json:"username"`
	Nickname        string   `json:"nickname"`
	Languages       []string `json:"languages"`
	AnswerCount     int      `json:"answer_count"`
	EvaluationCount int      `json:"evaluation_count"`
	Average         float64  `json:"average"`
}
