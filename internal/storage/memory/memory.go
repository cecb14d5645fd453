// Package memory provides an in-memory storage implementation used by
// unit tests. A single mutex stands in for the database's transaction
// boundaries, so the multi-step operations stay atomic here too.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"review-hub/internal/models"
	"review-hub/internal/storage"
)

// Store implements every repository interface over maps.
type Store struct {
	mu sync.Mutex

	users    map[uint]*models.User
	requests map[uint]*models.ReviewRequest
	comments map[uint]*models.ReviewComment
	answers  map[uint]*models.ReviewAnswer

	nextUserID    uint
	nextRequestID uint
	nextCommentID uint
	nextAnswerID  uint
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:         make(map[uint]*models.User),
		requests:      make(map[uint]*models.ReviewRequest),
		comments:      make(map[uint]*models.ReviewComment),
		answers:       make(map[uint]*models.ReviewAnswer),
		nextUserID:    1,
		nextRequestID: 1,
		nextCommentID: 1,
		nextAnswerID:  1,
	}
}

var (
	_ storage.UserRepository    = (*Store)(nil)
	_ storage.RequestRepository = requestView{}
	_ storage.CommentRepository = commentView{}
	_ storage.AnswerRepository  = answerView{}
)

func copyUser(u *models.User) *models.User {
	out := *u
	out.Languages = append([]string(nil), u.Languages...)
	return &out
}

// Create stores a new user.
func (s *Store) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return storage.ErrUserExists
		}
	}

	user.ID = s.nextUserID
	s.nextUserID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = copyUser(user)
	return nil
}

// GetByID retrieves a user by ID.
func (s *Store) GetByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyUser(user), nil
}

// GetByUsername retrieves a user by username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListReviewers returns a page of reviewers, optionally narrowed to one
// language, sorted the same way the SQL implementation sorts.
func (s *Store) ListReviewers(ctx context.Context, opts storage.ListOptions) ([]models.ReviewerSummary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reviewers []models.ReviewerSummary
	for _, user := range s.users {
		if user.Role != models.RoleReviewer {
			continue
		}
		if opts.Language != "" && !user.QualifiedIn(opts.Language) {
			continue
		}
		reviewers = append(reviewers, models.ReviewerSummary{
			ID:              user.ID,
			Username:        user.Username,
			Nickname:        user.Nickname,
			Languages:       append([]string(nil), user.Languages...),
			AnswerCount:     user.AnswerCount,
			EvaluationCount: user.EvaluationCount,
			Average:         user.Average(),
		})
	}

	sort.Slice(reviewers, func(i, j int) bool {
		a, b := reviewers[i], reviewers[j]
		var less, equal bool
		switch opts.SortBy {
		case "answerCount":
			less, equal = a.AnswerCount < b.AnswerCount, a.AnswerCount == b.AnswerCount
		default:
			less, equal = a.Average < b.Average, a.Average == b.Average
		}
		if equal {
			return a.ID < b.ID
		}
		if opts.Ascending {
			return less
		}
		return !less
	})

	return page(reviewers, opts), len(reviewers), nil
}

// CreateRequest stores a new review request.
func (s *Store) CreateRequest(ctx context.Context, request *models.ReviewRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request.ID = s.nextRequestID
	s.nextRequestID++
	now := time.Now()
	request.Status = models.StatusUnsolved
	request.CreatedAt = now
	request.UpdatedAt = now
	stored := *request
	s.requests[request.ID] = &stored
	return nil
}

// GetRequest retrieves a request by ID.
func (s *Store) GetRequest(ctx context.Context, id uint) (*models.ReviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *request
	return &out, nil
}

// GetDetail retrieves a request together with its answer and comments.
func (s *Store) GetDetail(ctx context.Context, id uint) (*models.RequestDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	detail := &models.RequestDetail{
		ReviewRequest: *request,
		Comments:      []models.CommentWithUser{},
	}
	if requester, ok := s.users[request.RequesterID]; ok {
		detail.RequesterName = requester.Username
		detail.RequesterNickname = requester.Nickname
	}

	for _, answer := range s.answers {
		if answer.RequestID != id {
			continue
		}
		withUser := &models.AnswerWithUser{ReviewAnswer: *answer}
		if reviewer, ok := s.users[answer.ReviewerID]; ok {
			withUser.ReviewerName = reviewer.Username
			withUser.ReviewerNickname = reviewer.Nickname
		}
		detail.Answer = withUser
		break
	}

	detail.Comments = s.commentsFor(id)
	return detail, nil
}

// UpdateContent updates a request's title and content.
func (s *Store) UpdateContent(ctx context.Context, id uint, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return storage.ErrNotFound
	}
	request.Title = title
	request.Content = content
	request.UpdatedAt = time.Now()
	return nil
}

// UpdateReviewer swaps the request's assigned reviewer.
func (s *Store) UpdateReviewer(ctx context.Context, id, reviewerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[id]
	if !ok {
		return storage.ErrNotFound
	}
	request.ReviewerID = reviewerID
	request.UpdatedAt = time.Now()
	return nil
}

// Delete removes a request and everything attached to it.
func (s *Store) Delete(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.requests, id)
	for commentID, comment := range s.comments {
		if comment.RequestID == id {
			delete(s.comments, commentID)
		}
	}
	for answerID, answer := range s.answers {
		if answer.RequestID == id {
			delete(s.answers, answerID)
		}
	}
	return nil
}

// List returns a page of request summaries.
func (s *Store) List(ctx context.Context, opts storage.ListOptions) ([]models.RequestSummary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var summaries []models.RequestSummary
	for _, request := range s.requests {
		if opts.Query != "" && !strings.Contains(strings.ToLower(request.Title), strings.ToLower(opts.Query)) {
			continue
		}
		if opts.Language != "" && request.Language != opts.Language {
			continue
		}
		summary := models.RequestSummary{ReviewRequest: *request}
		if requester, ok := s.users[request.RequesterID]; ok {
			summary.RequesterName = requester.Username
			summary.RequesterNickname = requester.Nickname
		}
		for _, comment := range s.comments {
			if comment.RequestID == request.ID {
				summary.CommentCount++
			}
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		var less, equal bool
		switch opts.SortBy {
		case "title":
			less, equal = a.Title < b.Title, a.Title == b.Title
		default:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			return a.ID < b.ID
		}
		if opts.Ascending {
			return less
		}
		return !less
	})

	return page(summaries, opts), len(summaries), nil
}

// Interface adapters: RequestRepository names collide with UserRepository
// names, so the request methods above carry distinct names and this
// wrapper exposes the interface-shaped set.

// Requests returns the store viewed as a RequestRepository.
func (s *Store) Requests() storage.RequestRepository { return requestView{s} }

type requestView struct{ *Store }

func (v requestView) Create(ctx context.Context, request *models.ReviewRequest) error {
	return v.CreateRequest(ctx, request)
}

func (v requestView) GetByID(ctx context.Context, id uint) (*models.ReviewRequest, error) {
	return v.GetRequest(ctx, id)
}

// CreateComment appends a comment to a request's thread.
func (s *Store) CreateComment(ctx context.Context, comment *models.ReviewComment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[comment.RequestID]; !ok {
		return storage.ErrNotFound
	}
	comment.ID = s.nextCommentID
	s.nextCommentID++
	comment.CreatedAt = time.Now()
	stored := *comment
	s.comments[comment.ID] = &stored
	return nil
}

// ListByRequest returns the comment thread in insertion order.
func (s *Store) ListByRequest(ctx context.Context, requestID uint) ([]models.CommentWithUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentsFor(requestID), nil
}

func (s *Store) commentsFor(requestID uint) []models.CommentWithUser {
	out := []models.CommentWithUser{}
	for _, comment := range s.comments {
		if comment.RequestID != requestID {
			continue
		}
		withUser := models.CommentWithUser{ReviewComment: *comment}
		if author, ok := s.users[comment.AuthorID]; ok {
			withUser.AuthorName = author.Username
			withUser.AuthorNickname = author.Nickname
		}
		out = append(out, withUser)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Comments returns the store viewed as a CommentRepository.
func (s *Store) Comments() storage.CommentRepository { return commentView{s} }

type commentView struct{ *Store }

func (v commentView) Create(ctx context.Context, comment *models.ReviewComment) error {
	return v.CreateComment(ctx, comment)
}

// CreateAnswer attaches an answer to a request and updates the request
// status and the reviewer's answer count together.
func (s *Store) CreateAnswer(ctx context.Context, answer *models.ReviewAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, ok := s.requests[answer.RequestID]
	if !ok {
		return storage.ErrNotFound
	}
	for _, existing := range s.answers {
		if existing.RequestID == answer.RequestID {
			return storage.ErrAnswerExists
		}
	}

	answer.ID = s.nextAnswerID
	s.nextAnswerID++
	now := time.Now()
	answer.CreatedAt = now
	answer.UpdatedAt = now
	stored := *answer
	s.answers[answer.ID] = &stored

	request.Status = models.StatusAnswered
	request.UpdatedAt = now
	if reviewer, ok := s.users[answer.ReviewerID]; ok {
		reviewer.AnswerCount++
		reviewer.UpdatedAt = now
	}
	return nil
}

// GetAnswer retrieves an answer by ID.
func (s *Store) GetAnswer(ctx context.Context, id uint) (*models.ReviewAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.answers[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := *answer
	return &out, nil
}

// GetByRequestID retrieves the answer attached to a request.
func (s *Store) GetByRequestID(ctx context.Context, requestID uint) (*models.ReviewAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, answer := range s.answers {
		if answer.RequestID == requestID {
			out := *answer
			return &out, nil
		}
	}
	return nil, storage.ErrNotFound
}

// UpdateAnswerContent updates an answer's content.
func (s *Store) UpdateAnswerContent(ctx context.Context, id uint, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.answers[id]
	if !ok {
		return storage.ErrNotFound
	}
	answer.Content = content
	answer.UpdatedAt = time.Now()
	return nil
}

// Evaluate fixes the answer's point and folds it into the reviewer's
// aggregate under the store lock.
func (s *Store) Evaluate(ctx context.Context, answerID, reviewerID uint, point float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.answers[answerID]
	if !ok {
		return storage.ErrNotFound
	}
	if answer.Point != nil {
		return storage.ErrAlreadyEvaluated
	}

	now := time.Now()
	p := point
	answer.Point = &p
	answer.UpdatedAt = now

	if reviewer, ok := s.users[reviewerID]; ok {
		reviewer.EvaluationTotal += point
		reviewer.EvaluationCount++
		reviewer.UpdatedAt = now
	}
	return nil
}

// ListByReviewer returns a page of a reviewer's answers.
func (s *Store) ListByReviewer(ctx context.Context, reviewerID uint, opts storage.ListOptions) ([]models.AnswerWithUser, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var answers []models.AnswerWithUser
	for _, answer := range s.answers {
		if answer.ReviewerID != reviewerID {
			continue
		}
		withUser := models.AnswerWithUser{ReviewAnswer: *answer}
		if reviewer, ok := s.users[reviewerID]; ok {
			withUser.ReviewerName = reviewer.Username
			withUser.ReviewerNickname = reviewer.Nickname
		}
		answers = append(answers, withUser)
	}

	sort.Slice(answers, func(i, j int) bool {
		a, b := answers[i], answers[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		if opts.Ascending {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return page(answers, opts), len(answers), nil
}

// Answers returns the store viewed as an AnswerRepository.
func (s *Store) Answers() storage.AnswerRepository { return answerView{s} }

type answerView struct{ *Store }

func (v answerView) Create(ctx context.Context, answer *models.ReviewAnswer) error {
	return v.CreateAnswer(ctx, answer)
}

func (v answerView) GetByID(ctx context.Context, id uint) (*models.ReviewAnswer, error) {
	return v.GetAnswer(ctx, id)
}

func (v answerView) UpdateContent(ctx context.Context, id uint, content string) error {
	return v.UpdateAnswerContent(ctx, id, content)
}

func page[T any](items []T, opts storage.ListOptions) []T {
	if opts.Limit <= 0 {
		return items
	}
	if opts.Offset >= len(items) {
		return []T{}
	}
	end := opts.Offset + opts.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[opts.Offset:end]
}
