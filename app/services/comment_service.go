package services

import (
	"errors"
	"fmt"

	"inkpost/app/models"
	"inkpost/app/repositories"
)

// CommentService handles business logic for comments
type CommentService struct {
	store repositories.Store
}

// NewCommentService creates a new CommentService
func NewCommentService(store repositories.Store) *CommentService {
	return &CommentService{store: store}
}

// AddComment stores text as a comment by author on post postID. A missing
// post yields repositories.ErrNotFound.
func (s *CommentService) AddComment(author *models.User, postID int, text string) (*models.Comment, error) {
	comment := &models.Comment{Text: text, PostID: postID}
	if err := comment.SetAuthor(author); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := comment.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	err := s.store.Update(func(tx repositories.Tx) error {
		if _, err := tx.Posts().GetByID(postID); err != nil {
			return err
		}
		return tx.Comments().Create(comment)
	})
	if errors.Is(err, repositories.ErrInvalidReference) {
		return nil, fmt.Errorf("comment on post %d: %w", postID, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns the comments of a post in id order.
func (s *CommentService) ListComments(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.store.View(func(tx repositories.Tx) error {
		if _, err := tx.Posts().GetByID(postID); err != nil {
			return err
		}
		var err error
		comments, err = tx.Comments().ListByPost(postID)
		return err
	})
	return comments, err
}

// CountComments returns the number of stored comments.
func (s *CommentService) CountComments() (int, error) {
	var n int
	err := s.store.View(func(tx repositories.Tx) error {
		var err error
		n, err = tx.Comments().Count()
		return err
	})
	return n, err
}
