package repositories

import (
	"fmt"

	"inkpost/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerCommentRepository implements CommentRepository using BadgerDB
type BadgerCommentRepository struct {
	txn *badger.Txn
}

// Create creates a new comment. Author and post must both exist.
func (r *BadgerCommentRepository) Create(comment *models.Comment) error {
	ok, err := keyExists(r.txn, userKey(comment.AuthorID))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("author %d: %w", comment.AuthorID, ErrInvalidReference)
	}
	ok, err = keyExists(r.txn, postKey(comment.PostID))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post %d: %w", comment.PostID, ErrInvalidReference)
	}

	id, err := getNextID(r.txn, CommentSeqKey)
	if err != nil {
		return err
	}
	comment.ID = id

	// Save comment with post ID in key for efficient listing
	return putEntity(r.txn, commentKey(comment.PostID, comment.ID), comment)
}

// ListByPost retrieves all comments for a post
func (r *BadgerCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := eachValue(r.txn, commentPostPrefix(postID), func(_, val []byte) error {
		var comment models.Comment
		if err := unmarshalEntity(val, &comment); err != nil {
			return err
		}
		comments = append(comments, &comment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *BadgerCommentRepository) Count() (int, error) {
	return countPrefix(r.txn, []byte(CommentKeyPrefix))
}
