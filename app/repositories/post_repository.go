package repositories

import (
	"fmt"

	"inkpost/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerPostRepository implements PostRepository using BadgerDB
type BadgerPostRepository struct {
	txn *badger.Txn
}

func (r *BadgerPostRepository) checkAuthor(authorID int) error {
	ok, err := keyExists(r.txn, userKey(authorID))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("author %d: %w", authorID, ErrInvalidReference)
	}
	return nil
}

// Create creates a new post
func (r *BadgerPostRepository) Create(post *models.Post) error {
	if err := r.checkAuthor(post.AuthorID); err != nil {
		return err
	}

	idx := postTitleKey(post.Title)
	taken, err := keyExists(r.txn, idx)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("title %q: %w", post.Title, ErrDuplicate)
	}

	id, err := getNextID(r.txn, PostSeqKey)
	if err != nil {
		return err
	}
	post.ID = id

	if err := putEntity(r.txn, postKey(id), post); err != nil {
		return err
	}
	return r.txn.Set(idx, encodeID(id))
}

// GetByID retrieves a post by ID
func (r *BadgerPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	if err := getEntity(r.txn, postKey(id), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByTitle retrieves a post through the title index
func (r *BadgerPostRepository) GetByTitle(title string) (*models.Post, error) {
	id, err := getIndex(r.txn, postTitleKey(title))
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// List retrieves every post in id order
func (r *BadgerPostRepository) List() ([]*models.Post, error) {
	var posts []*models.Post
	err := eachValue(r.txn, []byte(PostKeyPrefix), func(_, val []byte) error {
		var post models.Post
		if err := unmarshalEntity(val, &post); err != nil {
			return err
		}
		posts = append(posts, &post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Update updates an existing post, moving the title index when the title changes
func (r *BadgerPostRepository) Update(post *models.Post) error {
	existing, err := r.GetByID(post.ID)
	if err != nil {
		return err
	}
	if err := r.checkAuthor(post.AuthorID); err != nil {
		return err
	}

	if existing.Title != post.Title {
		idx := postTitleKey(post.Title)
		taken, err := keyExists(r.txn, idx)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("title %q: %w", post.Title, ErrDuplicate)
		}
		if err := r.txn.Delete(postTitleKey(existing.Title)); err != nil {
			return err
		}
		if err := r.txn.Set(idx, encodeID(post.ID)); err != nil {
			return err
		}
	}

	return putEntity(r.txn, postKey(post.ID), post)
}

// Delete deletes a post by ID together with its comments
func (r *BadgerPostRepository) Delete(id int) error {
	existing, err := r.GetByID(id)
	if err != nil {
		return err
	}

	var commentKeys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	prefix := commentPostPrefix(id)
	opts.Prefix = prefix
	it := r.txn.NewIterator(opts)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		commentKeys = append(commentKeys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range commentKeys {
		if err := r.txn.Delete(key); err != nil {
			return err
		}
	}
	if err := r.txn.Delete(postTitleKey(existing.Title)); err != nil {
		return err
	}
	return r.txn.Delete(postKey(id))
}

func (r *BadgerPostRepository) Count() (int, error) {
	return countPrefix(r.txn, []byte(PostKeyPrefix))
}
