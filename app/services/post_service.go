package services

import (
	"errors"
	"fmt"
	"time"

	"inkpost/app/models"
	"inkpost/app/repositories"
)

// PostInput carries the editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

// PostService handles business logic for blog posts
type PostService struct {
	store repositories.Store
	now   func() time.Time
}

// NewPostService creates a new PostService
func NewPostService(store repositories.Store) *PostService {
	return &PostService{
		store: store,
		now:   time.Now,
	}
}

// WithClock replaces the clock used to date new posts.
func (s *PostService) WithClock(now func() time.Time) *PostService {
	s.now = now
	return s
}

// ListPosts returns every post in id order with its author loaded.
func (s *PostService) ListPosts() ([]*models.Post, error) {
	var posts []*models.Post
	err := s.store.View(func(tx repositories.Tx) error {
		var err error
		posts, err = tx.Posts().List()
		if err != nil {
			return err
		}

		authors := make(map[int]*models.User)
		for _, post := range posts {
			author, err := loadUser(tx, authors, post.AuthorID)
			if err != nil {
				return fmt.Errorf("failed to load author of post %d: %w", post.ID, err)
			}
			post.Author = author
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost retrieves a post by ID with its author and comments
func (s *PostService) GetPost(id int) (*models.Post, error) {
	var post *models.Post
	err := s.store.View(func(tx repositories.Tx) error {
		var err error
		post, err = tx.Posts().GetByID(id)
		if err != nil {
			return err
		}

		authors := make(map[int]*models.User)
		if post.Author, err = loadUser(tx, authors, post.AuthorID); err != nil {
			return fmt.Errorf("failed to load author: %w", err)
		}

		comments, err := tx.Comments().ListByPost(id)
		if err != nil {
			return fmt.Errorf("failed to get comments: %w", err)
		}
		for _, comment := range comments {
			if comment.Author, err = loadUser(tx, authors, comment.AuthorID); err != nil {
				return fmt.Errorf("failed to load author of comment %d: %w", comment.ID, err)
			}
		}
		post.Comments = comments
		return nil
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePost publishes a new post by author, dated today.
func (s *PostService) CreatePost(author *models.User, input PostInput) (*models.Post, error) {
	post := &models.Post{
		Title:    input.Title,
		Subtitle: input.Subtitle,
		ImgURL:   input.ImgURL,
		Body:     input.Body,
	}
	post.BeforeCreate(s.now())
	if err := post.SetAuthor(author); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := post.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	err := s.store.Update(func(tx repositories.Tx) error {
		if err := checkTitleFree(tx, post.Title, 0); err != nil {
			return err
		}
		return tx.Posts().Create(post)
	})
	if err != nil {
		return nil, translatePostError(err)
	}
	return post, nil
}

// UpdatePost overwrites the editable fields of post id. The editor becomes
// the author; the publication date is kept.
func (s *PostService) UpdatePost(id int, editor *models.User, input PostInput) (*models.Post, error) {
	var post *models.Post
	err := s.store.Update(func(tx repositories.Tx) error {
		var err error
		post, err = tx.Posts().GetByID(id)
		if err != nil {
			return err
		}

		post.Title = input.Title
		post.Subtitle = input.Subtitle
		post.ImgURL = input.ImgURL
		post.Body = input.Body
		if err := post.SetAuthor(editor); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := post.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalid, err)
		}

		if err := checkTitleFree(tx, post.Title, post.ID); err != nil {
			return err
		}
		return tx.Posts().Update(post)
	})
	if err != nil {
		return nil, translatePostError(err)
	}
	return post, nil
}

// DeletePost deletes a post and all its comments
func (s *PostService) DeletePost(id int) error {
	return s.store.Update(func(tx repositories.Tx) error {
		return tx.Posts().Delete(id)
	})
}

func checkTitleFree(tx repositories.Tx, title string, except int) error {
	existing, err := tx.Posts().GetByTitle(title)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != except:
		return ErrTitleTaken
	}
	return nil
}

func translatePostError(err error) error {
	switch {
	case errors.Is(err, ErrTitleTaken), errors.Is(err, repositories.ErrDuplicate):
		return ErrTitleTaken
	case errors.Is(err, ErrInvalid), errors.Is(err, repositories.ErrNotFound):
		return err
	}
	return fmt.Errorf("failed to save post: %w", err)
}

func loadUser(tx repositories.Tx, cache map[int]*models.User, id int) (*models.User, error) {
	if user, ok := cache[id]; ok {
		return user, nil
	}
	user, err := tx.Users().GetByID(id)
	if err != nil {
		return nil, err
	}
	cache[id] = user
	return user, nil
}
