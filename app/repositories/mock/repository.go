package mock

import (
	"fmt"
	"sort"
	"sync"

	"inkpost/app/models"
	"inkpost/app/repositories"
)

type state struct {
	users    map[int]models.User
	posts    map[int]models.Post
	comments map[int]models.Comment
	userSeq  int
	postSeq  int
	comSeq   int
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[int]models.User, len(s.users)),
		posts:    make(map[int]models.Post, len(s.posts)),
		comments: make(map[int]models.Comment, len(s.comments)),
		userSeq:  s.userSeq,
		postSeq:  s.postSeq,
		comSeq:   s.comSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.posts {
		c.posts[k] = v
	}
	for k, v := range s.comments {
		c.comments[k] = v
	}
	return c
}

// Store is an in-memory repositories.Store. Update works on a copy of the
// data and swaps it in only when fn succeeds.
type Store struct {
	mutex sync.RWMutex
	data  *state
}

func NewStore() *Store {
	return &Store{data: &state{
		users:    make(map[int]models.User),
		posts:    make(map[int]models.Post),
		comments: make(map[int]models.Comment),
	}}
}

func (m *Store) Update(fn func(tx repositories.Tx) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	work := m.data.clone()
	if err := fn(&tx{data: work}); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (m *Store) View(fn func(tx repositories.Tx) error) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return fn(&tx{data: m.data.clone(), readOnly: true})
}

func (m *Store) Close() error {
	return nil
}

// Clear drops all records and resets the sequences.
func (m *Store) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.data = NewStore().data
}

type tx struct {
	data     *state
	readOnly bool
}

func (t *tx) Users() repositories.UserRepository       { return &UserRepository{t} }
func (t *tx) Posts() repositories.PostRepository       { return &PostRepository{t} }
func (t *tx) Comments() repositories.CommentRepository { return &CommentRepository{t} }

var errReadOnly = fmt.Errorf("write in read-only unit of work")

// UserRepository implementation
type UserRepository struct{ tx *tx }

func (m *UserRepository) Create(user *models.User) error {
	if m.tx.readOnly {
		return errReadOnly
	}
	user.BeforeCreate()
	for _, u := range m.tx.data.users {
		if u.Email == user.Email {
			return fmt.Errorf("email %q: %w", user.Email, repositories.ErrDuplicate)
		}
	}
	m.tx.data.userSeq++
	user.ID = m.tx.data.userSeq
	m.tx.data.users[user.ID] = *user
	return nil
}

func (m *UserRepository) GetByID(id int) (*models.User, error) {
	user, exists := m.tx.data.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &user, nil
}

func (m *UserRepository) GetByEmail(email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	for _, u := range m.tx.data.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *UserRepository) Count() (int, error) {
	return len(m.tx.data.users), nil
}

// PostRepository implementation
type PostRepository struct{ tx *tx }

func (m *PostRepository) titleTaken(title string, except int) bool {
	for id, p := range m.tx.data.posts {
		if p.Title == title && id != except {
			return true
		}
	}
	return false
}

func (m *PostRepository) store(post *models.Post) {
	stored := *post
	stored.Author = nil
	stored.Comments = nil
	m.tx.data.posts[post.ID] = stored
}

func (m *PostRepository) Create(post *models.Post) error {
	if m.tx.readOnly {
		return errReadOnly
	}
	if _, ok := m.tx.data.users[post.AuthorID]; !ok {
		return fmt.Errorf("author %d: %w", post.AuthorID, repositories.ErrInvalidReference)
	}
	if m.titleTaken(post.Title, 0) {
		return fmt.Errorf("title %q: %w", post.Title, repositories.ErrDuplicate)
	}
	m.tx.data.postSeq++
	post.ID = m.tx.data.postSeq
	m.store(post)
	return nil
}

func (m *PostRepository) GetByID(id int) (*models.Post, error) {
	post, exists := m.tx.data.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return &post, nil
}

func (m *PostRepository) GetByTitle(title string) (*models.Post, error) {
	for _, p := range m.tx.data.posts {
		if p.Title == title {
			post := p
			return &post, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *PostRepository) List() ([]*models.Post, error) {
	var posts []*models.Post
	for _, p := range m.tx.data.posts {
		post := p
		posts = append(posts, &post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ID < posts[j].ID
	})
	return posts, nil
}

func (m *PostRepository) Update(post *models.Post) error {
	if m.tx.readOnly {
		return errReadOnly
	}
	if _, exists := m.tx.data.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	if _, ok := m.tx.data.users[post.AuthorID]; !ok {
		return fmt.Errorf("author %d: %w", post.AuthorID, repositories.ErrInvalidReference)
	}
	if m.titleTaken(post.Title, post.ID) {
		return fmt.Errorf("title %q: %w", post.Title, repositories.ErrDuplicate)
	}
	m.store(post)
	return nil
}

func (m *PostRepository) Delete(id int) error {
	if m.tx.readOnly {
		return errReadOnly
	}
	if _, exists := m.tx.data.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	for cid, c := range m.tx.data.comments {
		if c.PostID == id {
			delete(m.tx.data.comments, cid)
		}
	}
	delete(m.tx.data.posts, id)
	return nil
}

func (m *PostRepository) Count() (int, error) {
	return len(m.tx.data.posts), nil
}

// CommentRepository implementation
type CommentRepository struct{ tx *tx }

func (m *CommentRepository) Create(comment *models.Comment) error {
	if m.tx.readOnly {
		return errReadOnly
	}
	if _, ok := m.tx.data.users[comment.AuthorID]; !ok {
		return fmt.Errorf("author %d: %w", comment.AuthorID, repositories.ErrInvalidReference)
	}
	if _, ok := m.tx.data.posts[comment.PostID]; !ok {
		return fmt.Errorf("post %d: %w", comment.PostID, repositories.ErrInvalidReference)
	}
	m.tx.data.comSeq++
	comment.ID = m.tx.data.comSeq
	stored := *comment
	stored.Author = nil
	m.tx.data.comments[comment.ID] = stored
	return nil
}

func (m *CommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	for _, c := range m.tx.data.comments {
		if c.PostID == postID {
			comment := c
			comments = append(comments, &comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func (m *CommentRepository) Count() (int, error) {
	return len(m.tx.data.comments), nil
}
