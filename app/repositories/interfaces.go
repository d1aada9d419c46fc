package repositories

import "inkpost/app/models"

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Count() (int, error)
}

// PostRepository defines the interface for post data access
type PostRepository interface {
	Create(post *models.Post) error
	GetByID(id int) (*models.Post, error)
	GetByTitle(title string) (*models.Post, error)
	List() ([]*models.Post, error)
	Update(post *models.Post) error
	// Delete removes the post and every comment attached to it.
	Delete(id int) error
	Count() (int, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	Create(comment *models.Comment) error
	ListByPost(postID int) ([]*models.Comment, error)
	Count() (int, error)
}

// Tx exposes the repositories bound to a single unit of work.
type Tx interface {
	Users() UserRepository
	Posts() PostRepository
	Comments() CommentRepository
}

// Store runs units of work. Update commits every write made through the Tx
// when fn returns nil and discards all of them otherwise.
type Store interface {
	Update(fn func(tx Tx) error) error
	View(fn func(tx Tx) error) error
	Close() error
}
