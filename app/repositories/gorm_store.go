package repositories

import (
	"errors"
	"fmt"

	"inkpost/app/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on a relational database through GORM. The
// schema carries unique indexes on users.email and posts.title and foreign
// keys from posts and comments to their owners.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps db and migrates the schema.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	s := &GormStore{db: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the users, posts and comments tables.
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func (s *GormStore) Update(fn func(tx Tx) error) error {
	return translateError(s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	}))
}

func (s *GormStore) View(fn func(tx Tx) error) error {
	return translateError(s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	}))
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver errors onto the package sentinels. Errors that
// already wrap a sentinel pass through unchanged.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%v: %w", err, ErrDuplicate)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%v: %w", err, ErrInvalidReference)
	}
	return err
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Users() UserRepository {
	return &GormUserRepository{db: t.db}
}

func (t *gormTx) Posts() PostRepository {
	return &GormPostRepository{db: t.db}
}

func (t *gormTx) Comments() CommentRepository {
	return &GormCommentRepository{db: t.db}
}

func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var n int64
	if err := db.Model(model).Where(query, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// GormUserRepository implements UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

func (r *GormUserRepository) Create(user *models.User) error {
	user.BeforeCreate()
	taken, err := exists(r.db, &models.User{}, "email = ?", user.Email)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
	}
	return translateError(r.db.Omit(clause.Associations).Create(user).Error)
}

func (r *GormUserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *GormUserRepository) Count() (int, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return int(n), err
}

// GormPostRepository implements PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

func (r *GormPostRepository) checkAuthor(authorID int) error {
	ok, err := exists(r.db, &models.User{}, "id = ?", authorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("author %d: %w", authorID, ErrInvalidReference)
	}
	return nil
}

func (r *GormPostRepository) Create(post *models.Post) error {
	if err := r.checkAuthor(post.AuthorID); err != nil {
		return err
	}
	taken, err := exists(r.db, &models.Post{}, "title = ?", post.Title)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("title %q: %w", post.Title, ErrDuplicate)
	}
	return translateError(r.db.Omit(clause.Associations).Create(post).Error)
}

func (r *GormPostRepository) GetByID(id int) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *GormPostRepository) GetByTitle(title string) (*models.Post, error) {
	var post models.Post
	if err := r.db.Where("title = ?", title).First(&post).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (r *GormPostRepository) List() ([]*models.Post, error) {
	var posts []*models.Post
	if err := r.db.Order("id asc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *GormPostRepository) Update(post *models.Post) error {
	if _, err := r.GetByID(post.ID); err != nil {
		return err
	}
	if err := r.checkAuthor(post.AuthorID); err != nil {
		return err
	}
	taken, err := exists(r.db, &models.Post{}, "title = ? AND id <> ?", post.Title, post.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("title %q: %w", post.Title, ErrDuplicate)
	}
	err = r.db.Model(post).
		Select("Title", "Subtitle", "Body", "ImgURL", "AuthorID").
		Updates(post).Error
	return translateError(err)
}

func (r *GormPostRepository) Delete(id int) error {
	if _, err := r.GetByID(id); err != nil {
		return err
	}
	if err := r.db.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
		return translateError(err)
	}
	res := r.db.Delete(&models.Post{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormPostRepository) Count() (int, error) {
	var n int64
	err := r.db.Model(&models.Post{}).Count(&n).Error
	return int(n), err
}

// GormCommentRepository implements CommentRepository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

func (r *GormCommentRepository) Create(comment *models.Comment) error {
	ok, err := exists(r.db, &models.User{}, "id = ?", comment.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("author %d: %w", comment.AuthorID, ErrInvalidReference)
	}
	ok, err = exists(r.db, &models.Post{}, "id = ?", comment.PostID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post %d: %w", comment.PostID, ErrInvalidReference)
	}
	return translateError(r.db.Omit(clause.Associations).Create(comment).Error)
}

func (r *GormCommentRepository) ListByPost(postID int) ([]*models.Comment, error) {
	var comments []*models.Comment
	if err := r.db.Where("post_id = ?", postID).Order("id asc").Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *GormCommentRepository) Count() (int, error) {
	var n int64
	err := r.db.Model(&models.Comment{}).Count(&n).Error
	return int(n), err
}
