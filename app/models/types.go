package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DateLayout is the human-readable format stored in Post.Date.
const DateLayout = "January 02, 2006"

// User is a registered account. Exactly one user carries IsAdmin.
type User struct {
	ID           int       `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"size:250;uniqueIndex;not null" validate:"required,email,max=250"`
	PasswordHash string    `json:"password_hash" gorm:"column:password;size:250;not null" validate:"required"`
	Name         string    `json:"name" gorm:"size:250;not null" validate:"required,max=250"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false;uniqueIndex:idx_users_single_admin,where:is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Post represents a blog post with comments.
type Post struct {
	ID       int        `json:"id" gorm:"primaryKey"`
	Title    string     `json:"title" gorm:"size:250;uniqueIndex;not null" validate:"required,max=250"`
	Subtitle string     `json:"subtitle" gorm:"size:250;not null" validate:"required,max=250"`
	Date     string     `json:"date" gorm:"size:250;not null" validate:"required"`
	Body     string     `json:"body" gorm:"type:text;not null" validate:"required"`
	ImgURL   string     `json:"img_url" gorm:"column:img_url;size:250;not null" validate:"required,url,max=250"`
	AuthorID int        `json:"author_id" gorm:"not null;index" validate:"required,gt=0"`
	Author   *User      `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" validate:"-"`
	Comments []*Comment `json:"-" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" validate:"-"`
}

// Comment represents a comment on a blog post.
type Comment struct {
	ID       int    `json:"id" gorm:"primaryKey"`
	Text     string `json:"text" gorm:"type:text;not null" validate:"required"`
	AuthorID int    `json:"author_id" gorm:"not null;index" validate:"required,gt=0"`
	PostID   int    `json:"post_id" gorm:"not null;index" validate:"required,gt=0"`
	Author   *User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT" validate:"-"`
}
