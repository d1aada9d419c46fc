package models

import (
	"errors"
	"time"
)

// Validate checks if the post meets all validation requirements
func (p *Post) Validate() error {
	return validate.Struct(p)
}

// BeforeCreate stamps the publication date. The date never changes afterwards.
func (p *Post) BeforeCreate(now time.Time) {
	if p.Date == "" {
		p.Date = now.Format(DateLayout)
	}
}

// SetAuthor sets the author and updates the AuthorID
func (p *Post) SetAuthor(user *User) error {
	if user == nil {
		return errors.New("author cannot be nil")
	}

	p.Author = user
	p.AuthorID = user.ID
	return nil
}

// AddComment adds a comment to the post
func (p *Post) AddComment(comment *Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	comment.PostID = p.ID
	p.Comments = append(p.Comments, comment)
	return nil
}
