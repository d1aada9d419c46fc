package models

import "errors"

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	return validate.Struct(c)
}

// SetAuthor sets the author and updates the AuthorID
func (c *Comment) SetAuthor(user *User) error {
	if user == nil {
		return errors.New("author cannot be nil")
	}

	c.Author = user
	c.AuthorID = user.ID
	return nil
}

// SetPost sets the parent post
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.PostID = post.ID
	return nil
}
