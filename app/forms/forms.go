// Package forms decodes and validates the HTML forms the site accepts.
package forms

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Errors maps a form field name to its first error message.
type Errors map[string]string

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[field]
}

// Has reports whether field failed validation.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Add records msg for field unless it already has one.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// RegisterForm is submitted from /register.
type RegisterForm struct {
	Email    string `form:"email" validate:"required,email,max=250"`
	Password string `form:"password" validate:"required"`
	Name     string `form:"name" validate:"required,max=250"`
}

// LoginForm is submitted from /login.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// PostForm is submitted when creating or editing a post.
type PostForm struct {
	Title    string `form:"title" validate:"required,max=250"`
	Subtitle string `form:"subtitle" validate:"required,max=250"`
	ImgURL   string `form:"img_url" validate:"required,url,max=250"`
	Body     string `form:"body" validate:"required"`
}

// CommentForm is submitted from a post page.
type CommentForm struct {
	Comment string `form:"comment" validate:"required"`
}

// ParseRegister reads a RegisterForm from r.
func ParseRegister(r *http.Request) (RegisterForm, error) {
	if err := r.ParseForm(); err != nil {
		return RegisterForm{}, err
	}
	return RegisterForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Name:     strings.TrimSpace(r.PostFormValue("name")),
	}, nil
}

// ParseLogin reads a LoginForm from r.
func ParseLogin(r *http.Request) (LoginForm, error) {
	if err := r.ParseForm(); err != nil {
		return LoginForm{}, err
	}
	return LoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}, nil
}

// ParsePost reads a PostForm from r.
func ParsePost(r *http.Request) (PostForm, error) {
	if err := r.ParseForm(); err != nil {
		return PostForm{}, err
	}
	return PostForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Subtitle: strings.TrimSpace(r.PostFormValue("subtitle")),
		ImgURL:   strings.TrimSpace(r.PostFormValue("img_url")),
		Body:     r.PostFormValue("body"),
	}, nil
}

// ParseComment reads a CommentForm from r.
func ParseComment(r *http.Request) (CommentForm, error) {
	if err := r.ParseForm(); err != nil {
		return CommentForm{}, err
	}
	return CommentForm{Comment: strings.TrimSpace(r.PostFormValue("comment"))}, nil
}

// Validate checks form and returns nil when every field is valid.
func Validate(form interface{}) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{"": err.Error()}
	}

	errs := make(Errors, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "max":
		return "Field cannot be longer than " + fe.Param() + " characters."
	}
	return "Invalid value."
}
