package controllers

import (
	"errors"
	"log"
	"net/http"

	"inkpost/app/auth"
	"inkpost/app/forms"
	"inkpost/app/services"
	"inkpost/app/views"
)

// AuthController handles registration, login and logout
type AuthController struct {
	base
	users *services.UserService
}

// NewAuthController creates a new AuthController
func NewAuthController(manager *auth.Manager, renderer *views.Renderer, users *services.UserService) *AuthController {
	return &AuthController{
		base:  base{auth: manager, views: renderer},
		users: users,
	}
}

// Register shows the form and creates the account on POST.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		c.render(w, r, http.StatusOK, views.PageRegister, c.page(w, r, "Register"))
		return
	}

	form, err := forms.ParseRegister(r)
	if err != nil {
		c.sendError(w, r, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if errs := forms.Validate(form); errs != nil {
		c.renderRegister(w, r, form, errs)
		return
	}

	user, err := c.users.Register(form.Email, form.Password, form.Name)
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		c.flashAndRedirect(w, r, FlashEmailTaken, "/login")
		return
	case errors.Is(err, services.ErrInvalid):
		c.renderRegister(w, r, form, forms.Errors{"email": "Invalid email address."})
		return
	case err != nil:
		c.serverError(w, r, err)
		return
	}

	if err := c.auth.Login(w, r, user); err != nil {
		c.serverError(w, r, err)
		return
	}
	log.Printf("registered user %d", user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (c *AuthController) renderRegister(w http.ResponseWriter, r *http.Request, form forms.RegisterForm, errs forms.Errors) {
	data := c.page(w, r, "Register")
	form.Password = ""
	data.Form = form
	data.Errors = errs
	c.render(w, r, http.StatusOK, views.PageRegister, data)
}

// Login shows the form and authenticates on POST.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		c.render(w, r, http.StatusOK, views.PageLogin, c.page(w, r, "Login"))
		return
	}

	form, err := forms.ParseLogin(r)
	if err != nil {
		c.sendError(w, r, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if errs := forms.Validate(form); errs != nil {
		data := c.page(w, r, "Login")
		form.Password = ""
		data.Form = form
		data.Errors = errs
		c.render(w, r, http.StatusOK, views.PageLogin, data)
		return
	}

	user, err := c.users.Authenticate(form.Email, form.Password)
	switch {
	case errors.Is(err, services.ErrUnknownEmail):
		c.flashAndRedirect(w, r, FlashUnknownEmail, "/login")
		return
	case errors.Is(err, services.ErrWrongPassword):
		c.flashAndRedirect(w, r, FlashWrongPassword, "/login")
		return
	case err != nil:
		c.serverError(w, r, err)
		return
	}

	if err := c.auth.Login(w, r, user); err != nil {
		c.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the session and returns to the post list.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := c.auth.Logout(w, r); err != nil {
		c.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
