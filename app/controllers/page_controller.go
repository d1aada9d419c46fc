package controllers

import (
	"net/http"

	"inkpost/app/auth"
	"inkpost/app/views"
)

// PageController serves the static informational pages
type PageController struct {
	base
}

// NewPageController creates a new PageController
func NewPageController(manager *auth.Manager, renderer *views.Renderer) *PageController {
	return &PageController{base: base{auth: manager, views: renderer}}
}

// About renders the about page
func (c *PageController) About(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, views.PageAbout, c.page(w, r, "About"))
}

// Contact renders the contact page
func (c *PageController) Contact(w http.ResponseWriter, r *http.Request) {
	c.render(w, r, http.StatusOK, views.PageContact, c.page(w, r, "Contact"))
}
