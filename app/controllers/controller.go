package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"inkpost/app/auth"
	"inkpost/app/views"

	"github.com/gorilla/mux"
)

// Flash messages shown after a redirect.
const (
	FlashEmailTaken    = "You've already signed up with that email. Please login instead."
	FlashUnknownEmail  = "The email does not exist. Please try again."
	FlashWrongPassword = "Password incorrect. Please try again."
	FlashLoginRequired = "You need to register and be logged in to comment."
)

// base holds what every controller needs to answer a request.
type base struct {
	auth  *auth.Manager
	views *views.Renderer
}

// page prepares template data for the current request.
func (b *base) page(w http.ResponseWriter, r *http.Request, title string) *views.Data {
	user, _ := auth.CurrentUser(r.Context())
	return &views.Data{
		Title:       title,
		CurrentUser: user,
		Flashes:     b.auth.Sessions().Flashes(w, r),
		CSRFToken:   b.auth.CSRFToken(w, r),
		CSRFField:   auth.CSRFFieldName,
	}
}

func (b *base) render(w http.ResponseWriter, r *http.Request, status int, page string, data *views.Data) {
	if err := b.views.Render(w, status, page, data); err != nil {
		log.Printf("controllers: %v", err)
		b.sendError(w, r, "Internal Server Error", http.StatusInternalServerError)
	}
}

// flashAndRedirect queues msg and redirects to target.
func (b *base) flashAndRedirect(w http.ResponseWriter, r *http.Request, msg, target string) {
	if err := b.auth.Sessions().AddFlash(w, r, msg); err != nil {
		log.Printf("controllers: failed to save flash: %v", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (b *base) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("controllers: %s %s: %v", r.Method, r.URL.Path, err)
	b.sendError(w, r, "Internal Server Error", http.StatusInternalServerError)
}

func (b *base) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("controllers: failed to encode response: %v", err)
	}
}

func (b *base) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	if isAPI(r) {
		b.sendJSON(w, status, map[string]string{"error": message})
		return
	}
	http.Error(w, message, status)
}

func isAPI(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/json" || strings.HasPrefix(r.URL.Path, "/api/")
}

// pathID reads the {id} route variable.
func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	return id, err == nil && id > 0
}
