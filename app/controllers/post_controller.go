package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"inkpost/app/auth"
	"inkpost/app/forms"
	"inkpost/app/models"
	"inkpost/app/repositories"
	"inkpost/app/services"
	"inkpost/app/views"
)

const msgTitleTaken = "A post with this title already exists."

// PostController handles HTTP requests for blog posts
type PostController struct {
	base
	posts    *services.PostService
	comments *services.CommentService
}

// NewPostController creates a new PostController
func NewPostController(manager *auth.Manager, renderer *views.Renderer, posts *services.PostService, comments *services.CommentService) *PostController {
	return &PostController{
		base:     base{auth: manager, views: renderer},
		posts:    posts,
		comments: comments,
	}
}

// Index lists every post
func (pc *PostController) Index(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListPosts()
	if err != nil {
		pc.serverError(w, r, err)
		return
	}

	data := pc.page(w, r, "")
	data.Posts = posts
	pc.render(w, r, http.StatusOK, views.PageIndex, data)
}

// Show displays a single post with its comments
func (pc *PostController) Show(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.loadPost(w, r)
	if !ok {
		return
	}
	pc.renderPost(w, r, post, nil, nil)
}

// Comment appends a comment by the signed-in user to the post.
func (pc *PostController) Comment(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.loadPost(w, r)
	if !ok {
		return
	}

	form, err := forms.ParseComment(r)
	if err != nil {
		pc.sendError(w, r, "Failed to parse form", http.StatusBadRequest)
		return
	}
	if errs := forms.Validate(form); errs != nil {
		pc.renderPost(w, r, post, &form, errs)
		return
	}

	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		pc.flashAndRedirect(w, r, FlashLoginRequired, "/login")
		return
	}

	if _, err := pc.comments.AddComment(user, post.ID, form.Comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			pc.sendError(w, r, "Post not found", http.StatusNotFound)
			return
		}
		pc.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// New shows the empty post form and creates the post on POST.
func (pc *PostController) New(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		pc.renderPostForm(w, r, forms.PostForm{}, nil, false)
		return
	}

	form, ok := pc.parsePostForm(w, r, false)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r.Context())

	if _, err := pc.posts.CreatePost(user, postInput(form)); err != nil {
		pc.handlePostError(w, r, form, err, false)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Edit shows the post form prefilled and overwrites the post on POST.
func (pc *PostController) Edit(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.loadPost(w, r)
	if !ok {
		return
	}

	if r.Method != http.MethodPost {
		pc.renderPostForm(w, r, forms.PostForm{
			Title:    post.Title,
			Subtitle: post.Subtitle,
			ImgURL:   post.ImgURL,
			Body:     post.Body,
		}, nil, true)
		return
	}

	form, ok := pc.parsePostForm(w, r, true)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r.Context())

	if _, err := pc.posts.UpdatePost(post.ID, user, postInput(form)); err != nil {
		pc.handlePostError(w, r, form, err, true)
		return
	}
	http.Redirect(w, r, postURL(post.ID), http.StatusSeeOther)
}

// Delete removes the post and its comments
func (pc *PostController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, "Post not found", http.StatusNotFound)
		return
	}

	if err := pc.posts.DeletePost(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			pc.sendError(w, r, "Post not found", http.StatusNotFound)
			return
		}
		pc.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// loadPost fetches the {id} post or writes a 404.
func (pc *PostController) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	id, ok := pathID(r)
	if !ok {
		pc.sendError(w, r, "Post not found", http.StatusNotFound)
		return nil, false
	}

	post, err := pc.posts.GetPost(id)
	if errors.Is(err, repositories.ErrNotFound) {
		pc.sendError(w, r, "Post not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		pc.serverError(w, r, err)
		return nil, false
	}
	return post, true
}

func (pc *PostController) renderPost(w http.ResponseWriter, r *http.Request, post *models.Post, form *forms.CommentForm, errs forms.Errors) {
	data := pc.page(w, r, post.Title)
	data.Post = post
	if form != nil {
		data.Form = *form
	}
	data.Errors = errs
	pc.render(w, r, http.StatusOK, views.PagePost, data)
}

func (pc *PostController) parsePostForm(w http.ResponseWriter, r *http.Request, edit bool) (forms.PostForm, bool) {
	form, err := forms.ParsePost(r)
	if err != nil {
		pc.sendError(w, r, "Failed to parse form", http.StatusBadRequest)
		return form, false
	}
	if errs := forms.Validate(form); errs != nil {
		pc.renderPostForm(w, r, form, errs, edit)
		return form, false
	}
	return form, true
}

func (pc *PostController) handlePostError(w http.ResponseWriter, r *http.Request, form forms.PostForm, err error, edit bool) {
	switch {
	case errors.Is(err, services.ErrTitleTaken):
		pc.renderPostForm(w, r, form, forms.Errors{"title": msgTitleTaken}, edit)
	case errors.Is(err, services.ErrInvalid):
		pc.renderPostForm(w, r, form, forms.Errors{"": "The post could not be saved."}, edit)
	case errors.Is(err, repositories.ErrNotFound):
		pc.sendError(w, r, "Post not found", http.StatusNotFound)
	default:
		pc.serverError(w, r, err)
	}
}

func (pc *PostController) renderPostForm(w http.ResponseWriter, r *http.Request, form forms.PostForm, errs forms.Errors, edit bool) {
	title := "New Post"
	if edit {
		title = "Edit Post"
	}
	data := pc.page(w, r, title)
	data.Form = form
	data.Errors = errs
	data.IsEdit = edit
	pc.render(w, r, http.StatusOK, views.PageMakePost, data)
}

// postResponse is the JSON shape of a post.
type postResponse struct {
	*models.Post
	Author   string            `json:"author"`
	Comments []commentResponse `json:"comments,omitempty"`
}

type commentResponse struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Author string `json:"author"`
}

func newPostResponse(post *models.Post) postResponse {
	resp := postResponse{Post: post}
	if post.Author != nil {
		resp.Author = post.Author.Name
	}
	for _, c := range post.Comments {
		cr := commentResponse{ID: c.ID, Text: c.Text}
		if c.Author != nil {
			cr.Author = c.Author.Name
		}
		resp.Comments = append(resp.Comments, cr)
	}
	return resp
}

// APIIndex returns every post as JSON
func (pc *PostController) APIIndex(w http.ResponseWriter, r *http.Request) {
	posts, err := pc.posts.ListPosts()
	if err != nil {
		pc.serverError(w, r, err)
		return
	}

	resp := make([]postResponse, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, newPostResponse(post))
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{"posts": resp})
}

// APIShow returns one post with its comments as JSON
func (pc *PostController) APIShow(w http.ResponseWriter, r *http.Request) {
	post, ok := pc.loadPost(w, r)
	if !ok {
		return
	}
	pc.sendJSON(w, http.StatusOK, newPostResponse(post))
}

func postInput(form forms.PostForm) services.PostInput {
	return services.PostInput{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		ImgURL:   form.ImgURL,
		Body:     form.Body,
	}
}

func postURL(id int) string {
	return "/post/" + strconv.Itoa(id)
}
