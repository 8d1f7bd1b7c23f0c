package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sirpyerre/blogkeeper/internal/core/domain"
	"github.com/sirpyerre/blogkeeper/internal/core/ports"
)

// PostHandler serves live posts and their comment threads.
type PostHandler struct {
	content ports.ContentService
	archive ports.ArchiveEngine
}

func NewPostHandler(content ports.ContentService, archive ports.ArchiveEngine) *PostHandler {
	return &PostHandler{content: content, archive: archive}
}

type createPostRequest struct {
	Title    string `json:"title" validate:"required,max=250"`
	Subtitle string `json:"subtitle" validate:"required,max=250"`
	Color    string `json:"color" validate:"omitempty,max=32"`
	ImgURL   string `json:"img_url" validate:"omitempty,url"`
	Body     string `json:"body" validate:"required"`
}

type updatePostRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=250"`
	Subtitle *string `json:"subtitle" validate:"omitempty,max=250"`
	Color    *string `json:"color" validate:"omitempty,max=32"`
	ImgURL   *string `json:"img_url" validate:"omitempty,url"`
	Body     *string `json:"body"`
}

type textRequest struct {
	Body string `json:"body" validate:"required"`
}

// List returns every live post.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200  {array}  domain.Post
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.content.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []*domain.Post{}
	}
	return c.JSON(http.StatusOK, posts)
}

// Get returns a post with its ordered comments and replies.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.Aggregate
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) Get(c echo.Context) error {
	agg, err := h.content.GetAggregate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, agg)
}

// Create publishes a post. Only staff may publish.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPostRequest  true  "Post"
// @Success      201   {object}  domain.Post
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.content.CreatePost(c.Request().Context(), user, ports.PostInput{
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Color:    req.Color,
		ImgURL:   req.ImgURL,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

// Update edits a post's title, subtitle, colour, image or body. Omitted
// fields keep their value.
//
// @Summary      Edit a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Post ID"
// @Param        body  body      updatePostRequest  true  "Changed fields"
// @Success      200   {object}  domain.Post
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/posts/{id} [patch]
func (h *PostHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req updatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.content.UpdatePost(c.Request().Context(), user, c.Param("id"), ports.PostUpdate{
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Color:    req.Color,
		ImgURL:   req.ImgURL,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

// Delete archives a post together with its comments and replies.
//
// @Summary      Archive a post
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  domain.ArchivedAggregate
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      422  {object}  map[string]string
// @Failure      423  {object}  map[string]string
// @Router       /v1/posts/{id} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	agg, err := h.content.GetAggregate(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if !domain.CanManage(user, agg.Post.AuthorID) {
		return domain.ErrUnauthorized
	}

	archived, err := h.archive.Archive(ctx, agg.Post.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, archived)
}

// AddComment appends a comment to a post and notifies the post author.
//
// @Summary      Comment on a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Post ID"
// @Param        body  body      textRequest  true  "Comment"
// @Success      201   {object}  domain.Comment
// @Failure      404   {object}  map[string]string
// @Router       /v1/posts/{id}/comments [post]
func (h *PostHandler) AddComment(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req textRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.content.AddComment(c.Request().Context(), user, c.Param("id"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

// AddReply appends a reply to a comment and notifies the comment author.
//
// @Summary      Reply to a comment
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Comment ID"
// @Param        body  body      textRequest  true  "Reply"
// @Success      201   {object}  domain.Reply
// @Failure      404   {object}  map[string]string
// @Router       /v1/comments/{id}/replies [post]
func (h *PostHandler) AddReply(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req textRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	reply, err := h.content.AddReply(c.Request().Context(), user, c.Param("id"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reply)
}

// DeleteComment removes a comment and its replies.
//
// @Summary      Delete a comment
// @Tags         posts
// @Security     BearerAuth
// @Param        id  path  string  true  "Comment ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/comments/{id} [delete]
func (h *PostHandler) DeleteComment(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.content.DeleteComment(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
