package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apierrors "github.com/inkvault/backend/internal/errors"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/storage"
	"github.com/inkvault/backend/internal/util"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func postResponses(posts []models.Post) []models.PostResponse {
	return lo.Map(posts, func(p models.Post, _ int) models.PostResponse {
		return p.ToResponse()
	})
}

// SearchPosts filters by text, tags and author
// GET /api/posts?query=&tags=&author=&sort=&page=&limit=
func (h *Handlers) SearchPosts(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 20)
	page := util.ParseInt(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	q := repository.PostQuery{
		Text: strings.TrimSpace(c.Query("query")),
		Tags: util.ParseTags(c.Query("tags")),
		Sort: repository.ParsePostSort(c.Query("sort")),
		Page: repository.Page{Limit: limit, Skip: (page - 1) * limit}.Normalize(),
	}

	if author := c.Query("author"); author != "" {
		profile, err := h.profiles.GetByUsername(c.Request.Context(), author)
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"posts": []models.PostResponse{}})
			return
		}
		if err != nil {
			util.RespondWithError(c, err, "profile")
			return
		}
		q.AuthorID = profile.ID
	}

	posts, err := h.posts.Search(c.Request.Context(), q)
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// GetLatestPosts pages newest-first
// GET /api/posts/latest?amount=&displacement=
func (h *Handlers) GetLatestPosts(c *gin.Context) {
	posts, err := h.posts.GetLatest(c.Request.Context(), util.ParsePage(c, "amount", "displacement"))
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// GetPopularPosts orders by like count
// GET /api/posts/popular?tags=&limit=&skip=
func (h *Handlers) GetPopularPosts(c *gin.Context) {
	posts, err := h.posts.GetPopular(c.Request.Context(), util.ParseTags(c.Query("tags")), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// GetPremiumPosts lists posts by premium authors
// GET /api/posts/premium?limit=&skip=
func (h *Handlers) GetPremiumPosts(c *gin.Context) {
	posts, err := h.posts.GetPremium(c.Request.Context(), util.ParsePage(c, "limit", "skip"))
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// GetRandomPosts samples posts, optionally within tags
// GET /api/posts/random?tags=&limit=
func (h *Handlers) GetRandomPosts(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 10)
	posts, err := h.posts.GetRandom(c.Request.Context(), util.ParseTags(c.Query("tags")), limit)
	if err != nil {
		util.RespondWithError(c, err, "posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": postResponses(posts)})
}

// GetPost reads one post through the cache
// GET /api/posts/id/:id
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.posts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, post.ToResponse())
}

// GetPostByShortID resolves a shareable link
// GET /api/posts/by/:username/:short_id
func (h *Handlers) GetPostByShortID(c *gin.Context) {
	post, err := h.posts.GetByShortID(c.Request.Context(), c.Param("username"), c.Param("short_id"))
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, post.ToResponse())
}

// CreatePost publishes a post with optional attachments
// POST /api/posts/new (multipart: title, body, tags, post_type, nsfw, files)
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			util.RespondWithAPIError(c, apierrors.PayloadTooLarge(h.maxUploadBytes))
			return
		}
		util.RespondBadRequest(c, "expected a multipart form")
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		util.RespondValidationError(c, "title", "title is required")
		return
	}
	files := form.File["files"]
	if len(files) > 0 && h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.InternalError("uploads are not configured").WithStatus(http.StatusServiceUnavailable))
		return
	}

	author, err := h.profiles.GetByID(c.Request.Context(), userID)
	if err != nil {
		util.RespondWithError(c, err, "profile")
		return
	}

	post := &models.Post{
		ID:        uuid.NewString(),
		Author:    author.Username,
		AuthorID:  author.ID,
		Title:     title,
		Tags:      models.StringList(util.ParseTags(c.PostForm("tags"))),
		PostType:  models.PostType(c.DefaultPostForm("post_type", string(models.PostTypeGeneric))),
		NSFW:      util.ParseBool(c.PostForm("nsfw"), false),
		Likes:     models.StringSet{},
		Dislikes:  models.StringSet{},
		CreatedAt: time.Now().UTC(),
	}
	if body := c.PostForm("body"); body != "" {
		post.Body = &body
	}

	for _, fh := range files {
		media, err := h.uploadPostFile(c, post.ID, fh)
		if err != nil {
			h.discardPostMedia(c, post)
			util.RespondWithError(c, err, "media")
			return
		}
		media.IsNSFW = &post.NSFW
		post.Media = append(post.Media, *media)
	}

	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		h.discardPostMedia(c, post)
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusCreated, post.ToResponse())
}

func (h *Handlers) uploadPostFile(c *gin.Context, postID string, fh *multipart.FileHeader) (*models.Media, error) {
	data, err := readUpload(fh)
	if err != nil {
		return nil, err
	}
	res, err := h.uploader.UploadPostAsset(c.Request.Context(), postID, fh.Filename, data)
	if err != nil {
		return nil, err
	}
	return &models.Media{
		URL:         res.URL,
		Filename:    path.Base(res.Key),
		ContentType: res.ContentType,
		SizeBytes:   res.Size,
		UploadedAt:  time.Now().UTC(),
	}, nil
}

// discardPostMedia deletes attachments of a post that was never stored
func (h *Handlers) discardPostMedia(c *gin.Context, post *models.Post) {
	for _, m := range post.Media {
		key := fmt.Sprintf("postassets/%s/%s", post.ID, m.Filename)
		if err := h.uploader.DeleteFile(c.Request.Context(), key); err != nil {
			logger.Log.Warn("Failed to delete orphaned upload", zap.String("key", key), zap.Error(err))
		}
	}
}

// readUpload reads one multipart file, refusing anything above the video limit
func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > storage.MaxVideoSizeBytes {
		return nil, storage.ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, storage.MaxVideoSizeBytes+1))
}

// EditPost applies an author patch
// PATCH /api/posts/edit/:id
func (h *Handlers) EditPost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	var patch models.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		util.RespondValidationError(c, "title", "title cannot be empty")
		return
	}

	post, err := h.posts.Edit(c.Request.Context(), c.Param("id"), userID, patch)
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, post.ToResponse())
}

// DeletePost removes the caller's own post
// DELETE /api/posts/delete/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.posts.DeleteOwned(c.Request.Context(), c.Param("id"), userID); err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.Status(http.StatusNoContent)
}

// LikePost toggles the caller's like
// POST /api/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	liked, err := h.posts.ToggleLike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// DislikePost toggles the caller's dislike
// POST /api/posts/:id/dislike
func (h *Handlers) DislikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	disliked, err := h.posts.ToggleDislike(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondWithError(c, err, "post")
		return
	}
	c.JSON(http.StatusOK, gin.H{"disliked": disliked})
}
