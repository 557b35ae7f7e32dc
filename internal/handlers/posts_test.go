package handlers

import (
	"net/http"
	"strings"

	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/storage"
)

type postsBody struct {
	Posts []models.PostResponse `json:"posts"`
}

func (s *HandlersTestSuite) TestCreatePostWithAttachment() {
	_, token := s.account("ann")

	w := s.multipart("/api/posts/new", token, map[string]string{
		"title": "First sketch",
		"body":  "charcoal",
		"tags":  "Ink,ink, charcoal",
		"nsfw":  "true",
	}, "files", "sketch.png", pngBytes)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	post := decode[models.PostResponse](s.T(), w)
	s.Equal("ann", post.Author)
	s.Equal([]string{"ink", "charcoal"}, post.Tags)
	s.True(post.NSFW)
	s.Require().Len(post.Media, 1)
	s.Equal("https://cdn.test/postassets/"+post.ID+"/sketch.png", post.Media[0].URL)
	s.Equal(post.ID[:models.ShortIDLength], post.ShortID)

	w = s.do(http.MethodGet, "/api/posts/by/ann/"+post.ShortID, "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(post.ID, decode[models.PostResponse](s.T(), w).ID)
}

func (s *HandlersTestSuite) TestCreatePostValidation() {
	_, token := s.account("ann")

	w := s.multipart("/api/posts/new", token, map[string]string{"title": "  "}, "", "", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.multipart("/api/posts/new", "", map[string]string{"title": "hi"}, "", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	s.uploader.FailWith = storage.ErrUnsupportedType
	w = s.multipart("/api/posts/new", token, map[string]string{"title": "hi"}, "files", "notes.txt", []byte("x"))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestLatestAndSearch() {
	_, token := s.account("ann")
	first := s.createPost(token, "alpha strokes")
	second := s.createPost(token, "beta washes")

	w := s.do(http.MethodGet, "/api/posts/latest?amount=10&displacement=0", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	latest := decode[postsBody](s.T(), w).Posts
	s.Require().Len(latest, 2)
	s.Equal(second.ID, latest[0].ID)
	s.Equal(first.ID, latest[1].ID)

	w = s.do(http.MethodGet, "/api/posts?query=alpha", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	found := decode[postsBody](s.T(), w).Posts
	s.Require().Len(found, 1)
	s.Equal(first.ID, found[0].ID)

	w = s.do(http.MethodGet, "/api/posts?author=nobody", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Empty(decode[postsBody](s.T(), w).Posts)

	w = s.do(http.MethodGet, "/api/user/ann/posts?tags=sketch", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Len(decode[postsBody](s.T(), w).Posts, 2)
}

func (s *HandlersTestSuite) TestLikeToggles() {
	_, token := s.account("ann")
	post := s.createPost(token, "likeable")
	path := "/api/posts/" + post.ID

	w := s.do(http.MethodPost, path+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(map[string]bool{"liked": true}, decode[map[string]bool](s.T(), w))

	w = s.do(http.MethodPost, path+"/dislike", token, nil)
	s.Equal(map[string]bool{"disliked": true}, decode[map[string]bool](s.T(), w))

	// The dislike removed the like
	w = s.do(http.MethodGet, "/api/posts/id/"+post.ID, "", nil)
	got := decode[models.PostResponse](s.T(), w)
	s.Equal(0, got.Likes.Len())
	s.Equal(1, got.Dislikes.Len())

	w = s.do(http.MethodPost, path+"/dislike", token, nil)
	s.Equal(map[string]bool{"disliked": false}, decode[map[string]bool](s.T(), w))

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/posts/missing/like", token, nil).Code)
}

func (s *HandlersTestSuite) TestEditAndDeleteAreAuthorOnly() {
	_, annToken := s.account("ann")
	_, bobToken := s.account("bob")
	post := s.createPost(annToken, "mine")

	title := "edited"
	w := s.do(http.MethodPatch, "/api/posts/edit/"+post.ID, bobToken, models.PostPatch{Title: &title})
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, "/api/posts/edit/"+post.ID, annToken, models.PostPatch{Title: &title})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("edited", decode[models.PostResponse](s.T(), w).Title)

	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/api/posts/delete/"+post.ID, bobToken, nil).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/posts/delete/"+post.ID, annToken, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/posts/id/"+post.ID, "", nil).Code)
}

func (s *HandlersTestSuite) TestRandomAndPopular() {
	_, token := s.account("ann")
	for i := 0; i < 3; i++ {
		s.createPost(token, strings.Repeat("x", i+1))
	}

	w := s.do(http.MethodGet, "/api/posts/random?limit=2", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode[postsBody](s.T(), w).Posts, 2)

	w = s.do(http.MethodGet, "/api/posts/popular?tags=ink", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode[postsBody](s.T(), w).Posts, 3)
}
