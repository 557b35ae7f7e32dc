package handlers

import (
	"net/http"

	"github.com/inkvault/backend/internal/models"
)

type replyCreated struct {
	CommentID string       `json:"comment_id"`
	Reply     models.Reply `json:"reply"`
}

func (s *HandlersTestSuite) TestCommentThread() {
	_, annToken := s.account("ann")
	_, bobToken := s.account("bob")
	post := s.createPost(annToken, "discuss")

	w := s.do(http.MethodPost, "/api/comment/create/"+post.ID, bobToken, jsonBody{"content": "nice"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	comment := decode[models.Comment](s.T(), w)
	s.Equal("bob", comment.Author)

	w = s.do(http.MethodPost, "/api/comment/reply/"+comment.ID, annToken, jsonBody{"content": "thanks"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	first := decode[replyCreated](s.T(), w)
	s.Equal(comment.ID, first.CommentID)

	// Replying to a reply resolves the owning comment
	w = s.do(http.MethodPost, "/api/comment/reply/"+first.Reply.ID, bobToken, jsonBody{"content": "welcome"})
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal(comment.ID, decode[replyCreated](s.T(), w).CommentID)

	w = s.do(http.MethodGet, "/api/comment/fetch/"+post.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	listed := decode[struct {
		Comments []models.CommentWithReplies `json:"comments"`
	}](s.T(), w).Comments
	s.Require().Len(listed, 1)
	s.True(listed[0].HasReplies)

	w = s.do(http.MethodGet, "/api/comment/reply/"+comment.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	tree := decode[models.CommentReplies](s.T(), w)
	s.Require().Len(tree.Replies, 1)
	s.Require().Len(tree.Replies[0].Replies, 1)
	s.Equal("welcome", tree.Replies[0].Replies[0].Content)

	w = s.do(http.MethodPost, "/api/comment/reply/"+first.Reply.ID+"/like", bobToken, nil)
	s.Equal(map[string]bool{"liked": true}, decode[map[string]bool](s.T(), w))

	w = s.do(http.MethodPost, "/api/comment/reply/missing", bobToken, jsonBody{"content": "lost"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestCommentValidation() {
	_, token := s.account("ann")
	post := s.createPost(token, "quiet")

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/comment/create/"+post.ID, token, jsonBody{}).Code)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodPost, "/api/comment/create/"+post.ID, token, jsonBody{"content": "   "}).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/comment/create/nope", token, jsonBody{"content": "hi"}).Code)
}

func (s *HandlersTestSuite) TestDeleteCommentPermissions() {
	_, annToken := s.account("ann")
	_, bobToken := s.account("bob")
	_, modToken := s.account("mod", models.RoleModerator)
	post := s.createPost(annToken, "moderated")

	create := func() string {
		w := s.do(http.MethodPost, "/api/comment/create/"+post.ID, bobToken, jsonBody{"content": "spam"})
		s.Require().Equal(http.StatusCreated, w.Code)
		return decode[models.Comment](s.T(), w).ID
	}

	id := create()
	s.Equal(http.StatusForbidden, s.do(http.MethodDelete, "/api/comment/"+id, annToken, nil).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/comment/"+id, bobToken, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/comment/reply/"+id, "", nil).Code)

	id = create()
	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/api/comment/"+id, modToken, nil).Code)
}

func (s *HandlersTestSuite) TestCommentToggles() {
	_, token := s.account("ann")
	post := s.createPost(token, "reactions")
	w := s.do(http.MethodPost, "/api/comment/create/"+post.ID, token, jsonBody{"content": "self"})
	id := decode[models.Comment](s.T(), w).ID

	w = s.do(http.MethodPost, "/api/comment/"+id+"/dislike", token, nil)
	s.Equal(map[string]bool{"disliked": true}, decode[map[string]bool](s.T(), w))
	w = s.do(http.MethodPost, "/api/comment/"+id+"/like", token, nil)
	s.Equal(map[string]bool{"liked": true}, decode[map[string]bool](s.T(), w))
}
