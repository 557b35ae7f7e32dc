package handlers

import (
	"context"
	"net/http"

	"github.com/inkvault/backend/internal/models"
)

func (s *HandlersTestSuite) TestReportFlow() {
	_, annToken := s.account("ann")
	_, modToken := s.account("mod", models.RoleModerator)
	post := s.createPost(annToken, "questionable")

	w := s.do(http.MethodPost, "/api/reporting/new", annToken, jsonBody{
		"target_id": post.ID, "report_type": "post", "reason": "spam",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	report := decode[models.Report](s.T(), w)
	s.Equal(models.ReportPending, report.Status)
	s.Equal(models.ReportTypePost, report.Type)

	w = s.do(http.MethodPost, "/api/reporting/new", annToken, jsonBody{"target_id": post.ID, "report_type": "COMMENT"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	w = s.do(http.MethodPost, "/api/reporting/new", annToken, jsonBody{"target_id": "ghost", "report_type": "USER"})
	s.Equal(http.StatusNotFound, w.Code)

	// Only moderators see the queue
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/admin/reports", annToken, nil).Code)

	w = s.do(http.MethodGet, "/api/admin/reports?status=pending", modToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	queue := decode[struct {
		Reports []models.Report `json:"reports"`
	}](s.T(), w).Reports
	s.Require().Len(queue, 1)

	w = s.do(http.MethodPatch, "/api/admin/reports/status/"+report.ID, modToken, jsonBody{"status": "RESOLVED"})
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/admin/reports/fetch/"+report.ID, modToken, nil)
	s.Equal(models.ReportResolved, decode[models.Report](s.T(), w).Status)

	s.Equal(http.StatusNotFound, s.do(http.MethodPatch, "/api/admin/reports/status/ghost", modToken, jsonBody{"status": "RESOLVED"}).Code)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/api/admin/reports?status=lost", modToken, nil).Code)
}

func (s *HandlersTestSuite) TestIsAdmin() {
	_, userToken := s.account("ann")
	_, ownerToken := s.account("root", models.RoleOwner)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/api/admin/is-admin", userToken, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/admin/is-admin", "", nil).Code)

	w := s.do(http.MethodGet, "/api/admin/is-admin", ownerToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"is_admin":true`)
}

func (s *HandlersTestSuite) TestAdminRenameReachesAccount() {
	ann, _ := s.account("ann")
	_, modToken := s.account("mod", models.RoleModerator)

	w := s.do(http.MethodPatch, "/api/admin/profiles/update/"+ann.ID, modToken, jsonBody{"username": "annie", "verified": true})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	user, err := s.users.GetUser(context.Background(), ann.ID)
	s.Require().NoError(err)
	s.Equal("annie", user.Username)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/profile/ann/lookup", "", nil).Code)
	w = s.do(http.MethodGet, "/api/profile/annie/lookup", "", nil)
	s.True(decode[models.PublicProfile](s.T(), w).Verified)
}

func (s *HandlersTestSuite) TestOnlyOwnersChangeRoles() {
	ann, _ := s.account("ann")
	_, modToken := s.account("mod", models.RoleModerator)
	_, ownerToken := s.account("root", models.RoleOwner)

	body := jsonBody{"role": []string{"moderator"}}
	s.Equal(http.StatusForbidden, s.do(http.MethodPatch, "/api/admin/profiles/update/"+ann.ID, modToken, body).Code)

	w := s.do(http.MethodPatch, "/api/admin/profiles/update/"+ann.ID, ownerToken, body)
	s.Require().Equal(http.StatusOK, w.Code)
	updated := decode[models.Profile](s.T(), w)
	s.True(updated.HasRole(models.RoleModerator))
}

func (s *HandlersTestSuite) TestAdminPostUpdateAndAnnouncements() {
	_, annToken := s.account("ann")
	_, modToken := s.account("mod", models.RoleModerator)
	post := s.createPost(annToken, "original")

	w := s.do(http.MethodPatch, "/api/admin/posts/update/"+post.ID, modToken, jsonBody{"title": "moderated", "likes": []string{"a", "b"}})
	s.Require().Equal(http.StatusOK, w.Code)
	updated := decode[models.PostResponse](s.T(), w)
	s.Equal("moderated", updated.Title)
	s.Equal(2, updated.Likes.Len())

	w = s.do(http.MethodGet, "/api/admin/posts", modToken, nil)
	s.Len(decode[postsBody](s.T(), w).Posts, 1)

	w = s.do(http.MethodPost, "/api/admin/announcements/new", modToken, jsonBody{"title": "Maintenance", "body": "Sunday"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/announcements", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "Maintenance")

	w = s.do(http.MethodGet, "/api/admin/users", modToken, nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotContains(w.Body.String(), "password")
}
