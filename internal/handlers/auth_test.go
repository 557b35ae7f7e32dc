package handlers

import (
	"net/http"

	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/models"
)

func (s *HandlersTestSuite) TestRegisterMapsErrors() {
	s.authSvc.RegisterFunc = func(req auth.RegisterRequest) error {
		if req.Username == "taken" {
			return auth.ErrUsernameExists
		}
		return nil
	}

	body := jsonBody{"email": "ann@example.com", "username": "ann", "password": "longenough"}
	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/api/user/register", "", body).Code)

	body["username"] = "taken"
	s.Equal(http.StatusConflict, s.do(http.MethodPost, "/api/user/register", "", body).Code)

	body["password"] = "short"
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/user/register", "", body).Code)
}

func (s *HandlersTestSuite) TestLoginAndLogout() {
	ann, _ := s.account("ann")
	s.authSvc.LoginFunc = func(req auth.LoginRequest) (*auth.AuthResponse, error) {
		if req.Password != "correct horse" {
			return nil, auth.ErrInvalidCredentials
		}
		token := s.authSvc.AddSession(ann.ID)
		return &auth.AuthResponse{Token: token, User: models.User{ID: ann.ID, Username: "ann"}}, nil
	}

	w := s.do(http.MethodPost, "/api/user/login", "", jsonBody{"login": "ann", "password": "nope"})
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/user/login", "", jsonBody{"login": "ann", "password": "correct horse"})
	s.Require().Equal(http.StatusOK, w.Code)
	token := decode[auth.AuthResponse](s.T(), w).Token

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/api/user/session", token, nil).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/api/user/logout", token, nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/user/session", token, nil).Code)
}

func (s *HandlersTestSuite) TestVerifyEmail() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/user/verify/bogus", "", nil).Code)
	s.True(s.authSvc.AssertCalled("VerifyEmail"))
}

func (s *HandlersTestSuite) TestPasswordRoutes() {
	_, token := s.account("ann")

	// Unknown emails look the same as known ones
	s.authSvc.RequestPasswordResetFunc = func(string) error { return auth.ErrUserNotFound }
	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/api/user/request_password_reset", "", jsonBody{"email": "x@example.com"}).Code)

	s.authSvc.ResetPasswordFunc = func(_, code, _ string) error {
		if code != "ABCDE" {
			return auth.ErrInvalidCode
		}
		return nil
	}
	body := jsonBody{"email": "x@example.com", "code": "WRONG", "password": "newpassword"}
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/user/reset_password", "", body).Code)
	body["code"] = "ABCDE"
	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/api/user/reset_password", "", body).Code)

	s.authSvc.ChangePasswordFunc = func(_, current, _ string) error {
		if current != "old-password" {
			return auth.ErrInvalidCredentials
		}
		return nil
	}
	change := jsonBody{"current_password": "old-password", "new_password": "new-password"}
	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/api/settings/change_password", token, change).Code)
	change["current_password"] = "guess"
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/settings/change_password", token, change).Code)
}
