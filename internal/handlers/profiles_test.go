package handlers

import (
	"context"
	"net/http"

	"github.com/inkvault/backend/internal/models"
)

func (s *HandlersTestSuite) TestPublicProfileCountsViews() {
	s.account("ann")

	for i := 0; i < 2; i++ {
		s.Require().Equal(http.StatusOK, s.do(http.MethodGet, "/api/profile/ann/public", "", nil).Code)
	}
	w := s.do(http.MethodGet, "/api/profile/ann/lookup", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(2, decode[models.PublicProfile](s.T(), w).Views)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/profile/ghost/public", "", nil).Code)
}

func (s *HandlersTestSuite) TestFollowToggle() {
	ann, annToken := s.account("ann")
	bob, _ := s.account("bob")

	w := s.do(http.MethodPost, "/api/profile/bob/follow", annToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(map[string]bool{"followed": true}, decode[map[string]bool](s.T(), w))

	stored, err := s.profiles.GetByID(context.Background(), bob.ID)
	s.Require().NoError(err)
	s.True(stored.Followers.Has(ann.ID))

	w = s.do(http.MethodPost, "/api/profile/bob/follow", annToken, nil)
	s.Equal(map[string]bool{"followed": false}, decode[map[string]bool](s.T(), w))

	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/api/profile/ann/follow", annToken, nil).Code)
}

func (s *HandlersTestSuite) TestUpdateMyProfile() {
	_, token := s.account("ann")
	name := "Ann the Inker"

	w := s.do(http.MethodPatch, "/api/profile/me", token, models.ProfilePatch{DisplayName: &name})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/profile/me", token, nil)
	s.Equal(name, decode[models.Profile](s.T(), w).DisplayName)
}

func (s *HandlersTestSuite) TestQuickLookup() {
	ann, _ := s.account("ann")
	s.account("bob")

	w := s.do(http.MethodPost, "/api/profile/quicklookup", "", jsonBody{
		"usernames": []string{"bob", "bob", "ghost"},
		"ids":       []string{ann.ID},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	cards := decode[struct {
		Profiles []models.QuickProfile `json:"profiles"`
	}](s.T(), w).Profiles
	s.Len(cards, 2)
}

func (s *HandlersTestSuite) TestUploadProfilePicture() {
	_, token := s.account("ann")

	w := s.multipart("/api/media/me/assets/profile_picture", token, nil, "file", "me.png", pngBytes)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/profile/ann/lookup", "", nil)
	profile := decode[models.PublicProfile](s.T(), w)
	s.Require().NotNil(profile.ProfilePicture)
	s.Equal("https://cdn.test/userassets/ann/profile/avatar.png", *profile.ProfilePicture)

	w = s.multipart("/api/media/me/assets/banner", token, nil, "file", "notes.txt", []byte("plain"))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.multipart("/api/media/me/assets/banner", token, nil, "", "", nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestSettings() {
	_, token := s.account("ann")

	w := s.do(http.MethodGet, "/api/settings", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(20, decode[models.Settings](s.T(), w).PageLength)

	w = s.do(http.MethodPatch, "/api/settings", token, jsonBody{"page_length": 50, "nsfw": true})
	s.Require().Equal(http.StatusOK, w.Code)
	got := decode[models.Settings](s.T(), w)
	s.Equal(50, got.PageLength)
	s.True(got.NSFW)

	w = s.do(http.MethodPatch, "/api/settings", token, jsonBody{"page_length": 500})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}
