package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/cache"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/middleware"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/services"
	"github.com/inkvault/backend/internal/storage"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// MockUploader records uploads instead of talking to S3
type MockUploader struct {
	mu       sync.Mutex
	Uploaded []string
	Deleted  []string
	FailWith error
}

func (m *MockUploader) record(key string, data []byte, contentType string) (*storage.UploadResult, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploaded = append(m.Uploaded, key)
	return &storage.UploadResult{
		Key:         key,
		URL:         "https://cdn.test/" + key,
		Bucket:      "test",
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func (m *MockUploader) UploadPostAsset(_ context.Context, postID, filename string, data []byte) (*storage.UploadResult, error) {
	return m.record(fmt.Sprintf("postassets/%s/%s", postID, filename), data, "image/png")
}

func (m *MockUploader) UploadUserAsset(_ context.Context, username string, kind storage.UserAssetKind, data []byte) (*storage.UploadResult, error) {
	if http.DetectContentType(data) != "image/png" {
		return nil, storage.ErrUnsupportedType
	}
	return m.record(fmt.Sprintf("userassets/%s/%s/avatar.png", username, kind), data, "image/png")
}

func (m *MockUploader) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, key)
	return nil
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

// HandlersTestSuite runs the full route table against sqlite and the
// in-process cache. Sessions come from the auth mock.
type HandlersTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	authSvc  *auth.MockAuthService
	uploader *MockUploader
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := database.OpenInMemory()
	s.Require().NoError(err)
	s.db = db

	backend := cache.NewMemoryStore()
	postRepo := repository.NewPostRepository(db)
	s.profiles = repository.NewProfileRepository(db)
	s.users = repository.NewUserRepository(db)

	postService := services.NewPostService(postRepo, cache.NewPostCache(backend, time.Minute))
	profileService := services.NewProfileService(s.profiles, cache.NewProfileCache(backend, time.Minute))
	commentService := services.NewCommentService(postRepo, repository.NewCommentRepository(db), repository.NewCommentRepliesRepository(db))

	s.authSvc = auth.NewMockAuthService()
	s.uploader = &MockUploader{}

	h := NewHandlers(s.authSvc, postService, profileService, commentService, s.users, repository.NewReportRepository(db))
	h.SetUploader(s.uploader)

	s.router = gin.New()
	h.RegisterRoutes(s.router.Group("/api"), RouteGuards{
		Session: middleware.RequireSession(s.authSvc),
		Admin:   middleware.RequireAdmin(profileService),
	})
}

func (s *HandlersTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// account creates a user with profile and settings and returns a bearer token
func (s *HandlersTestSuite) account(username string, roles ...models.Role) (*models.Profile, string) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        gofakeit.Email(),
		Username:     username,
		PasswordHash: "x",
		Verified:     true,
	}
	profile := models.NewProfile(user)
	if len(roles) > 0 {
		profile.Roles = roles
	}
	s.Require().NoError(s.users.CreateAccount(context.Background(), user, profile, models.DefaultSettings(user.ID)))
	return profile, s.authSvc.AddSession(user.ID)
}

func (s *HandlersTestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) multipart(path, token string, fields map[string]string, fileField, fileName string, file []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, fileName)
		s.Require().NoError(err)
		_, err = part.Write(file)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// createPost publishes a post through the API and returns its response
func (s *HandlersTestSuite) createPost(token, title string) models.PostResponse {
	w := s.multipart("/api/posts/new", token, map[string]string{"title": title, "tags": "ink, sketch"}, "", "", nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[models.PostResponse](s.T(), w)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

type jsonBody map[string]interface{}
