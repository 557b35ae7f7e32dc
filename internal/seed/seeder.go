// Package seed fills a database with fake accounts, posts and comment threads
// for local development.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/auth"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultPassword is set on every seeded account
const DefaultPassword = "password123"

// Options sizes a seed run
type Options struct {
	Users             int
	PostsPerUser      int
	CommentsPerPost   int
	RepliesPerComment int
	// ReplyDepth caps how deep a reply chain below one comment may go
	ReplyDepth int
}

// DevOptions is what `seed dev` uses
var DevOptions = Options{Users: 25, PostsPerUser: 4, CommentsPerPost: 3, RepliesPerComment: 4, ReplyDepth: 3}

// Summary counts what a run created
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Replies  int
}

// Seeder writes fixtures through the same repositories and services the API uses
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	posts    repository.PostRepository
	comments *services.CommentService
	rng      *rand.Rand
}

// NewSeeder creates a seeder. A zero seed picks one from the clock.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	_ = gofakeit.Seed(seed)

	posts := repository.NewPostRepository(db)
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		posts:    posts,
		comments: services.NewCommentService(posts, repository.NewCommentRepository(db), repository.NewCommentRepliesRepository(db)),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// SeedDev seeds with DevOptions
func (s *Seeder) SeedDev(ctx context.Context) (Summary, error) {
	return s.Seed(ctx, DevOptions)
}

// Seed creates an owner account "admin", opts.Users fake accounts, their posts
// and a comment thread with nested replies under every post
func (s *Seeder) Seed(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary

	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return sum, err
	}

	logger.Log.Info("Creating users...", zap.Int("count", opts.Users))
	profiles, err := s.seedUsers(ctx, opts.Users, hash)
	if err != nil {
		return sum, fmt.Errorf("failed to seed users: %w", err)
	}
	sum.Users = len(profiles)

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(ctx, profiles, opts.PostsPerUser)
	if err != nil {
		return sum, fmt.Errorf("failed to seed posts: %w", err)
	}
	sum.Posts = len(posts)

	logger.Log.Info("Creating comments...")
	for _, post := range posts {
		comments, replies, err := s.seedThread(ctx, post, profiles, opts)
		if err != nil {
			return sum, fmt.Errorf("failed to seed comments for post %s: %w", post.ID, err)
		}
		sum.Comments += comments
		sum.Replies += replies
	}

	logger.Log.Info("Seed complete",
		zap.Int("users", sum.Users),
		zap.Int("posts", sum.Posts),
		zap.Int("comments", sum.Comments),
		zap.Int("replies", sum.Replies))
	return sum, nil
}

// Clean removes every row the application owns (use with caution!)
func (s *Seeder) Clean(ctx context.Context) error {
	all := models.AllModels()
	// reverse dependency order
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", all[i], err)
		}
	}
	logger.Log.Info("Database cleaned")
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, count int, hash string) ([]*models.Profile, error) {
	profiles := make([]*models.Profile, 0, count+1)

	admin, err := s.createAccount(ctx, "admin", "admin@example.com", hash, models.RoleOwner)
	if err != nil {
		return nil, err
	}
	profiles = append(profiles, admin)

	for i := 0; i < count; i++ {
		// suffix keeps fake usernames unique across runs of the generator
		username := fmt.Sprintf("%s%d", sanitizeUsername(gofakeit.Username()), i)
		email := fmt.Sprintf("%s@example.com", strings.ToLower(username))
		profile, err := s.createAccount(ctx, username, email, hash)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	// a few follows so profiles have something to show
	for _, p := range profiles {
		for _, other := range s.pick(profiles, 3) {
			if other.ID == p.ID {
				continue
			}
			p.Following.Add(other.ID)
			other.Followers.Add(p.ID)
		}
	}
	for _, p := range profiles {
		err := s.db.WithContext(ctx).Model(p).Updates(map[string]interface{}{
			"following": p.Following,
			"followers": p.Followers,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to save follows: %w", err)
		}
	}
	return profiles, nil
}

func (s *Seeder) createAccount(ctx context.Context, username, email, hash string, roles ...models.Role) (*models.Profile, error) {
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Verified:     true,
	}
	profile := models.NewProfile(user)
	profile.DisplayName = gofakeit.Name()
	bio := gofakeit.HipsterSentence()
	profile.Bio = &bio
	profile.Verified = len(roles) > 0
	if len(roles) > 0 {
		profile.Roles = roles
	}
	created := gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()).UTC()
	user.CreatedAt = created
	profile.CreatedAt = created

	if err := s.users.CreateAccount(ctx, user, profile, models.DefaultSettings(user.ID)); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return profile, nil
}

func (s *Seeder) seedPosts(ctx context.Context, authors []*models.Profile, perUser int) ([]models.Post, error) {
	tags := []string{"sketch", "ink", "watercolor", "digital", "wip", "portrait", "landscape", "comic"}
	posts := make([]models.Post, 0, len(authors)*perUser)

	for _, author := range authors {
		for i := 0; i < perUser; i++ {
			body := gofakeit.HipsterSentence()
			post := models.Post{
				Author:    author.Username,
				AuthorID:  author.ID,
				Title:     strings.TrimSuffix(gofakeit.HipsterSentence(), "."),
				Body:      &body,
				Tags:      models.StringList(s.pickStrings(tags, 1+s.rng.Intn(3))),
				NSFW:      s.rng.Float32() < 0.05,
				Likes:     models.StringSet{},
				Dislikes:  models.StringSet{},
				Media:     models.MediaList{},
				CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now()).UTC(),
			}
			for _, fan := range s.pick(authors, s.rng.Intn(len(authors)/2+1)) {
				post.Likes.Add(fan.ID)
			}
			if err := s.posts.Create(ctx, &post); err != nil {
				return nil, err
			}
			posts = append(posts, post)
		}
	}
	return posts, nil
}

// seedThread adds comments to a post, then replies that sometimes answer an
// earlier reply so the tree nests
func (s *Seeder) seedThread(ctx context.Context, post models.Post, people []*models.Profile, opts Options) (int, int, error) {
	comments, replies := 0, 0
	for i := 0; i < opts.CommentsPerPost; i++ {
		author := people[s.rng.Intn(len(people))]
		comment, err := s.comments.Create(ctx, post.ID, author.Username, gofakeit.HipsterSentence())
		if err != nil {
			return comments, replies, err
		}
		comments++

		parent, depth := comment.ID, 0
		for j := 0; j < opts.RepliesPerComment; j++ {
			replier := people[s.rng.Intn(len(people))]
			_, reply, err := s.comments.Reply(ctx, parent, replier.Username, gofakeit.HipsterSentence())
			if err != nil {
				return comments, replies, err
			}
			replies++

			// go one level deeper or start again at the comment
			if depth+1 < opts.ReplyDepth && s.rng.Float32() < 0.6 {
				parent, depth = reply.ID, depth+1
			} else {
				parent, depth = comment.ID, 0
			}
		}
	}
	return comments, replies, nil
}

func (s *Seeder) pick(from []*models.Profile, n int) []*models.Profile {
	if n > len(from) {
		n = len(from)
	}
	out := make([]*models.Profile, 0, n)
	for _, i := range s.rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}

func (s *Seeder) pickStrings(from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	out := make([]string, 0, n)
	for _, i := range s.rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}

func sanitizeUsername(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "user"
	}
	if b.Len() > 24 {
		return b.String()[:24]
	}
	return b.String()
}
