// Package backend is the Inkvault API server: posts with comment threads of
// unbounded depth, profiles, session auth and moderation.
//
// The code is organized into subpackages:
//
// - internal/handlers: HTTP handlers and the route table
// - internal/middleware: sessions, admin guard, rate limiting, logging, metrics, tracing
// - internal/services: posts with the latest window, profiles, comments
// - internal/repository: gorm repositories, including the reply tree aggregate
// - internal/replytree: the in-memory reply tree
// - internal/reaction: like and dislike toggles
// - internal/cache: the dual-key cache over Redis or process memory
// - internal/auth: registration, login, sessions and password resets
// - internal/storage: S3 uploads for post media and profile images
// - internal/email: SES delivery of verification and reset codes
// - internal/tasks: periodic cleanup of expired auth state
// - internal/seed: development fixtures
//
// Binaries live under cmd: server, migrate, seed and cli.
package backend
