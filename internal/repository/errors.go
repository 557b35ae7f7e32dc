package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row, or a reply inside an
	// aggregate, does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a create collides with an existing key
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrVersionConflict is returned when a conditional replace keeps losing races
	ErrVersionConflict = errors.New("version conflict")
	// ErrInvalidInput is returned for nil or id-less arguments
	ErrInvalidInput = errors.New("invalid input")
)

// translate maps gorm sentinels onto repository sentinels and passes
// everything else through untouched
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}

// Page bounds a list query
type Page struct {
	Limit int
	Skip  int
}

// MaxPageSize caps any list query
const MaxPageSize = 100

// Normalize clamps limit to [1, MaxPageSize] and skip to >= 0
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
	return p
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	return db.Limit(p.Limit).Offset(p.Skip)
}
