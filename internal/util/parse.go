package util

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/repository"
	"github.com/samber/lo"
)

// ParseInt parses a string to an integer, returning defaultValue if parsing fails
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseBool parses a form or query flag, returning defaultValue if parsing fails
func ParseBool(s string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(s); err == nil {
		return val
	}
	return defaultValue
}

// ParseTags splits a comma-separated tag list, trimming blanks and duplicates
func ParseTags(s string) []string {
	if s == "" {
		return []string{}
	}
	tags := lo.FilterMap(strings.Split(s, ","), func(t string, _ int) (string, bool) {
		t = strings.ToLower(strings.TrimSpace(t))
		return t, t != ""
	})
	return lo.Uniq(tags)
}

// ParsePage reads a limit/skip pair from the named query parameters
func ParsePage(c *gin.Context, limitKey, skipKey string) repository.Page {
	return repository.Page{
		Limit: ParseInt(c.Query(limitKey), 20),
		Skip:  ParseInt(c.Query(skipKey), 0),
	}.Normalize()
}
