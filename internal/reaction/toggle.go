// Package reaction implements the like/dislike toggle shared by posts, comments
// and replies.
package reaction

import "github.com/inkvault/backend/internal/models"

// Toggle flips userID's membership in primary. When userID is newly added it is
// also removed from opposite; the insert always happens first, so a user is never
// counted in both sets. Returns the new state of primary for userID.
func Toggle(primary, opposite *models.StringSet, userID string) bool {
	if primary.Add(userID) {
		opposite.Remove(userID)
		return true
	}
	primary.Remove(userID)
	return false
}

// Like toggles a like. Returns true when the user now likes the entity.
func Like(likes, dislikes *models.StringSet, userID string) bool {
	return Toggle(likes, dislikes, userID)
}

// Dislike toggles a dislike. Returns true when the user now dislikes the entity.
func Dislike(likes, dislikes *models.StringSet, userID string) bool {
	return Toggle(dislikes, likes, userID)
}
