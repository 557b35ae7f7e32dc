package replytree

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/inkvault/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reply(id string, children ...models.Reply) models.Reply {
	r := models.NewReply("author-"+id, "content "+id)
	r.ID = id
	r.Replies = append(r.Replies, children...)
	return r
}

// C1 has root replies [R1], R1 has child [R2]
func scenarioTree() *Tree {
	return New([]models.Reply{reply("R1", reply("R2"))})
}

func TestScenarioInsertThenLike(t *testing.T) {
	tree := scenarioTree()

	require.True(t, tree.InsertUnder("R2", reply("R3")))
	assert.ElementsMatch(t, []string{"R1", "R2", "R3"}, tree.IDs())

	liked, found := tree.ToggleLike("R3", "userA")
	require.True(t, found)
	assert.True(t, liked)

	r3, ok := tree.Get("R3")
	require.True(t, ok)
	assert.Equal(t, []string{"userA"}, r3.Likes.Slice())

	flat := tree.Flatten()
	require.Len(t, flat, 1)
	require.Len(t, flat[0].Replies, 1)
	require.Len(t, flat[0].Replies[0].Replies, 1)
	assert.Equal(t, "R3", flat[0].Replies[0].Replies[0].ID)
	assert.True(t, flat[0].Replies[0].Replies[0].Likes.Has("userA"))
}

func TestInsertUnderMissingLeavesTreeUnchanged(t *testing.T) {
	tree := New([]models.Reply{reply("A", reply("B"), reply("C")), reply("D")})
	before := tree.Flatten()

	assert.False(t, tree.InsertUnder("nope", reply("X")))
	assert.Equal(t, before, tree.Flatten())
	assert.False(t, tree.Contains("X"))
}

func TestInsertRejectsKnownID(t *testing.T) {
	tree := scenarioTree()
	before := tree.Flatten()

	assert.False(t, tree.InsertUnder("R2", reply("R1")))
	assert.False(t, tree.AppendRoot(reply("R2")))
	assert.Equal(t, before, tree.Flatten())
}

func TestAppendRoot(t *testing.T) {
	tree := scenarioTree()
	require.True(t, tree.AppendRoot(reply("R9")))

	flat := tree.Flatten()
	require.Len(t, flat, 2)
	assert.Equal(t, "R9", flat[1].ID)
	_, hasParent := tree.ParentOf("R9")
	assert.False(t, hasParent)
}

func TestInsertAppendsAsLastChild(t *testing.T) {
	tree := New([]models.Reply{reply("A", reply("B"))})
	require.True(t, tree.InsertUnder("A", reply("C")))

	flat := tree.Flatten()
	require.Len(t, flat[0].Replies, 2)
	assert.Equal(t, "B", flat[0].Replies[0].ID)
	assert.Equal(t, "C", flat[0].Replies[1].ID)

	parent, ok := tree.ParentOf("C")
	require.True(t, ok)
	assert.Equal(t, "A", parent)
}

func TestDepthFirstOrder(t *testing.T) {
	tree := New([]models.Reply{
		reply("A", reply("A1", reply("A1a")), reply("A2")),
		reply("B", reply("B1")),
	})
	assert.Equal(t, []string{"A", "A1", "A1a", "A2", "B", "B1"}, tree.IDs())
}

func TestDuplicateIDFirstDepthFirstMatchWins(t *testing.T) {
	// "dup" appears nested under A and again at the root after A
	tree := New([]models.Reply{reply("A", reply("dup")), reply("dup")})

	require.True(t, tree.InsertUnder("dup", reply("child")))
	flat := tree.Flatten()
	require.Len(t, flat[0].Replies[0].Replies, 1)
	assert.Empty(t, flat[1].Replies)
}

func TestToggleMissing(t *testing.T) {
	tree := scenarioTree()
	_, found := tree.ToggleLike("ghost", "u")
	assert.False(t, found)
	_, found = tree.ToggleDislike("ghost", "u")
	assert.False(t, found)
}

func TestDoubleToggleRestores(t *testing.T) {
	tree := New([]models.Reply{reply("A", reply("B", reply("C")))})
	for _, id := range []string{"A", "B", "C"} {
		before := tree.Flatten()

		liked, found := tree.ToggleLike(id, "u1")
		require.True(t, found)
		assert.True(t, liked)
		liked, _ = tree.ToggleLike(id, "u1")
		assert.False(t, liked)
		assert.Equal(t, before, tree.Flatten())

		disliked, _ := tree.ToggleDislike(id, "u1")
		assert.True(t, disliked)
		disliked, _ = tree.ToggleDislike(id, "u1")
		assert.False(t, disliked)
		assert.Equal(t, before, tree.Flatten())
	}
}

func TestLikeAndDislikeMutuallyExclusive(t *testing.T) {
	tree := New([]models.Reply{reply("A", reply("B")), reply("C")})
	ids := []string{"A", "B", "C"}
	users := []string{"u1", "u2", "u3"}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		id := ids[rng.Intn(len(ids))]
		u := users[rng.Intn(len(users))]
		if rng.Intn(2) == 0 {
			tree.ToggleLike(id, u)
		} else {
			tree.ToggleDislike(id, u)
		}
	}
	for _, id := range ids {
		r, _ := tree.Get(id)
		for _, u := range users {
			assert.False(t, r.Likes.Has(u) && r.Dislikes.Has(u))
		}
	}
}

func TestDislikeAfterLikeMovesUser(t *testing.T) {
	tree := scenarioTree()
	tree.ToggleLike("R2", "u")
	disliked, _ := tree.ToggleDislike("R2", "u")
	assert.True(t, disliked)

	r, _ := tree.Get("R2")
	assert.False(t, r.Likes.Has("u"))
	assert.True(t, r.Dislikes.Has("u"))
}

func TestDeepTreeDoesNotRecurse(t *testing.T) {
	const depth = 20000
	tree := New(nil)
	require.True(t, tree.AppendRoot(reply("n0")))
	for i := 1; i < depth; i++ {
		require.True(t, tree.InsertUnder(idFor(i-1), reply(idFor(i))))
	}
	assert.Equal(t, depth, tree.Len())

	reloaded := New(tree.Flatten())
	assert.Equal(t, depth, reloaded.Len())
	liked, found := reloaded.ToggleLike(idFor(depth-1), "u")
	assert.True(t, found)
	assert.True(t, liked)
}

func idFor(i int) string {
	return "n" + strconv.Itoa(i)
}
