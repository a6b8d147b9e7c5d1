package commenttree

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"syntagma/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func comment(id string, parent string, up, down int64, minute int) model.Comment {
	c := model.Comment{
		ID:        id,
		Username:  "user-" + id,
		Body:      "body " + id,
		Upvotes:   up,
		Downvotes: down,
		CreatedAt: base.Add(time.Duration(minute) * time.Minute),
	}
	if parent != "" {
		p := parent
		c.ParentID = &p
	}
	return c
}

// shape 输出森林结构，便于比较
func shape(forest []*Node) string {
	parts := make([]string, 0, len(forest))
	for _, n := range forest {
		if len(n.Children) == 0 {
			parts = append(parts, n.ID)
			continue
		}
		parts = append(parts, n.ID+"("+shape(n.Children)+")")
	}
	return strings.Join(parts, " ")
}

// randomThread 生成一组一致的评论：父评论总是先创建，深度等于父深度加一，部分父评论缺失
func randomThread(r *rand.Rand, size int) []model.Comment {
	created := make([]model.Comment, 0, size)
	for i := 0; i < size; i++ {
		id := fmt.Sprintf("c%d", i)
		c := comment(id, "", int64(r.Intn(5)), int64(r.Intn(5)), i)
		switch roll := r.Intn(10); {
		case roll < 4 || len(created) == 0:
		case roll == 4:
			missing := fmt.Sprintf("gone%d", i)
			c.ParentID = &missing
			c.Depth = 1 + r.Intn(3)
		default:
			parent := created[r.Intn(len(created))]
			pid := parent.ID
			c.ParentID = &pid
			c.Depth = parent.Depth + 1
		}
		created = append(created, c)
	}
	r.Shuffle(len(created), func(i, j int) { created[i], created[j] = created[j], created[i] })
	return created
}

func TestBuild_LinksChildrenInInputOrder(t *testing.T) {
	flat := []model.Comment{
		comment("a", "", 0, 0, 0),
		comment("b", "a", 0, 0, 1),
		comment("c", "", 0, 0, 2),
		comment("d", "a", 0, 0, 3),
		comment("e", "b", 0, 0, 4),
	}

	forest := Build(flat)
	assert.Equal(t, "a(b(e) d) c", shape(forest))
	assert.Equal(t, 5, Count(forest))
}

func TestBuild_ChildBeforeParentInInput(t *testing.T) {
	flat := []model.Comment{
		comment("child", "parent", 0, 0, 1),
		comment("parent", "", 0, 0, 0),
	}

	forest := Build(flat)
	assert.Equal(t, "parent(child)", shape(forest))
	assert.False(t, forest[0].Children[0].Orphaned)
}

func TestBuild_OrphansBecomeFlaggedRoots(t *testing.T) {
	flat := []model.Comment{
		comment("x", "deleted", 0, 0, 0),
		comment("y", "x", 0, 0, 1),
		comment("z", "", 0, 0, 2),
	}

	forest := Build(flat)
	require.Len(t, forest, 2)
	assert.Equal(t, "x(y) z", shape(forest))
	assert.True(t, forest[0].Orphaned)
	assert.False(t, forest[0].Children[0].Orphaned)
	assert.False(t, forest[1].Orphaned)
}

func TestBuild_BreaksParentCycles(t *testing.T) {
	flat := []model.Comment{
		comment("a", "b", 0, 0, 0),
		comment("b", "a", 0, 0, 1),
		comment("self", "self", 0, 0, 2),
	}

	forest := Build(flat)
	assert.Equal(t, 3, Count(forest))
	assert.Equal(t, "b(a) self", shape(forest))
	for _, n := range forest {
		assert.True(t, n.Orphaned)
	}
}

func TestBuild_ComputesScore(t *testing.T) {
	forest := Build([]model.Comment{
		comment("a", "", 7, 2, 0),
		comment("b", "a", 1, 4, 1),
	})

	assert.EqualValues(t, 5, forest[0].Score)
	assert.EqualValues(t, -3, forest[0].Children[0].Score)
}

func TestBuild_Empty(t *testing.T) {
	forest := Build(nil)
	assert.Empty(t, forest)
	assert.Empty(t, Flatten(forest))
}

func TestBuild_DuplicateIDsCollapse(t *testing.T) {
	stale := comment("b", "a", 0, 0, 1)
	fresh := comment("b", "a", 2, 0, 1)
	forest := Build([]model.Comment{comment("a", "", 0, 0, 0), stale, fresh})

	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, 2, Count(forest))
	assert.Equal(t, int64(2), forest[0].Children[0].Upvotes)
	assert.EqualValues(t, 2, forest[0].Children[0].Score)
}

func TestBuild_DepthMatchesParentChain(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		flat := randomThread(r, 1+r.Intn(40))
		forest := Build(flat)

		require.Equal(t, len(flat), Count(forest))

		var check func(nodes []*Node, depth int)
		check = func(nodes []*Node, depth int) {
			for _, n := range nodes {
				if !n.Orphaned {
					assert.Equal(t, depth, n.Depth, "node %s", n.ID)
					check(n.Children, depth+1)
				} else {
					check(n.Children, n.Depth+1)
				}
			}
		}
		check(forest, 0)
	}
}

func TestBuild_PreservesRelativeOrder(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		flat := randomThread(r, 1+r.Intn(40))
		position := make(map[string]int, len(flat))
		for i, c := range flat {
			position[c.ID] = i
		}

		var check func(nodes []*Node)
		check = func(nodes []*Node) {
			for i := 1; i < len(nodes); i++ {
				assert.Less(t, position[nodes[i-1].ID], position[nodes[i].ID])
			}
			for _, n := range nodes {
				check(n.Children)
			}
		}
		check(Build(flat))
	}
}

func TestFlatten_ParentBeforeChildPermutation(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	for round := 0; round < 50; round++ {
		flat := randomThread(r, 1+r.Intn(40))
		out := Flatten(Build(flat))

		require.Len(t, out, len(flat))
		seen := make(map[string]int, len(out))
		for i, c := range out {
			seen[c.ID] = i
		}
		for _, c := range flat {
			_, ok := seen[c.ID]
			assert.True(t, ok, "missing %s", c.ID)
		}
		for _, c := range out {
			if c.ParentID == nil {
				continue
			}
			if pi, ok := seen[*c.ParentID]; ok {
				assert.Less(t, pi, seen[c.ID])
			}
		}
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(2024))
	for round := 0; round < 50; round++ {
		flat := randomThread(r, 1+r.Intn(40))
		forest := Build(flat)
		assert.Equal(t, shape(forest), shape(Build(Flatten(forest))))
	}
}

func TestFlatten_AppendAndRebuild(t *testing.T) {
	forest := Build([]model.Comment{
		comment("a", "", 0, 0, 0),
		comment("b", "a", 0, 0, 1),
	})

	flat := append(Flatten(forest), comment("c", "b", 0, 0, 2))
	rebuilt := Build(flat)
	assert.Equal(t, "a(b(c))", shape(rebuilt))
}

func TestUpdateAtID_CopiesOnlyPath(t *testing.T) {
	forest := Build([]model.Comment{
		comment("a", "", 1, 0, 0),
		comment("b", "a", 0, 0, 1),
		comment("c", "a", 0, 0, 2),
		comment("d", "", 0, 0, 3),
	})

	updated := UpdateAtID(forest, "b", func(n Node) Node {
		n.Upvotes++
		n.Score = n.Upvotes - n.Downvotes
		return n
	})

	assert.EqualValues(t, 0, forest[0].Children[0].Upvotes, "input must stay untouched")
	assert.EqualValues(t, 1, updated[0].Children[0].Upvotes)
	assert.EqualValues(t, 1, updated[0].Children[0].Score)

	assert.NotSame(t, forest[0], updated[0])
	assert.Same(t, forest[0].Children[1], updated[0].Children[1])
	assert.Same(t, forest[1], updated[1])
}

func TestUpdateAtID_NotFoundReturnsSameForest(t *testing.T) {
	forest := Build([]model.Comment{comment("a", "", 0, 0, 0)})

	calls := 0
	updated := UpdateAtID(forest, "zzz", func(n Node) Node {
		calls++
		return n
	})

	assert.Zero(t, calls)
	require.Len(t, updated, 1)
	assert.Same(t, forest[0], updated[0])
}

func TestFind(t *testing.T) {
	forest := Build([]model.Comment{
		comment("a", "", 0, 0, 0),
		comment("b", "a", 0, 0, 1),
		comment("c", "b", 0, 0, 2),
	})

	found := Find(forest, "c")
	require.NotNil(t, found)
	assert.Equal(t, "c", found.ID)
	assert.Nil(t, Find(forest, "nope"))
}

func TestSort(t *testing.T) {
	forest := Build([]model.Comment{
		comment("old", "", 9, 0, 0),
		comment("new", "", 1, 0, 5),
		comment("mid", "", 4, 0, 2),
		comment("r1", "old", 0, 2, 1),
		comment("r2", "old", 3, 0, 3),
	})

	byDate := Sort(forest, SortByCreatedAt)
	assert.Equal(t, "new mid old(r2 r1)", shape(byDate))

	byScore := Sort(forest, SortByScore)
	assert.Equal(t, "old(r2 r1) mid new", shape(byScore))

	assert.Equal(t, "old(r1 r2) new mid", shape(forest), "input must stay untouched")
}

func TestSort_StableOnTies(t *testing.T) {
	forest := Build([]model.Comment{
		comment("a", "", 1, 0, 0),
		comment("b", "", 1, 0, 1),
		comment("c", "", 1, 0, 2),
	})

	assert.Equal(t, "a b c", shape(Sort(forest, SortByScore)))
}
