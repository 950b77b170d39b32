package content

import (
	"sort"

	"github.com/google/uuid"
)

// ChapterTree is an id-keyed adjacency view over the chapters of one material.
type ChapterTree struct {
	byID     map[uuid.UUID]*Chapter
	children map[uuid.UUID][]*Chapter
	roots    []*Chapter
}

// NewChapterTree indexes chapters by id and by parent. Siblings are sorted by Order.
func NewChapterTree(chapters []*Chapter) *ChapterTree {
	t := &ChapterTree{
		byID:     make(map[uuid.UUID]*Chapter, len(chapters)),
		children: make(map[uuid.UUID][]*Chapter),
	}
	for _, c := range chapters {
		if c == nil {
			continue
		}
		t.byID[c.ID] = c
	}
	for _, c := range t.byID {
		if c.ParentChapterID == nil {
			t.roots = append(t.roots, c)
			continue
		}
		t.children[*c.ParentChapterID] = append(t.children[*c.ParentChapterID], c)
	}
	sortByOrder(t.roots)
	for id := range t.children {
		sortByOrder(t.children[id])
	}
	return t
}

func sortByOrder(cs []*Chapter) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Order < cs[j].Order })
}

func (t *ChapterTree) Get(id uuid.UUID) (*Chapter, bool) {
	c, ok := t.byID[id]
	return c, ok
}

func (t *ChapterTree) Roots() []*Chapter { return t.roots }

func (t *ChapterTree) Children(id uuid.UUID) []*Chapter { return t.children[id] }

// Walk visits chapters depth-first in sibling order, pre-order.
func (t *ChapterTree) Walk(fn func(c *Chapter, depth int)) {
	var visit func(cs []*Chapter, depth int)
	visit = func(cs []*Chapter, depth int) {
		for _, c := range cs {
			fn(c, depth)
			visit(t.children[c.ID], depth+1)
		}
	}
	visit(t.roots, 0)
}

// Descendants returns every chapter below id, depth-first, excluding id itself.
func (t *ChapterTree) Descendants(id uuid.UUID) []*Chapter {
	var out []*Chapter
	var visit func(pid uuid.UUID)
	visit = func(pid uuid.UUID) {
		for _, c := range t.children[pid] {
			out = append(out, c)
			visit(c.ID)
		}
	}
	visit(id)
	return out
}

// IsDescendant reports whether candidate lies strictly below ancestor.
func (t *ChapterTree) IsDescendant(ancestor, candidate uuid.UUID) bool {
	cur, ok := t.byID[candidate]
	for hops := 0; ok && cur.ParentChapterID != nil && hops <= len(t.byID); hops++ {
		if *cur.ParentChapterID == ancestor {
			return true
		}
		cur, ok = t.byID[*cur.ParentChapterID]
	}
	return false
}

// Path returns the chain root→id inclusive. A broken chain returns what could be resolved.
func (t *ChapterTree) Path(id uuid.UUID) []*Chapter {
	var rev []*Chapter
	cur, ok := t.byID[id]
	for ok && len(rev) <= len(t.byID) {
		rev = append(rev, cur)
		if cur.ParentChapterID == nil {
			break
		}
		cur, ok = t.byID[*cur.ParentChapterID]
	}
	out := make([]*Chapter, len(rev))
	for i := range rev {
		out[len(rev)-1-i] = rev[i]
	}
	return out
}

// Relevel recomputes Level for id and its descendants from the parent's level.
// It returns the chapters whose level changed.
func (t *ChapterTree) Relevel(id uuid.UUID) []*Chapter {
	c, ok := t.byID[id]
	if !ok {
		return nil
	}
	want := 0
	if c.ParentChapterID != nil {
		if p, ok := t.byID[*c.ParentChapterID]; ok {
			want = p.Level + 1
		}
	}
	var changed []*Chapter
	var apply func(ch *Chapter, level int)
	apply = func(ch *Chapter, level int) {
		if ch.Level != level {
			ch.Level = level
			changed = append(changed, ch)
		}
		for _, kid := range t.children[ch.ID] {
			apply(kid, level+1)
		}
	}
	apply(c, want)
	return changed
}
