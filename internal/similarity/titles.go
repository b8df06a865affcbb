package similarity

// TitleIndex maps a title to the first item ID that carries it. Later
// duplicates are shadowed.
type TitleIndex struct {
	ids      map[string]int
	shadowed int
}

// NewTitleIndex indexes titles by position.
func NewTitleIndex(titles []string) *TitleIndex {
	idx := &TitleIndex{ids: make(map[string]int, len(titles))}
	for i, t := range titles {
		if _, dup := idx.ids[t]; dup {
			idx.shadowed++
			continue
		}
		idx.ids[t] = i
	}
	return idx
}

// Lookup returns the canonical ID for title.
func (t *TitleIndex) Lookup(title string) (int, bool) {
	id, ok := t.ids[title]
	return id, ok
}

// Len returns the number of distinct titles.
func (t *TitleIndex) Len() int { return len(t.ids) }

// Shadowed returns how many rows were hidden behind an earlier duplicate.
func (t *TitleIndex) Shadowed() int { return t.shadowed }
