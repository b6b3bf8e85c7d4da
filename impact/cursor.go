package impact

// Cursor walks a string one rune at a time, tracking both the read head's
// rune index and a re-sliceable window since the last mark —
// the same shape the teacher's bytecode cursor uses.
type Cursor struct {
	content string
	runes   []rune
	pos     int // rune index of the read head
	mark    int // rune index of the last Slice/PeekSlice boundary
}

// NewCursor wraps content for rune-at-a-time scanning.
func NewCursor(content string) *Cursor {
	return &Cursor{content: content, runes: []rune(content)}
}

// Index returns the cursor's current rune-index position.
func (c *Cursor) Index() int { return c.pos }

// Content returns the full string the cursor was built from.
func (c *Cursor) Content() string { return c.content }

// IsEOF reports whether every rune has been consumed.
func (c *Cursor) IsEOF() bool { return c.pos >= len(c.runes) }

// First returns the next unconsumed rune without advancing, or the zero
// rune at end of input.
func (c *Cursor) First() rune {
	if c.IsEOF() {
		return 0
	}
	return c.runes[c.pos]
}

// Next consumes and returns the next rune, or (0, false) at end of input.
func (c *Cursor) Next() (rune, bool) {
	if c.IsEOF() {
		return 0, false
	}
	r := c.runes[c.pos]
	c.pos++
	return r, true
}

// Skip consumes one rune, discarding it.
func (c *Cursor) Skip() { c.Next() }

// SkipN consumes up to n runes.
func (c *Cursor) SkipN(n int) {
	for i := 0; i < n && !c.IsEOF(); i++ {
		c.Skip()
	}
}

// Slice returns the substring consumed since the last Slice call (or
// construction) and moves the mark up to the read head.
func (c *Cursor) Slice() string {
	s := string(c.runes[c.mark:c.pos])
	c.mark = c.pos
	return s
}

// PeekSlice returns the same substring Slice would, without moving the
// mark.
func (c *Cursor) PeekSlice() string {
	return string(c.runes[c.mark:c.pos])
}
