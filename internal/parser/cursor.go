package parser

// cursor walks a window [pos, end) of the source. Sub-spans share src so
// error offsets are always relative to the whole input.
type cursor struct {
	src string
	pos int
	end int
}

func newCursor(src string) *cursor {
	return &cursor{src: src, end: len(src)}
}

func (c *cursor) eof() bool {
	return c.pos >= c.end
}

func (c *cursor) rest() string {
	return c.src[c.pos:c.end]
}

func (c *cursor) peek() byte {
	if c.eof() {
		return 0
	}
	return c.src[c.pos]
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isIdent(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// skipSpace consumes whitespace and reports how many bytes it skipped.
func (c *cursor) skipSpace() int {
	start := c.pos
	for !c.eof() && isSpace(c.src[c.pos]) {
		c.pos++
	}
	return c.pos - start
}

// ident consumes [A-Za-z0-9_]+.
func (c *cursor) ident() (string, bool) {
	start := c.pos
	for !c.eof() && isIdent(c.src[c.pos]) {
		c.pos++
	}
	if c.pos == start {
		return "", false
	}
	return c.src[start:c.pos], true
}

// consume advances past b if it is the next byte.
func (c *cursor) consume(b byte) bool {
	if c.peek() != b {
		return false
	}
	c.pos++
	return true
}

// balanced is called just after an opening delimiter has been consumed. It
// scans forward counting nesting depth and returns the inner span up to the
// matching close, leaving c positioned after it. ok is false when the window
// ends at nonzero depth; c is then left unchanged.
func (c *cursor) balanced(open, close byte) (inner cursor, ok bool) {
	depth := 0
	for i := c.pos; i < c.end; i++ {
		switch c.src[i] {
		case open:
			depth++
		case close:
			if depth == 0 {
				inner = cursor{src: c.src, pos: c.pos, end: i}
				c.pos = i + 1
				return inner, true
			}
			depth--
		}
	}
	return cursor{}, false
}
