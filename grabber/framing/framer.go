package framing

// Framer decides where one response document ends in a byte stream that
// carries no length prefix. Feed is called with each chunk as it arrives;
// when complete is true, consumed is the number of bytes of chunk that
// belong to the document.
type Framer interface {
	Feed(chunk []byte) (complete bool, consumed int)
	Reset()
}

// BraceFramer tracks the depth of raw '{' and '}' bytes. The document is
// complete when depth returns to zero after the first '{'.
//
// Braces are not masked inside JSON strings. Base64 content cannot contain
// them, but any other string field carrying a literal brace will break
// framing.
type BraceFramer struct {
	depth   int
	started bool
	done    bool
}

func NewBraceFramer() *BraceFramer {
	return &BraceFramer{}
}

func (f *BraceFramer) Feed(chunk []byte) (bool, int) {
	if f.done {
		return true, 0
	}
	for i, b := range chunk {
		switch b {
		case '{':
			f.depth++
			f.started = true
		case '}':
			// stray closers before the object opens are noise
			if !f.started {
				continue
			}
			f.depth--
			if f.depth == 0 {
				f.done = true
				return true, i + 1
			}
		}
	}
	return false, len(chunk)
}

func (f *BraceFramer) Reset() {
	*f = BraceFramer{}
}

// Depth is the current nesting level.
func (f *BraceFramer) Depth() int {
	return f.depth
}
