package scanner

// Mode is the scanner's per-offset behaviour.
type Mode uint8

const (
	// Scanning examines the byte at the cursor as a possible table start.
	Scanning Mode = iota
	// Skipping steps over the interior of an accepted table.
	Skipping
)

func (m Mode) String() string {
	if m == Skipping {
		return "skipping"
	}
	return "scanning"
}

// State is the cursor and skip budget threaded through one scan.
type State struct {
	Mode   Mode
	Cursor int
	Budget int
}

// NewState starts scanning at cursor.
func NewState(cursor int) State {
	return State{Mode: Scanning, Cursor: cursor}
}

// Accept records a table of size bytes starting at the cursor. The cursor then
// skips the table interior and the next examined offset is Cursor+size.
func (s *State) Accept(size int) {
	if size <= 1 {
		return
	}
	s.Mode = Skipping
	s.Budget = size
}

// Advance moves the cursor one byte, spending skip budget if any remains.
func (s *State) Advance() {
	s.Cursor++
	if s.Mode != Skipping {
		return
	}
	s.Budget--
	if s.Budget <= 0 {
		s.Mode = Scanning
		s.Budget = 0
	}
}

// Examining reports whether the byte at the cursor should be tested.
func (s *State) Examining() bool {
	return s.Mode == Scanning
}
