package panel

// Side identifies one of the two directory panels.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Other returns the opposite panel.
func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Valid reports whether s is a known panel side.
func (s Side) Valid() bool {
	return s == Left || s == Right
}

// Sides lists both panels in a stable order.
func Sides() []Side {
	return []Side{Left, Right}
}

// Focus is the keyboard cursor position within a panel: either the
// synthetic ".." parent row or a row index into the visible file list.
// Modeling the parent row as its own state keeps the -1 sentinel out of
// index arithmetic.
type Focus struct {
	parent bool
	row    int
}

// FocusParent returns focus on the synthetic parent row.
func FocusParent() Focus {
	return Focus{parent: true}
}

// FocusRow returns focus on the given visible row.
func FocusRow(i int) Focus {
	if i < 0 {
		i = 0
	}
	return Focus{row: i}
}

// IsParent reports whether the parent row is focused.
func (f Focus) IsParent() bool {
	return f.parent
}

// Row returns the focused row index. Only meaningful when IsParent is
// false.
func (f Focus) Row() int {
	return f.row
}

// Index projects the focus to the numeric convention used on the wire:
// -1 for the parent row, otherwise the row index.
func (f Focus) Index() int {
	if f.parent {
		return -1
	}
	return f.row
}
