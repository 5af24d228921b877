package cache

// Key identifies one block of one blob. Blobs are immutable, so a
// (Name, Size) pair is enough to detect that a name was republished.
type Key struct {
	Name  string
	Size  int64
	Block int64
}
