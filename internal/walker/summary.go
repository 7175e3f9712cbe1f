package walker

import "fmt"

// Operations a Skip can report.
const (
	OpList = "list"
	OpOpen = "open"
	OpRead = "read"
)

// Skip records a node that was not fully archived.
type Skip struct {
	Path string
	Op   string
	Err  error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s %s: %v", s.Op, s.Path, s.Err)
}

// Summary counts what a walk wrote and what it skipped.
type Summary struct {
	Dirs  int
	Files int
	Bytes int64

	// SkippedSubtrees counts directories that could not be listed.
	SkippedSubtrees int

	// FailedFiles counts files that could not be opened, or whose entry was
	// truncated by a read failure.
	FailedFiles int

	Skipped []Skip
}

// Partial reports whether anything was skipped.
func (s Summary) Partial() bool {
	return s.SkippedSubtrees > 0 || s.FailedFiles > 0
}

func (s *Summary) record(skip Skip) {
	if skip.Op == OpList {
		s.SkippedSubtrees++
	} else {
		s.FailedFiles++
	}
	s.Skipped = append(s.Skipped, skip)
}
