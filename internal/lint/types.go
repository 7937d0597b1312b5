package lint

// Severity indicates the importance level of a source issue.
type Severity int

const (
	// SeverityWarning indicates issues that should be fixed but don't block builds.
	SeverityWarning Severity = iota
	// SeverityError indicates issues that will break or corrupt the conversion output.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue represents a single problem found in a chapter source.
type Issue struct {
	FilePath string   // Path to the chapter file
	Severity Severity // Issue severity level
	Rule     string   // Rule identifier (e.g., "missing-link-target")
	Message  string   // Brief description of the issue
}

// Result contains all issues found while checking the book sources.
type Result struct {
	Issues     []Issue
	FilesTotal int // Total chapter files scanned
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	count := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			count++
		}
	}
	return count
}
