package versiondb

// SuggestionStatus of a suggestion in the review workflow.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "pending"
	SuggestionApproved SuggestionStatus = "approved"
	SuggestionRejected SuggestionStatus = "rejected"
)

// IssueType categorizes what a reviewer suggestion fixes.
type IssueType string

const (
	IssueLatexSyntax          IssueType = "latex_syntax"
	IssuePhysicsError         IssueType = "physics_error"
	IssueSolutionError        IssueType = "solution_error"
	IssueVariantInconsistency IssueType = "variant_inconsistency"
	IssueFormatting           IssueType = "formatting"
	IssueGrammar              IssueType = "grammar"
	IssueClarity              IssueType = "clarity"
	IssueOther                IssueType = "other"
)

// ParseIssueType maps a raw tag to a known issue type, defaulting to other.
func ParseIssueType(s string) IssueType {
	switch IssueType(s) {
	case IssueLatexSyntax, IssuePhysicsError, IssueSolutionError,
		IssueVariantInconsistency, IssueFormatting, IssueGrammar, IssueClarity:
		return IssueType(s)
	default:
		return IssueOther
	}
}

// Suggestion is a reviewer-proposed edit, as produced by the review agent
// before it is stored and versioned.
type Suggestion struct {
	FilePath         string
	IssueType        IssueType
	Description      string
	Reasoning        string
	Confidence       float64
	OriginalContent  string
	SuggestedContent string
	Diff             string
}

// StoredSuggestion is a versioned suggestion row. Everything except Status
// is immutable after creation.
type StoredSuggestion struct {
	ID               int64
	Version          int
	ProblemID        string
	FilePath         string
	IssueType        IssueType
	Description      string
	Reasoning        string
	Confidence       float64
	OriginalContent  string
	SuggestedContent string
	Diff             string
	Status           SuggestionStatus
	SessionID        *string
	CreatedAt        *string
}

// Session is one interactive review run. Counters hold the orchestrator's
// running totals, overwritten on each update rather than accumulated.
type Session struct {
	ID                string
	StartedAt         *string
	CompletedAt       *string
	ProblemsReviewed  int
	SuggestionsMade   int
	ApprovedCount     int
	RejectedCount     int
	SkippedCount      int
	OutputDir         *string
	RemainingProblems []string
}

// SessionCounts carries running totals for UpdateSession. Nil fields are
// left untouched.
type SessionCounts struct {
	ProblemsReviewed *int
	SuggestionsMade  *int
	ApprovedCount    *int
	RejectedCount    *int
	SkippedCount     *int
}

// CheckStatus of a problem in the QA check workflow.
type CheckStatus string

const (
	CheckPending CheckStatus = "pending"
	CheckChecked CheckStatus = "checked"
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// CheckerStats summarizes one checker type's progress in a directory.
type CheckerStats struct {
	Total  int
	Passed int
	Failed int
}

// ReviewStats aggregates suggestion and session metrics, optionally
// windowed to the last N days.
type ReviewStats struct {
	TotalReviewed    int
	TotalSuggestions int
	ApprovedCount    int
	RejectedCount    int
	PendingCount     int
	SkippedCount     int
	ApprovalRate     float64
	IssuesByType     map[string]int
}
