package knowledge

import "time"

// PatternType classifies what kind of solved problem an entry records.
type PatternType string

const (
	TypeBugfix       PatternType = "bugfix"
	TypeBestPractice PatternType = "best_practice"
	TypeOptimization PatternType = "optimization"
	TypeSetup        PatternType = "setup"
	TypeArchitecture PatternType = "architecture"
)

// PatternTypes lists all valid pattern types.
var PatternTypes = []PatternType{TypeBugfix, TypeBestPractice, TypeOptimization, TypeSetup, TypeArchitecture}

func (p PatternType) Valid() bool {
	for _, t := range PatternTypes {
		if p == t {
			return true
		}
	}
	return false
}

// Status is an entry's lifecycle state.
type Status string

const (
	StatusActive     Status = "active"
	StatusCanonical  Status = "canonical"
	StatusArchived   Status = "archived"
	StatusSuperseded Status = "superseded"
)

// Statuses lists all valid entry statuses.
var Statuses = []Status{StatusActive, StatusCanonical, StatusArchived, StatusSuperseded}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// SourceType records how an entry was created.
type SourceType string

const (
	SourceSession SourceType = "session"
	SourceDirect  SourceType = "direct"
	SourceSeeded  SourceType = "seeded"
)

// SourceTypes lists all valid source types.
var SourceTypes = []SourceType{SourceSession, SourceDirect, SourceSeeded}

func (s SourceType) Valid() bool {
	for _, st := range SourceTypes {
		if s == st {
			return true
		}
	}
	return false
}

// Entry is a single solved-problem record. ID, ProblemPattern, Solution,
// CodeExample, SourceSession, SourceType and CreatedAt are write-once; the
// rest is mutable through Store.Update.
type Entry struct {
	ID string `json:"id"`

	ProblemPattern string `json:"problem_pattern"`
	Solution       string `json:"solution"`
	CodeExample    string `json:"code_example,omitempty"`

	Tags        []string    `json:"tags"`
	PatternType PatternType `json:"pattern_type"`

	QualityScore float64 `json:"quality_score"`
	TimesApplied int     `json:"times_applied"`
	SuccessCount int     `json:"success_count"`
	FailureCount int     `json:"failure_count"`

	Status       Status `json:"status"`
	SupersededBy string `json:"superseded_by,omitempty"`

	SourceSession string     `json:"source_session,omitempty"`
	SourceType    SourceType `json:"source_type"`

	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastAppliedAt *time.Time `json:"last_applied_at,omitempty"`
}

// SearchResult pairs an entry with its similarity score in [0, 1].
type SearchResult struct {
	Entry      Entry   `json:"entry"`
	Similarity float64 `json:"similarity_score"`
}

// TagCount is one (tag, occurrence count) pair.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats summarizes the collection.
type Stats struct {
	TotalEntries    int            `json:"total_entries"`
	EntriesByStatus map[string]int `json:"entries_by_status"`
	EntriesByType   map[string]int `json:"entries_by_type"`
	AvgQualityScore float64        `json:"avg_quality_score"`
	TopTags         []TagCount     `json:"top_tags"`
}

// CreateParams are the caller-supplied fields for Store.Create.
type CreateParams struct {
	ProblemPattern string
	Solution       string
	CodeExample    string
	Tags           []string
	PatternType    PatternType
	QualityScore   *float64
	SourceSession  string
	SourceType     SourceType
}

// ListFilter narrows Store.List results. Zero-valued predicates match
// everything; Tags is a subset match.
type ListFilter struct {
	Status      Status
	PatternType PatternType
	SourceType  SourceType
	Tags        []string
}

// IsZero reports whether no predicate is set.
func (f ListFilter) IsZero() bool {
	return f.Status == "" && f.PatternType == "" && f.SourceType == "" && len(f.Tags) == 0
}

// Matches reports whether the entry satisfies every set predicate.
func (f ListFilter) Matches(e Entry) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.PatternType != "" && e.PatternType != f.PatternType {
		return false
	}
	if f.SourceType != "" && e.SourceType != f.SourceType {
		return false
	}
	for _, want := range f.Tags {
		found := false
		for _, have := range e.Tags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
