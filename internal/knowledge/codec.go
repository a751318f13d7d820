package knowledge

import (
	"strconv"
	"strings"
	"time"

	"github.com/ziadkadry99/knowstore/internal/vectordb"
)

// The similarity backend stores flat string metadata. The embedded document
// content is the problem pattern; since that field is write-once the embedding
// is computed exactly once per entry.

func entryToDocument(e Entry) vectordb.Document {
	md := map[string]string{
		"id":             e.ID,
		"solution":       e.Solution,
		"code_example":   e.CodeExample,
		"tags":           strings.Join(e.Tags, ","),
		"pattern_type":   string(e.PatternType),
		"quality_score":  strconv.FormatFloat(e.QualityScore, 'f', -1, 64),
		"times_applied":  strconv.Itoa(e.TimesApplied),
		"success_count":  strconv.Itoa(e.SuccessCount),
		"failure_count":  strconv.Itoa(e.FailureCount),
		"status":         string(e.Status),
		"superseded_by":  e.SupersededBy,
		"source_session": e.SourceSession,
		"source_type":    string(e.SourceType),
		"created_at":     e.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":     e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.LastAppliedAt != nil {
		md["last_applied_at"] = e.LastAppliedAt.UTC().Format(time.RFC3339Nano)
	}

	return vectordb.Document{
		ID:       e.ID,
		Content:  e.ProblemPattern,
		Metadata: md,
	}
}

func documentToEntry(doc vectordb.Document) Entry {
	md := doc.Metadata

	var tags []string
	for _, t := range strings.Split(md["tags"], ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	quality, _ := strconv.ParseFloat(md["quality_score"], 64)
	timesApplied, _ := strconv.Atoi(md["times_applied"])
	successCount, _ := strconv.Atoi(md["success_count"])
	failureCount, _ := strconv.Atoi(md["failure_count"])
	createdAt, _ := time.Parse(time.RFC3339Nano, md["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, md["updated_at"])

	var lastApplied *time.Time
	if s := md["last_applied_at"]; s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			lastApplied = &t
		}
	}

	return Entry{
		ID:             doc.ID,
		ProblemPattern: doc.Content,
		Solution:       md["solution"],
		CodeExample:    md["code_example"],
		Tags:           tags,
		PatternType:    PatternType(md["pattern_type"]),
		QualityScore:   quality,
		TimesApplied:   timesApplied,
		SuccessCount:   successCount,
		FailureCount:   failureCount,
		Status:         Status(md["status"]),
		SupersededBy:   md["superseded_by"],
		SourceSession:  md["source_session"],
		SourceType:     SourceType(md["source_type"]),
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
		LastAppliedAt:  lastApplied,
	}
}
