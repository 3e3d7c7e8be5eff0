// Package commit classifies commit messages and derives issue keys and
// labels from them. All functions are pure.
package commit

import (
	"fmt"
	"regexp"

	mapset "github.com/deckarep/golang-set/v2"
)

// Record holds the structured fields extracted from a commit message.
// Valid is false when the message did not match the configured pattern;
// invalid records carry empty fields and are skipped by every aggregation.
type Record struct {
	IssueKey   string
	ProjectKey string
	ChangeType string
	Valid      bool
}

// Classifier matches commit messages against a single configured pattern
// expected to capture (projectKey, issueNumber, changeType).
type Classifier struct {
	pattern *regexp.Regexp
}

// NewClassifier compiles the given commit-message pattern.
func NewClassifier(pattern string) (*Classifier, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile commit pattern: %w", err)
	}

	return &Classifier{pattern: re}, nil
}

// Classify parses a single commit message. A message that does not match
// the pattern yields an invalid Record, never an error.
func (c *Classifier) Classify(message string) Record {
	match := c.pattern.FindStringSubmatch(message)
	if match == nil || len(match) < 4 {
		return Record{}
	}

	return Record{
		IssueKey:   fmt.Sprintf("%s-%s", match[1], match[2]),
		ProjectKey: match[1],
		ChangeType: match[3],
		Valid:      true,
	}
}

// Issues derives the ordered set of issue keys from a list of commit
// messages, deduplicated by first occurrence.
func (c *Classifier) Issues(messages []string) []string {
	issues := make([]string, 0, len(messages))
	seen := mapset.NewSet[string]()

	for _, message := range messages {
		record := c.Classify(message)
		if !record.Valid {
			continue
		}

		if seen.Add(record.IssueKey) {
			issues = append(issues, record.IssueKey)
		}
	}

	return issues
}

// Labels derives repository labels from a list of commit messages: one per
// distinct project key and one per mapped change type, in first-seen order.
// Change types missing from the map contribute nothing.
func (c *Classifier) Labels(messages []string, typeLabels map[string]string) []string {
	labels := make([]string, 0, len(messages))
	seen := mapset.NewSet[string]()

	for _, message := range messages {
		record := c.Classify(message)
		if !record.Valid {
			continue
		}

		if seen.Add(record.ProjectKey) {
			labels = append(labels, record.ProjectKey)
		}

		if label, ok := typeLabels[record.ChangeType]; ok && seen.Add(label) {
			labels = append(labels, label)
		}
	}

	return labels
}
