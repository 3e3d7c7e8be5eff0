// Package fake implements an in-memory mock of the SCM gateway for testing.
package fake

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/xcaliber/xcaliber-bot/scm"
)

var _ scm.Gateway = new(Fake)

func init() {
	// Register the fake gateway factory
	scm.Register("fake", func(_ context.Context) scm.Gateway { return NewFake() })
}

// Fake records every mutation performed against it and serves seeded reads.
// Errors can be configured per operation name to exercise failure paths.
type Fake struct {
	mu sync.Mutex

	PullRequests map[int]*scm.PullRequest
	Commits      map[int][]scm.Commit
	Reviews      map[int][]scm.Review
	Comments     map[int][]scm.Comment
	Labels       map[int][]string

	// open PRs per "owner/repo" for repositories other than the primary one
	RemotePRs map[string][]*scm.PullRequest

	Created   []scm.NewPullRequest
	Closed    []string // "owner/repo#number"
	Reviewers map[int][]string
	Assignees map[int][]string
	Removed   map[int][]string

	Errors map[string]error

	nextNumber int
}

// NewFake creates an empty fake gateway.
func NewFake() *Fake {
	return &Fake{
		PullRequests: make(map[int]*scm.PullRequest),
		Commits:      make(map[int][]scm.Commit),
		Reviews:      make(map[int][]scm.Review),
		Comments:     make(map[int][]scm.Comment),
		Labels:       make(map[int][]string),
		RemotePRs:    make(map[string][]*scm.PullRequest),
		Reviewers:    make(map[int][]string),
		Assignees:    make(map[int][]string),
		Removed:      make(map[int][]string),
		Errors:       make(map[string]error),
		nextNumber:   100,
	}
}

// SeedErrors configures per-operation errors.
func (f *Fake) SeedErrors(errors map[string]error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	maps.Copy(f.Errors, errors)
}

func (f *Fake) err(op string) error {
	return f.Errors[op]
}

// GetPullRequest retrieves a seeded pull request.
func (f *Fake) GetPullRequest(_ context.Context, number int) (*scm.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("GetPullRequest"); err != nil {
		return nil, err
	}

	if pr, exists := f.PullRequests[number]; exists {
		clone := *pr
		return &clone, nil
	}

	return nil, fmt.Errorf("pull request %d not found", number)
}

// ListPullRequests lists seeded open pull requests for the given repository.
func (f *Fake) ListPullRequests(_ context.Context, owner, repo string) ([]*scm.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("ListPullRequests"); err != nil {
		return nil, err
	}

	return append([]*scm.PullRequest(nil), f.RemotePRs[owner+"/"+repo]...), nil
}

// CreatePullRequest records the request and assigns a sequential number.
func (f *Fake) CreatePullRequest(_ context.Context, req scm.NewPullRequest) (*scm.PullRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("CreatePullRequest"); err != nil {
		return nil, err
	}

	f.nextNumber++
	f.Created = append(f.Created, req)

	pr := &scm.PullRequest{
		Number:    f.nextNumber,
		Title:     req.Title,
		HeadLabel: req.Head,
		BaseRef:   req.Base,
	}
	f.RemotePRs[req.Owner+"/"+req.Repo] = append(f.RemotePRs[req.Owner+"/"+req.Repo], pr)

	clone := *pr
	return &clone, nil
}

// ClosePullRequest records the closure.
func (f *Fake) ClosePullRequest(_ context.Context, owner, repo string, number int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("ClosePullRequest"); err != nil {
		return err
	}

	f.Closed = append(f.Closed, fmt.Sprintf("%s/%s#%d", owner, repo, number))

	return nil
}

// ListCommits lists seeded commits.
func (f *Fake) ListCommits(_ context.Context, number int) ([]scm.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("ListCommits"); err != nil {
		return nil, err
	}

	return append([]scm.Commit(nil), f.Commits[number]...), nil
}

// ListReviews lists seeded reviews.
func (f *Fake) ListReviews(_ context.Context, number int) ([]scm.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("ListReviews"); err != nil {
		return nil, err
	}

	return append([]scm.Review(nil), f.Reviews[number]...), nil
}

// ListLabels lists the labels recorded for the issue.
func (f *Fake) ListLabels(_ context.Context, number int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("ListLabels"); err != nil {
		return nil, err
	}

	return append([]string(nil), f.Labels[number]...), nil
}

// AddLabels records the labels on the issue.
func (f *Fake) AddLabels(_ context.Context, number int, labels []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("AddLabels"); err != nil {
		return err
	}

	f.Labels[number] = append(f.Labels[number], labels...)

	return nil
}

// RemoveLabel records the removal and drops the label from the issue.
func (f *Fake) RemoveLabel(_ context.Context, number int, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("RemoveLabel"); err != nil {
		return err
	}

	f.Removed[number] = append(f.Removed[number], label)

	kept := f.Labels[number][:0]
	for _, existing := range f.Labels[number] {
		if existing != label {
			kept = append(kept, existing)
		}
	}
	f.Labels[number] = kept

	return nil
}

// RequestReviewers records the requested reviewers.
func (f *Fake) RequestReviewers(_ context.Context, number int, reviewers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("RequestReviewers"); err != nil {
		return err
	}

	f.Reviewers[number] = append(f.Reviewers[number], reviewers...)

	return nil
}

// AddAssignees records the assignees.
func (f *Fake) AddAssignees(_ context.Context, number int, assignees []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("AddAssignees"); err != nil {
		return err
	}

	f.Assignees[number] = append(f.Assignees[number], assignees...)

	return nil
}

// CreateComment records the comment.
func (f *Fake) CreateComment(_ context.Context, number int, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("CreateComment"); err != nil {
		return err
	}

	f.Comments[number] = append(f.Comments[number], scm.Comment{
		ID:   int64(len(f.Comments[number]) + 1),
		Body: body,
	})

	return nil
}

// ListComments lists the comments recorded for the issue.
func (f *Fake) ListComments(_ context.Context, number int) ([]scm.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.err("ListComments"); err != nil {
		return nil, err
	}

	return append([]scm.Comment(nil), f.Comments[number]...), nil
}
