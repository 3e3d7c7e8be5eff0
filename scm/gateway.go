// Package scm defines the typed gateway over the remote PR/issue hosting
// service. Implementations perform exactly one remote call per operation
// and do not retry; failure policy is decided by the caller.
package scm

import (
	"context"
	"fmt"
)

var gatewayFactories = make(map[string]GatewayFactory)

type GatewayFactory func(ctx context.Context) Gateway

// Gateway is the façade over the remote PR/issue API. Operations without an
// explicit owner/repo act on the primary repository bound at construction.
type Gateway interface {
	// GetPullRequest retrieves a pull request from the primary repository.
	GetPullRequest(ctx context.Context, number int) (*PullRequest, error)
	// ListPullRequests lists open pull requests in the given repository.
	ListPullRequests(ctx context.Context, owner, repo string) ([]*PullRequest, error)
	// CreatePullRequest opens a new pull request in an arbitrary repository.
	CreatePullRequest(ctx context.Context, req NewPullRequest) (*PullRequest, error)
	// ClosePullRequest closes a pull request in an arbitrary repository via
	// an issue state edit.
	ClosePullRequest(ctx context.Context, owner, repo string, number int) error

	// ListCommits lists the commits on a pull request.
	ListCommits(ctx context.Context, number int) ([]Commit, error)
	// ListReviews lists the submitted reviews on a pull request.
	ListReviews(ctx context.Context, number int) ([]Review, error)

	// ListLabels returns the label names currently on the issue.
	ListLabels(ctx context.Context, number int) ([]string, error)
	// AddLabels applies the given labels to the issue.
	AddLabels(ctx context.Context, number int, labels []string) error
	// RemoveLabel removes a single label from the issue.
	RemoveLabel(ctx context.Context, number int, label string) error

	// RequestReviewers creates a review request for the given logins.
	RequestReviewers(ctx context.Context, number int, reviewers []string) error
	// AddAssignees assigns the given logins to the issue.
	AddAssignees(ctx context.Context, number int, assignees []string) error

	// CreateComment posts an issue comment.
	CreateComment(ctx context.Context, number int, body string) error
	// ListComments lists the issue comments in creation order.
	ListComments(ctx context.Context, number int) ([]Comment, error)
}

// Get retrieves a registered gateway by name.
// If the gateway is not registered, it panics.
func Get(ctx context.Context, name string) Gateway {
	if factory, exists := gatewayFactories[name]; exists {
		return factory(ctx)
	}

	panic(fmt.Sprintf("SCM gateway %s not registered", name))
}

// Register a new gateway factory by name.
func Register(name string, factory GatewayFactory) {
	if _, exists := gatewayFactories[name]; !exists {
		gatewayFactories[name] = factory
	}
}
