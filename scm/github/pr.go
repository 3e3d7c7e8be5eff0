package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v74/github"

	"github.com/xcaliber/xcaliber-bot/scm"
)

// GetPullRequest retrieves a pull request from the primary repository.
func (g *Github) GetPullRequest(ctx context.Context, number int) (*scm.PullRequest, error) {
	resp, _, err := g.client.PullRequests.Get(ctx, g.owner, g.repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to get pull request: %w", err)
	}

	return parsePR(resp), nil
}

// ListPullRequests lists open pull requests in the given repository.
func (g *Github) ListPullRequests(ctx context.Context, owner, repo string) ([]*scm.PullRequest, error) {
	resp, _, err := g.client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State: "open",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pull requests: %w", err)
	}

	output := make([]*scm.PullRequest, len(resp))
	for i, pr := range resp {
		output[i] = parsePR(pr)
	}

	return output, nil
}

// CreatePullRequest opens a new pull request in an arbitrary repository.
func (g *Github) CreatePullRequest(ctx context.Context, req scm.NewPullRequest) (*scm.PullRequest, error) {
	resp, _, err := g.client.PullRequests.Create(ctx, req.Owner, req.Repo, &github.NewPullRequest{
		Title: &req.Title,
		Body:  &req.Body,
		Head:  &req.Head,
		Base:  &req.Base,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}

	return parsePR(resp), nil
}

// ClosePullRequest closes a pull request via an issue state edit.
func (g *Github) ClosePullRequest(ctx context.Context, owner, repo string, number int) error {
	state := "closed"

	_, _, err := g.client.Issues.Edit(ctx, owner, repo, number, &github.IssueRequest{
		State: &state,
	})
	if err != nil {
		return fmt.Errorf("failed to close pull request: %w", err)
	}

	return nil
}

// ListCommits lists the commits on a pull request.
func (g *Github) ListCommits(ctx context.Context, number int) ([]scm.Commit, error) {
	resp, _, err := g.client.PullRequests.ListCommits(ctx, g.owner, g.repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}

	output := make([]scm.Commit, len(resp))
	for i, commit := range resp {
		output[i] = scm.Commit{
			SHA:     commit.GetSHA(),
			Message: commit.GetCommit().GetMessage(),
		}
	}

	return output, nil
}

// ListReviews lists the submitted reviews on a pull request.
func (g *Github) ListReviews(ctx context.Context, number int) ([]scm.Review, error) {
	resp, _, err := g.client.PullRequests.ListReviews(ctx, g.owner, g.repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	output := make([]scm.Review, len(resp))
	for i, review := range resp {
		output[i] = scm.Review{
			Reviewer: review.GetUser().GetLogin(),
			State:    review.GetState(),
		}
	}

	return output, nil
}

// RequestReviewers creates a review request for the given logins.
func (g *Github) RequestReviewers(ctx context.Context, number int, reviewers []string) error {
	_, _, err := g.client.PullRequests.RequestReviewers(ctx, g.owner, g.repo, number, github.ReviewersRequest{
		Reviewers: reviewers,
	})
	if err != nil {
		return fmt.Errorf("failed to request reviewers: %w", err)
	}

	return nil
}
