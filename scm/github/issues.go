package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v74/github"

	"github.com/xcaliber/xcaliber-bot/scm"
)

// ListLabels returns the label names currently on the issue.
func (g *Github) ListLabels(ctx context.Context, number int) ([]string, error) {
	resp, _, err := g.client.Issues.ListLabelsByIssue(ctx, g.owner, g.repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	output := make([]string, len(resp))
	for i, label := range resp {
		output[i] = label.GetName()
	}

	return output, nil
}

// AddLabels applies the given labels to the issue.
func (g *Github) AddLabels(ctx context.Context, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}

	_, _, err := g.client.Issues.AddLabelsToIssue(ctx, g.owner, g.repo, number, labels)
	if err != nil {
		return fmt.Errorf("failed to add labels: %w", err)
	}

	return nil
}

// RemoveLabel removes a single label from the issue.
func (g *Github) RemoveLabel(ctx context.Context, number int, label string) error {
	_, err := g.client.Issues.RemoveLabelForIssue(ctx, g.owner, g.repo, number, label)
	if err != nil {
		return fmt.Errorf("failed to remove label: %w", err)
	}

	return nil
}

// AddAssignees assigns the given logins to the issue.
func (g *Github) AddAssignees(ctx context.Context, number int, assignees []string) error {
	_, _, err := g.client.Issues.AddAssignees(ctx, g.owner, g.repo, number, assignees)
	if err != nil {
		return fmt.Errorf("failed to add assignees: %w", err)
	}

	return nil
}

// CreateComment posts an issue comment.
func (g *Github) CreateComment(ctx context.Context, number int, body string) error {
	_, _, err := g.client.Issues.CreateComment(ctx, g.owner, g.repo, number, &github.IssueComment{
		Body: &body,
	})
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

// ListComments lists the issue comments in creation order.
func (g *Github) ListComments(ctx context.Context, number int) ([]scm.Comment, error) {
	resp, _, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, number, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	output := make([]scm.Comment, len(resp))
	for i, comment := range resp {
		output[i] = scm.Comment{
			ID:     comment.GetID(),
			Author: comment.GetUser().GetLogin(),
			Body:   comment.GetBody(),
		}
	}

	return output, nil
}
