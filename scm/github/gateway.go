package github

import (
	"context"
	"net/http"

	"github.com/google/go-github/v74/github"

	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/scm"
)

func init() {
	// Register the GitHub gateway factory
	scm.Register("github", New)
}

// New constructs the GitHub gateway bound to the configured primary
// repository. Authentication uses the personal token when configured,
// falling back to basic credentials.
func New(ctx context.Context) scm.Gateway {
	v := config.Viper(ctx)

	var client *github.Client
	if token := v.GetString(config.AuthToken); token != "" {
		client = github.NewClient(http.DefaultClient).WithAuthToken(token)
	} else {
		transport := &github.BasicAuthTransport{
			Username: v.GetString(config.AuthUser),
			Password: v.GetString(config.AuthPassword),
		}
		client = github.NewClient(transport.Client())
	}

	return &Github{
		client: client,
		owner:  v.GetString(config.RepoOwner),
		repo:   v.GetString(config.RepoName),
	}
}

type Github struct {
	client *github.Client
	owner  string
	repo   string
}

func parsePR(resp *github.PullRequest) *scm.PullRequest {
	return &scm.PullRequest{
		Number: resp.GetNumber(),
		Title:  resp.GetTitle(),
		Author: resp.GetUser().GetLogin(),

		HeadRef:   resp.GetHead().GetRef(),
		HeadLabel: resp.GetHead().GetLabel(),
		HeadOwner: resp.GetHead().GetUser().GetLogin(),

		BaseRef:   resp.GetBase().GetRef(),
		BaseLabel: resp.GetBase().GetLabel(),
		BaseOwner: resp.GetBase().GetUser().GetLogin(),
	}
}
