package github

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v74/github"

	"github.com/xcaliber/xcaliber-bot/scm"
)

// newClonePR is a fixture for clone creation requests.
func newClonePR() scm.NewPullRequest {
	return scm.NewPullRequest{
		Owner: "mobile-org",
		Repo:  "mobile",
		Title: "[clone-7] PROJ-5 feat: add x",
		Body:  "Original PR: https://github.com/test-org/test-repo/pull/7",
		Head:  "alice:feature-x",
		Base:  "master",
	}
}

// newTestGithub builds a gateway pointed at the given test server.
func newTestGithub(t *testing.T, server *httptest.Server) *Github {
	t.Helper()

	client := github.NewClient(server.Client())

	base, err := url.Parse(server.URL + "/")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	client.BaseURL = base
	client.UploadURL = base

	return &Github{
		client: client,
		owner:  "test-org",
		repo:   "test-repo",
	}
}
