package scm

// PullRequest is the gateway's view of a remote pull request. It is always
// fetched fresh from the remote service and never cached locally.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Author string `json:"author"`

	HeadRef   string `json:"head_ref"`
	HeadLabel string `json:"head_label"`
	HeadOwner string `json:"head_owner"`

	BaseRef   string `json:"base_ref"`
	BaseLabel string `json:"base_label"`
	BaseOwner string `json:"base_owner"`
}

// Forked reports whether the PR originates from a fork, i.e. the base
// repository owner differs from the head repository owner.
func (pr *PullRequest) Forked() bool {
	return pr.BaseOwner != pr.HeadOwner
}

// Commit is a single commit on a pull request.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// Comment is an issue comment on a pull request.
type Comment struct {
	ID     int64  `json:"id"`
	Author string `json:"author"`
	Body   string `json:"body"`
}

// Review is a single submitted review. State is the remote service's review
// state string, e.g. "APPROVED" or "CHANGES_REQUESTED".
type Review struct {
	Reviewer string `json:"reviewer"`
	State    string `json:"state"`
}

// NewPullRequest describes a pull request to be opened, possibly in a
// repository other than the primary one (clone fan-out).
type NewPullRequest struct {
	Owner string
	Repo  string
	Title string
	Body  string
	Head  string
	Base  string
}
