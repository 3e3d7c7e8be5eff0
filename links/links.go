// Package links encodes and decodes the deployment-links comment, the
// human-readable rendering of a PR's per-project deployment URL set, and
// defines the store that serves as its source of truth.
package links

import (
	"fmt"
	"strings"

	"github.com/xcaliber/xcaliber-bot/scm"
)

const (
	linksMarker  = "Deployment link(s):"
	clonesMarker = "Cloned PR(s):"
)

// Set maps project name to deployment URL. The primary project is included.
type Set map[string]string

// Encode renders the deployment-link set into a comment-body fragment.
// Projects are emitted in the given order; projects missing from the set
// are skipped. Clone PR URLs follow the clones marker, one per line.
func Encode(urls Set, order []string, cloneURLs []string) string {
	var body strings.Builder

	body.WriteString(linksMarker)
	for _, project := range order {
		if url, ok := urls[project]; ok {
			body.WriteString(fmt.Sprintf("\n%s: %s", project, url))
		}
	}

	body.WriteString("\n\n" + clonesMarker)
	for _, url := range cloneURLs {
		body.WriteString("\n" + url)
	}

	return body.String()
}

// Decode reconstructs the deployment-link set from a PR's comment history.
// The first comment containing both markers is authoritative; only the text
// strictly between them is considered, and only lines with exactly one
// ": " separator contribute entries. No qualifying comment yields an empty
// set, not an error.
func Decode(comments []scm.Comment) Set {
	urls := make(Set)

	for _, comment := range comments {
		start := strings.Index(comment.Body, linksMarker)
		end := strings.Index(comment.Body, clonesMarker)
		if start == -1 || end == -1 || end < start {
			continue
		}

		section := comment.Body[start+len(linksMarker) : end]
		for _, line := range strings.Split(section, "\n") {
			parts := strings.Split(strings.TrimSpace(line), ": ")
			if len(parts) != 2 {
				continue
			}

			urls[parts[0]] = parts[1]
		}

		break
	}

	return urls
}
