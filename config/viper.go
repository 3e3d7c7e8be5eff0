package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// New creates a new Viper instance with default configuration.
func New() *viper.Viper {
	v := viper.NewWithOptions(viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")))
	v.AutomaticEnv() // read in environment variables that match

	// Initialize default settings
	initialize(v)

	return v
}

// NewFixture creates an isolated Viper instance seeded with a minimal
// working configuration; for testing only!
func NewFixture(t *testing.T) *viper.Viper {
	t.Helper()

	v := New()

	v.Set(RepoOwner, "xcaliber-org")
	v.Set(RepoName, "xcaliber")
	v.Set(AuthToken, "test-token")
	v.Set(ReviewsNeeded, 1)
	v.Set(Projects, []string{"ELNEW", "mobile"})
	v.Set(PreviewApp, "elnew")
	v.Set(ReviewerPools, map[string][]string{
		"elnew":  {"alice", "bob", "carol"},
		"mobile": {"dave", "erin"},
	})
	v.Set(CommitTypeMap, map[string]string{"feat": "enhancement", "fix": "bug"})

	return v
}
