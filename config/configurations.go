package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	CfgFile string

	// Version is dynamically set at build time using the -X linker flag.
	// Default value is used for testing and development builds.
	Version = "dev"
)

const (
	RepoOwner = "github.owner"
	RepoName  = "github.repo"

	AuthToken    = "github.token"
	AuthUser     = "github.user"
	AuthPassword = "github.password"

	ReviewsNeeded = "github.reviews-needed"

	LabelDontReview = "labels.dont-review"
	LabelChecked    = "labels.checked"
	LabelReady      = "labels.ready"
	LabelTestFail   = "labels.e2e-fail"
	LabelTestPass   = "labels.e2e-success"

	CommitPattern = "commit.pattern"
	CommitTypeMap = "commit.type-labels"

	Projects        = "projects.names"
	ReviewerPools   = "projects.reviewers"
	CloneTargets    = "projects.clone"
	CloneBaseBranch = "projects.clone-base-branch"

	JiraURL      = "jira.url"
	Instructions = "instructions"

	PreviewApp     = "urls.preview-app"
	PreviewTmpl    = "urls.preview-template"
	RegressionTmpl = "urls.regression-template"
	RerunTmpl      = "urls.rerun-template"

	ListenAddr      = "server.address"
	ShutdownTimeout = "server.shutdown-timeout"

	PostgresDSN = "postgres.dsn"

	LogLevel = "log.level"
)

const envFile = ".env"

// Init reads in config file and ENV variables if set.
func Init() {
	initialize(viper.GetViper())

	// Local overrides from a .env file, without clobbering the real environment.
	if envMap, err := godotenv.Read(envFile); err == nil {
		for key, value := range envMap {
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, value)
			}
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	if CfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(CfgFile)
	} else {
		viper.SetConfigName("xcaliber-bot")

		// Search in the working directory
		viper.AddConfigPath(".")

		// Search in the user's config directory
		if usrConfig, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(usrConfig)
		}
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Printf("Using config file: %v\n\n", viper.ConfigFileUsed())
	}
}

func initialize(v *viper.Viper) {
	v.SetDefault(ReviewsNeeded, 2)

	v.SetDefault(LabelDontReview, "don't review")
	v.SetDefault(LabelChecked, "checked")
	v.SetDefault(LabelReady, "ready for merge")
	v.SetDefault(LabelTestFail, "e2e:fail")
	v.SetDefault(LabelTestPass, "e2e:success")

	// Expected to capture (projectKey, issueNumber, changeType).
	v.SetDefault(CommitPattern, `^([A-Z]+)-(\d+) (\w+)`)
	v.SetDefault(CommitTypeMap, map[string]string{})

	v.SetDefault(Projects, []string{})
	v.SetDefault(ReviewerPools, map[string][]string{})
	v.SetDefault(CloneBaseBranch, "master")

	v.SetDefault(Instructions, "")

	// App identifier, PR number
	v.SetDefault(PreviewTmpl, "https://%s-pr-%d.herokuapp.com/")

	v.SetDefault(ListenAddr, ":8080")
	v.SetDefault(ShutdownTimeout, 5*time.Second)

	v.SetDefault(LogLevel, "info")
}

// ValidateCredentials enforces that exactly one authentication method is
// configured: either a personal token or basic user+password credentials.
// Absence of both is a fatal startup error.
func ValidateCredentials(v *viper.Viper) error {
	token := v.GetString(AuthToken)
	user := v.GetString(AuthUser)
	password := v.GetString(AuthPassword)

	if token == "" && (user == "" || password == "") {
		return errors.New("no username/password or no token configured")
	}

	if token != "" && (user != "" || password != "") {
		return errors.New("both token and basic credentials configured, expected exactly one")
	}

	return nil
}
