package app

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netquity/mergebot/internal/merge"
)

const (
	defaultIntegrationBranch = "develop"
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
	defaultGitUserName       = "Netquity Merge Bot"
	defaultGitUserEmail      = "no-reply@netquity.com"
)

var defaultForbiddenBranches = []string{"master", "develop"}

// ProjectConfig is the per-project entry under the projects mapping.
type ProjectConfig struct {
	RepoURL   string `yaml:"repo_url"`
	GitHubOrg string `yaml:"github_org"`
}

// Config captures runtime options sourced from the YAML config file plus
// environment variables for secrets and logging.
type Config struct {
	ReposRoot            string                   `yaml:"repos_root"`
	IntegrationBranch    string                   `yaml:"integration_branch"`
	ForbiddenBranches    []string                 `yaml:"forbidden_branches"`
	Projects             map[string]ProjectConfig `yaml:"projects"`
	LogLevel             string                   `yaml:"log_level"`
	LogFormat            string                   `yaml:"log_format"`
	GitUserName          string                   `yaml:"git_user_name"`
	GitUserEmail         string                   `yaml:"git_user_email"`
	RequireOrgMembership bool                     `yaml:"require_org_membership"`
	GitHubBaseURL        string                   `yaml:"github_base_url"`
	GitHubUploadURL      string                   `yaml:"github_upload_url"`

	// GitHubToken comes from the environment only, never the file.
	GitHubToken string `yaml:"-"`
}

// LoadConfig reads the YAML config at path, applies environment overrides and
// defaults, and validates the result.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.GitHubToken = strings.TrimSpace(os.Getenv("MERGEBOT_GITHUB_TOKEN"))
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}

	if lvl := strings.TrimSpace(os.Getenv("MERGEBOT_LOG_LEVEL")); lvl != "" {
		cfg.LogLevel = lvl
	}
	if format := strings.TrimSpace(os.Getenv("MERGEBOT_LOG_FORMAT")); format != "" {
		cfg.LogFormat = format
	}
	if root := strings.TrimSpace(os.Getenv("MERGEBOT_REPOS_ROOT")); root != "" {
		cfg.ReposRoot = root
	}

	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}

	if err := validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) error {
	cfg.ReposRoot = strings.TrimSpace(cfg.ReposRoot)
	cfg.IntegrationBranch = strings.TrimSpace(cfg.IntegrationBranch)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if cfg.IntegrationBranch == "" {
		cfg.IntegrationBranch = defaultIntegrationBranch
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}
	if cfg.GitUserName == "" {
		cfg.GitUserName = defaultGitUserName
	}
	if cfg.GitUserEmail == "" {
		cfg.GitUserEmail = defaultGitUserEmail
	}
	if len(cfg.ForbiddenBranches) == 0 {
		cfg.ForbiddenBranches = append([]string(nil), defaultForbiddenBranches...)
	}

	// The integration branch may never be a merge source.
	found := false
	for _, branch := range cfg.ForbiddenBranches {
		if branch == cfg.IntegrationBranch {
			found = true
			break
		}
	}
	if !found {
		cfg.ForbiddenBranches = append(cfg.ForbiddenBranches, cfg.IntegrationBranch)
	}

	// Project names are lowercase keys; normalize here so lookup can
	// normalize the requested name the same way.
	normalized := make(map[string]ProjectConfig, len(cfg.Projects))
	for name, project := range cfg.Projects {
		normalized[strings.ToLower(strings.TrimSpace(name))] = project
	}
	cfg.Projects = normalized

	return nil
}

func validate(cfg *Config) error {
	if cfg.ReposRoot == "" {
		return fmt.Errorf("repos_root is required")
	}

	if len(cfg.Projects) == 0 {
		return fmt.Errorf("at least one project must be configured under projects")
	}

	for name, project := range cfg.Projects {
		if name == "" {
			return fmt.Errorf("project names must be non-empty")
		}
		if strings.TrimSpace(project.RepoURL) == "" {
			return fmt.Errorf("project %q: repo_url is required", name)
		}
	}

	supportedFormats := map[string]struct{}{"text": {}, "json": {}}
	if _, ok := supportedFormats[cfg.LogFormat]; !ok {
		return fmt.Errorf("unsupported log format %q", cfg.LogFormat)
	}

	if (cfg.GitHubBaseURL == "") != (cfg.GitHubUploadURL == "") {
		return fmt.Errorf("github_base_url and github_upload_url must both be set for GitHub Enterprise")
	}

	if cfg.RequireOrgMembership && cfg.GitHubToken == "" {
		return fmt.Errorf("require_org_membership needs a github token (set MERGEBOT_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	return nil
}

// ProjectList returns the configured projects sorted by name.
func (c Config) ProjectList() []merge.Project {
	names := make([]string, 0, len(c.Projects))
	for name := range c.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	projects := make([]merge.Project, 0, len(names))
	for _, name := range names {
		entry := c.Projects[name]
		projects = append(projects, merge.Project{
			Name:    name,
			RepoURL: strings.TrimSpace(entry.RepoURL),
			Org:     strings.TrimSpace(entry.GitHubOrg),
		})
	}
	return projects
}

// Project looks up one configured project by name, case-insensitively.
func (c Config) Project(name string) (merge.Project, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	entry, ok := c.Projects[key]
	if !ok {
		return merge.Project{}, false
	}
	return merge.Project{
		Name:    key,
		RepoURL: strings.TrimSpace(entry.RepoURL),
		Org:     strings.TrimSpace(entry.GitHubOrg),
	}, true
}
