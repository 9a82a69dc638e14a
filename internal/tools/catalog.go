package tools

import (
	"gitpilot/internal/intent"
)

// Categories group the catalog for the /intents listing.
const (
	CategoryRepository    = "repository_management"
	CategoryBranch        = "branch_operations"
	CategoryFile          = "file_operations"
	CategoryCommit        = "commit_operations"
	CategoryGitHubAPI     = "github_api_operations"
	CategoryConfiguration = "configuration"
	CategoryQuery         = "query"
)

// filePattern captures a bare filename with an extension ("README.md").
const filePattern = `(?i)\b([\w/-]+\.[A-Za-z]\w*)\b`

// projectTypePattern captures "for <language>" in gitignore requests.
const projectTypePattern = `(?i)for\s+(?:a\s+|an\s+)?(python|node|nodejs|react|java|go|golang|rust|ruby|php|c\+\+|csharp)\b`

// BuiltinContracts returns the full tool catalog in registration order.
func BuiltinContracts() []*ToolContract {
	return []*ToolContract{
		{
			Name:        "create_repository",
			Description: "Create a new GitHub repository both locally and remotely",
			Category:    CategoryRepository,
			Endpoint:    "/github/create-repo",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "private", Type: TypeBoolean, Default: true},
				{Name: "description", Type: TypeString},
			},
		},
		{
			Name:        "initialize_repository",
			Description: "Initialize a local Git repository",
			Category:    CategoryRepository,
			Endpoint:    "/repos/init",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
			},
		},
		{
			Name:        "clone_repository",
			Description: "Clone a repository from GitHub",
			Category:    CategoryRepository,
			Endpoint:    "/repos/clone",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_url", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "local_path", Type: TypeString, Required: true, Validate: PathLike},
			},
		},
		{
			Name:        "create_branch",
			Description: "Create a new branch in the local repository",
			Category:    CategoryBranch,
			Endpoint:    "/repos/create-branch",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "branch_name", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
		{
			Name:        "create_github_branch",
			Description: "Create a new branch on GitHub from an existing branch",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/create-branch",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "branch_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "from_branch", Type: TypeString, Default: "main"},
			},
		},
		{
			Name:        "list_branches",
			Description: "List all branches in a repository",
			Category:    CategoryBranch,
			Endpoint:    "/github/list-branches/:repo_name?",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
		{
			Name:        "merge_branches",
			Description: "Merge one branch into another",
			Category:    CategoryBranch,
			Endpoint:    "/repos/merge",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "source_branch", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "target_branch", Type: TypeString, Default: "main"},
			},
		},
		{
			Name:        "add_file",
			Description: "Add a single file to the repository",
			Category:    CategoryFile,
			Endpoint:    "/repos/add-file",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "file_name", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "content", Type: TypeString, Required: true},
			},
		},
		{
			Name:        "add_multiple_files",
			Description: "Add multiple files to the repository at once",
			Category:    CategoryFile,
			Endpoint:    "/repos/add-files",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "files", Type: TypeObject, Required: true},
			},
		},
		{
			Name:        "list_files",
			Description: "List files in a repository directory",
			Category:    CategoryFile,
			Endpoint:    "/repos/list-files/:repo_path?",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
			},
		},
		{
			Name:        "read_file",
			Description: "Read the contents of a file",
			Category:    CategoryFile,
			Endpoint:    "/repos/read-file",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "file_name", Type: TypeString, Required: true, Validate: PathLike},
			},
		},
		{
			Name:        "commit_changes",
			Description: "Stage and commit changes",
			Category:    CategoryCommit,
			Endpoint:    "/repos/commit",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "commit_message", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
		{
			Name:        "push_changes",
			Description: "Push changes to the remote repository",
			Category:    CategoryCommit,
			Endpoint:    "/repos/push",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "remote_name", Type: TypeString, Default: "origin"},
				{Name: "branch", Type: TypeString},
			},
		},
		{
			Name:        "stage_all_changes",
			Description: "Stage all changes for commit",
			Category:    CategoryCommit,
			Endpoint:    "/repos/add-all",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "include_untracked", Type: TypeBoolean, Default: true},
			},
		},
		{
			Name:        "create_issue",
			Description: "Create an issue on GitHub",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/create-issue",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "title", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "body", Type: TypeString},
				{Name: "labels", Type: TypeStringList},
			},
		},
		{
			Name:        "create_pull_request",
			Description: "Create a pull request",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/create-pr",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "branch_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "base_branch", Type: TypeString, Default: "main"},
				{Name: "title", Type: TypeString},
				{Name: "body", Type: TypeString},
			},
		},
		{
			Name:        "list_pull_requests",
			Description: "List pull requests in a repository",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/list-prs/:repo_name?",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "state", Type: TypeString, Default: "open", Validate: OneOf("open", "closed", "all")},
			},
		},
		{
			Name:        "list_repositories",
			Description: "List the user's GitHub repositories",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/list-repos",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "page", Type: TypeInteger, Default: 1, Validate: MinInt(1)},
				{Name: "per_page", Type: TypeInteger, Default: 30, Validate: MinInt(1)},
			},
		},
		{
			Name:        "setup_credentials",
			Description: "Set up GitHub credentials",
			Category:    CategoryConfiguration,
			Endpoint:    "/auth/setup",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "username", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "token", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
		{
			Name:        "verify_credentials",
			Description: "Check whether GitHub credentials are configured",
			Category:    CategoryConfiguration,
			Endpoint:    "/auth/verify",
			Method:      "GET",
			Params:      []ParamSpec{},
		},
		{
			Name:        "generate_gitignore",
			Description: "Generate a .gitignore file for the repository",
			Category:    CategoryFile,
			Endpoint:    "/repos/generate-gitignore",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "project_type", Type: TypeString},
			},
		},
		{
			Name:        "download_gitignore",
			Description: "Download a .gitignore template from GitHub",
			Category:    CategoryFile,
			Endpoint:    "/repos/download-gitignore",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "project_type", Type: TypeString},
			},
		},
		{
			Name:        "detect_project_type",
			Description: "Detect the project type from repository files",
			Category:    CategoryQuery,
			Endpoint:    "/repos/detect-project-type/:repo_path?",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
			},
		},
		{
			Name:        "check_status",
			Description: "Check the repository's git status",
			Category:    CategoryQuery,
			Endpoint:    "/repos/status/:repo_path?",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
			},
		},
		{
			Name:        "get_repository",
			Description: "Get details for one of the user's GitHub repositories",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/repo/:repo_name?",
			Method:      "GET",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
		{
			Name:        "update_repository",
			Description: "Update the settings of a GitHub repository",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/repo/:repo_name?",
			Method:      "PATCH",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
				{Name: "description", Type: TypeString},
				{Name: "private", Type: TypeBoolean},
				{Name: "default_branch", Type: TypeString},
			},
		},
		{
			Name:        "delete_repository",
			Description: "Delete a GitHub repository owned by the user",
			Category:    CategoryGitHubAPI,
			Endpoint:    "/github/repo/:repo_name?",
			Method:      "DELETE",
			Params: []ParamSpec{
				{Name: "repo_name", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
		{
			Name:        "set_remote",
			Description: "Set the origin remote URL of a local repository",
			Category:    CategoryRepository,
			Endpoint:    "/repos/set-remote",
			Method:      "POST",
			Params: []ParamSpec{
				{Name: "repo_path", Type: TypeString, Required: true, Validate: PathLike},
				{Name: "remote_url", Type: TypeString, Required: true, Validate: NonEmpty},
			},
		},
	}
}

// RegisterBuiltins registers the full catalog into a registry.
func RegisterBuiltins(reg *Registry) error {
	for _, c := range BuiltinContracts() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// BuiltinSignatures returns the trigger-phrase signatures for every
// catalog tool, in the same order as the contracts. Single keywords match
// individual tokens; multi-word phrases must appear contiguously and
// carry proportionally more weight.
func BuiltinSignatures() []intent.Signature {
	return []intent.Signature{
		{
			Tool:       "create_repository",
			Phrases:    []string{"create", "repository"},
			Extractors: []intent.Extractor{intent.Named("repo_name")},
		},
		{
			Tool:       "create_repository",
			Phrases:    []string{"create", "repo"},
			Extractors: []intent.Extractor{intent.Named("repo_name")},
		},
		{
			Tool:       "create_repository",
			Phrases:    []string{"new repository"},
			Extractors: []intent.Extractor{intent.Named("repo_name")},
		},
		{
			Tool:       "create_repository",
			Phrases:    []string{"make", "repo"},
			Extractors: []intent.Extractor{intent.Named("repo_name")},
		},
		{Tool: "initialize_repository", Phrases: []string{"initialize", "git"}},
		{Tool: "initialize_repository", Phrases: []string{"initialize", "repository"}},
		{Tool: "initialize_repository", Phrases: []string{"init", "repo"}},
		{
			Tool:       "clone_repository",
			Phrases:    []string{"clone"},
			Extractors: []intent.Extractor{intent.URL("repo_url")},
		},
		{
			Tool:       "create_branch",
			Phrases:    []string{"create", "branch"},
			Extractors: []intent.Extractor{intent.Named("branch_name")},
		},
		{
			Tool:       "create_branch",
			Phrases:    []string{"new branch", "branch"},
			Extractors: []intent.Extractor{intent.Named("branch_name")},
		},
		{
			Tool:       "create_github_branch",
			Phrases:    []string{"create", "github", "branch"},
			Extractors: []intent.Extractor{intent.Named("branch_name")},
		},
		{
			Tool:       "create_github_branch",
			Phrases:    []string{"remote branch"},
			Extractors: []intent.Extractor{intent.Named("branch_name")},
		},
		{
			Tool:       "list_branches",
			Phrases:    []string{"list", "branches"},
			Extractors: []intent.Extractor{intent.Named("repo_name")},
		},
		{
			Tool:       "list_branches",
			Phrases:    []string{"show", "branches"},
			Extractors: []intent.Extractor{intent.Named("repo_name")},
		},
		{
			Tool:    "merge_branches",
			Phrases: []string{"merge"},
			Extractors: []intent.Extractor{
				intent.MergeSource("source_branch"),
				intent.MergeTarget("target_branch"),
			},
		},
		{
			Tool:    "add_file",
			Phrases: []string{"add", "file"},
			Extractors: []intent.Extractor{
				intent.Named("file_name"),
				intent.Custom("file_name", filePattern),
			},
		},
		{
			Tool:    "add_file",
			Phrases: []string{"create", "file"},
			Extractors: []intent.Extractor{
				intent.Named("file_name"),
				intent.Custom("file_name", filePattern),
			},
		},
		{Tool: "add_multiple_files", Phrases: []string{"add", "multiple", "files"}},
		{Tool: "add_multiple_files", Phrases: []string{"add", "files"}},
		{Tool: "list_files", Phrases: []string{"list", "files"}},
		{Tool: "list_files", Phrases: []string{"show", "files"}},
		{
			Tool:       "read_file",
			Phrases:    []string{"read", "file"},
			Extractors: []intent.Extractor{intent.Custom("file_name", filePattern)},
		},
		{
			Tool:       "read_file",
			Phrases:    []string{"show", "contents"},
			Extractors: []intent.Extractor{intent.Custom("file_name", filePattern)},
		},
		{
			Tool:       "commit_changes",
			Phrases:    []string{"commit"},
			Extractors: []intent.Extractor{intent.Quoted("commit_message")},
		},
		{Tool: "push_changes", Phrases: []string{"push"}},
		{Tool: "stage_all_changes", Phrases: []string{"stage"}},
		{Tool: "stage_all_changes", Phrases: []string{"add all"}},
		{
			Tool:       "create_issue",
			Phrases:    []string{"issue"},
			Extractors: []intent.Extractor{intent.Quoted("title")},
		},
		{
			Tool:    "create_pull_request",
			Phrases: []string{"pull request"},
			Extractors: []intent.Extractor{
				intent.Quoted("title"),
				intent.Named("branch_name"),
			},
		},
		{
			Tool:       "create_pull_request",
			Phrases:    []string{"create", "pr"},
			Extractors: []intent.Extractor{intent.Named("branch_name")},
		},
		{Tool: "list_pull_requests", Phrases: []string{"list", "pull", "requests"}},
		{Tool: "list_pull_requests", Phrases: []string{"open", "pull", "requests"}},
		{Tool: "list_repositories", Phrases: []string{"list", "repositories"}},
		{Tool: "list_repositories", Phrases: []string{"my", "repositories"}},
		{Tool: "list_repositories", Phrases: []string{"list", "repos"}},
		{Tool: "list_repositories", Phrases: []string{"my", "repos"}},
		{Tool: "setup_credentials", Phrases: []string{"credentials"}},
		{Tool: "setup_credentials", Phrases: []string{"credential"}},
		{Tool: "setup_credentials", Phrases: []string{"set", "up", "authentication"}},
		{Tool: "setup_credentials", Phrases: []string{"configure", "github"}},
		{Tool: "verify_credentials", Phrases: []string{"verify", "credentials"}},
		{Tool: "verify_credentials", Phrases: []string{"check", "credentials"}},
		{
			Tool:       "generate_gitignore",
			Phrases:    []string{"gitignore"},
			Extractors: []intent.Extractor{intent.Custom("project_type", projectTypePattern)},
		},
		{
			Tool:       "download_gitignore",
			Phrases:    []string{"download", "gitignore"},
			Extractors: []intent.Extractor{intent.Custom("project_type", projectTypePattern)},
		},
		{
			Tool:       "download_gitignore",
			Phrases:    []string{"gitignore", "template"},
			Extractors: []intent.Extractor{intent.Custom("project_type", projectTypePattern)},
		},
		{Tool: "detect_project_type", Phrases: []string{"project", "type"}},
		{Tool: "detect_project_type", Phrases: []string{"detect", "project"}},
		{Tool: "check_status", Phrases: []string{"status"}},
		{Tool: "get_repository", Phrases: []string{"repository", "details"}},
		{Tool: "get_repository", Phrases: []string{"repo", "info"}},
		{Tool: "update_repository", Phrases: []string{"update", "repository"}},
		{Tool: "update_repository", Phrases: []string{"update", "repo"}},
		{Tool: "delete_repository", Phrases: []string{"delete", "repository"}},
		{Tool: "delete_repository", Phrases: []string{"delete", "repo"}},
		{
			Tool:       "set_remote",
			Phrases:    []string{"set", "remote"},
			Extractors: []intent.Extractor{intent.URL("remote_url")},
		},
	}
}

// BuiltinSuggestions maps each tool to the follow-up tools a successful
// invocation naturally leads to. The chain executor follows the first
// entry; the rest are advisory.
func BuiltinSuggestions() map[string][]SuggestedTool {
	return map[string][]SuggestedTool{
		"create_repository": {
			{Tool: "initialize_repository", Reason: "Initialize the repository locally after creation"},
			{Tool: "generate_gitignore", Reason: "Add a .gitignore file to the repository"},
		},
		"initialize_repository": {
			{Tool: "create_branch", Reason: "Create initial branches for development"},
		},
		"clone_repository": {
			{Tool: "list_branches", Reason: "View available branches in the cloned repository"},
		},
		"create_branch": {
			{Tool: "add_file", Reason: "Add files to the new branch"},
		},
		"merge_branches": {
			{Tool: "push_changes", Reason: "Push the merged changes to remote"},
		},
		"add_file": {
			{Tool: "commit_changes", Reason: "Commit the added file"},
		},
		"add_multiple_files": {
			{Tool: "commit_changes", Reason: "Commit all added files"},
		},
		"commit_changes": {
			{Tool: "push_changes", Reason: "Push committed changes to remote"},
		},
		"push_changes": {
			{Tool: "create_pull_request", Reason: "Create a pull request for the pushed changes"},
		},
		"stage_all_changes": {
			{Tool: "commit_changes", Reason: "Commit the staged changes"},
		},
		"create_pull_request": {
			{Tool: "list_pull_requests", Reason: "View the created pull request"},
		},
		"generate_gitignore": {
			{Tool: "commit_changes", Reason: "Commit the generated .gitignore file"},
		},
		"download_gitignore": {
			{Tool: "commit_changes", Reason: "Commit the downloaded .gitignore file"},
		},
		"setup_credentials": {
			{Tool: "verify_credentials", Reason: "Confirm the stored credentials work"},
		},
		"set_remote": {
			{Tool: "push_changes", Reason: "Push to the newly configured remote"},
		},
		"update_repository": {
			{Tool: "get_repository", Reason: "Review the repository's updated settings"},
		},
	}
}
