package cnst

// Role names understood by the user directory.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleReviewer = "reviewer"
)

// Permission names drawn from the fixed enumeration in the user source.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// ScholarshipWildcard grants access to every enabled scholarship.
const ScholarshipWildcard = "*"

// Environment variables consumed by the core.
const (
	EnvConfigPath      = "WAI_CONFIG_PATH"
	EnvAdminPassword   = "WAI_ADMIN_PASSWORD"
	EnvManagerPassword = "WAI_MANAGER_PASSWORD"
)

// On-disk artifact names inside a scholarship's data folder.
const (
	AnalysisFileName  = "analysis.json"
	ScoresFileName    = "scores.csv"
	ReviewsDirName    = "reviews"
	ReviewSummaryName = "summary.csv"
)

// SessionCookieName is the cookie the transport layer may carry the
// session token in; the core only ever sees the raw token string.
const SessionCookieName = "wai_session"
