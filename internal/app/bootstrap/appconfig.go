// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level and format, and request limits. AppConfig is
// where everything specific to this application lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: rollcall-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Membership roster: CSV of Name,Username,Email rows. Signup is
	// restricted to usernames present here.
	RosterPath string

	// Admin capability. Comma-separated usernames that get admin powers
	// at sign-in.
	AdminUsernames []string

	// Audit trail mode for manual edits: 'all' (db+log), 'db', 'log', or 'off'.
	AuditLogMode string
}
