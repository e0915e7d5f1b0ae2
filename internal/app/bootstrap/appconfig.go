// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for WorkHub.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging level, CORS); everything
// here is specific to WorkHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: workhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Sign-in codes
	LoginCodeExpiry time.Duration // How long an emailed code stays valid
	LoginCodeRate   int           // Code requests allowed per email per LoginRateWindow
	LoginIPRate     int           // Sign-in requests allowed per client IP per LoginRateWindow
	LoginRateWindow time.Duration
	TrustProxy      bool // client IP from proxy headers; off unless a reverse proxy sets them

	// Restriction cache
	AccessCacheSize int
	AccessCacheTTL  time.Duration

	// Request timeouts; zero keeps the built-in default.
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// Email/SMTP configuration. A blank MailSMTPAddr logs codes instead of sending them.
	MailSMTPAddr string // host:port (e.g., localhost:1025 for Mailpit)
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string // From email address (e.g., noreply@workhub.app)

	SiteName string // Shown in the sign-in email subject and body

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogAuth    string
	AuditLogProject string
}
