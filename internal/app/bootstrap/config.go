// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/workhub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for WorkHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: WORKHUB_MONGO_URI, WORKHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "workhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "workhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Sign-in codes
	{Name: "login_code_expiry", Default: "10m", Desc: "Sign-in code expiry (e.g., 10m, 1h, 90s)"},
	{Name: "login_code_rate", Default: 5, Desc: "Sign-in requests allowed per email per window"},
	{Name: "login_ip_rate", Default: 20, Desc: "Sign-in requests allowed per client IP per window"},
	{Name: "login_rate_window", Default: "15m", Desc: "Sign-in rate limit window"},
	{Name: "trust_proxy", Default: false, Desc: "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a reverse proxy)"},

	// Restriction cache
	{Name: "access_cache_size", Default: 4096, Desc: "Max cached (project, user) restriction lists"},
	{Name: "access_cache_ttl", Default: "1m", Desc: "Restriction cache entry lifetime"},

	// Timeouts (blank keeps the built-in defaults)
	{Name: "timeout_ping", Default: "", Desc: "Health-check database timeout"},
	{Name: "timeout_short", Default: "", Desc: "Single-document operation timeout"},
	{Name: "timeout_medium", Default: "", Desc: "List query timeout"},
	{Name: "timeout_long", Default: "", Desc: "Multi-document write timeout"},

	// Email/SMTP configuration
	{Name: "mail_smtp_addr", Default: "", Desc: "SMTP server host:port (blank logs sign-in codes instead)"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@workhub.app", Desc: "From email address"},

	{Name: "site_name", Default: "WorkHub", Desc: "Site name used in sign-in emails"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_project", Default: "all", Desc: "Membership and restriction change logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// WORKHUB_* environment variables and command-line flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "WORKHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		LoginCodeExpiry: appValues.Duration("login_code_expiry", 10*time.Minute),
		LoginCodeRate:   appValues.Int("login_code_rate"),
		LoginIPRate:     appValues.Int("login_ip_rate"),
		LoginRateWindow: appValues.Duration("login_rate_window", 15*time.Minute),
		TrustProxy:      appValues.Bool("trust_proxy"),

		AccessCacheSize: appValues.Int("access_cache_size"),
		AccessCacheTTL:  appValues.Duration("access_cache_ttl", time.Minute),

		TimeoutPing:   appValues.Duration("timeout_ping", 0),
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),

		MailSMTPAddr: appValues.String("mail_smtp_addr"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),

		SiteName: appValues.String("site_name"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogProject: appValues.String("audit_log_project"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked here to catch configuration errors
// before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.LoginCodeExpiry <= 0 {
		return errors.New("login_code_expiry must be positive")
	}
	if appCfg.LoginCodeRate <= 0 || appCfg.LoginIPRate <= 0 {
		return errors.New("login_code_rate and login_ip_rate must be positive")
	}
	if appCfg.AccessCacheSize <= 0 {
		return errors.New("access_cache_size must be positive")
	}
	for key, v := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_project": appCfg.AuditLogProject} {
		switch v {
		case auditlog.DestAll, auditlog.DestDB, auditlog.DestLog, auditlog.DestOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log or off (got %q)", key, v)
		}
	}
	if coreCfg != nil && coreCfg.Env == "prod" && len(appCfg.SessionKey) < 32 {
		return errors.New("session_key must be at least 32 characters in production")
	}
	return nil
}
