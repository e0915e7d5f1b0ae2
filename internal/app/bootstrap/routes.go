// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	auditlogfeature "github.com/dalemusser/workhub/internal/app/features/auditlog"
	discussionfeature "github.com/dalemusser/workhub/internal/app/features/discussion"
	errorsfeature "github.com/dalemusser/workhub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/workhub/internal/app/features/health"
	issuesfeature "github.com/dalemusser/workhub/internal/app/features/issues"
	loginfeature "github.com/dalemusser/workhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/workhub/internal/app/features/logout"
	projectaccessfeature "github.com/dalemusser/workhub/internal/app/features/projectaccess"
	projectsfeature "github.com/dalemusser/workhub/internal/app/features/projects"
	userinfofeature "github.com/dalemusser/workhub/internal/app/features/userinfo"
	"github.com/dalemusser/workhub/internal/app/store/audit"
	projectaccessstore "github.com/dalemusser/workhub/internal/app/store/projectaccess"
	userstore "github.com/dalemusser/workhub/internal/app/store/users"
	"github.com/dalemusser/workhub/internal/app/system/accesscache"
	"github.com/dalemusser/workhub/internal/app/system/auditlog"
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/dalemusser/workhub/internal/app/system/httpmw"
	"github.com/dalemusser/workhub/internal/app/system/mailer"
	"github.com/dalemusser/workhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for WorkHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Project sub-resources (access, issues,
// discussion) are mounted under /projects/{projectID}; chi matches those
// param routes before falling back to the /projects catch-all.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.WorkHubMongoDatabase

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fresh user data on each request so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	mail, err := buildMailer(appCfg, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}

	cache := accesscache.New(appCfg.AccessCacheSize, appCfg.AccessCacheTTL, projectaccessstore.New(db).ListForUser)
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Project: appCfg.AuditLogProject,
	})
	limiter := ratelimit.NewLoginLimiterWithConfig(appCfg.LoginIPRate, appCfg.LoginRateWindow, appCfg.LoginCodeRate, appCfg.LoginRateWindow)

	r := chi.NewRouter()
	if appCfg.TrustProxy {
		// Rewrites RemoteAddr from X-Forwarded-For/X-Real-IP before rate
		// limiting and audit logging read it.
		r.Use(middleware.RealIP)
	}
	r.Use(httpmw.RequestID)
	r.Use(httpmw.RequestLogger(logger))
	r.Use(httpmw.Metrics)

	// Loads SessionUser into context if signed in; auth.CurrentUser(r)
	// works in every handler below.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.WorkHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", promhttp.Handler())

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, limiter, mail, appCfg.LoginCodeExpiry, appCfg.SiteName, audits, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, audits, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler())

	r.Mount("/admin/audit", auditlogfeature.Routes(auditlogfeature.NewHandler(db, logger), sessionMgr))

	// Projects and their sub-resources
	projectsHandler := projectsfeature.NewHandler(db, cache, audits, logger)
	r.Mount("/projects", projectsfeature.Routes(projectsHandler, sessionMgr))

	accessHandler := projectaccessfeature.NewHandler(db, cache, audits, logger)
	r.Mount("/projects/{projectID}/access", projectaccessfeature.Routes(accessHandler, sessionMgr))

	issuesHandler := issuesfeature.NewHandler(db, cache, logger)
	r.Mount("/projects/{projectID}/issues", issuesfeature.Routes(issuesHandler, sessionMgr))

	discussionHandler := discussionfeature.NewHandler(db, cache, logger)
	r.Mount("/projects/{projectID}/discussion", discussionfeature.Routes(discussionHandler, sessionMgr))

	return r, nil
}

// buildMailer returns an SMTP sender when an SMTP address is configured and
// otherwise a sender that writes sign-in codes to the log.
func buildMailer(appCfg AppConfig, logger *zap.Logger) (mailer.Sender, error) {
	if appCfg.MailSMTPAddr == "" {
		logger.Warn("mail_smtp_addr not set; sign-in codes will be logged, not emailed")
		return mailer.LogSender{Log: logger}, nil
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Addr:     appCfg.MailSMTPAddr,
		From:     appCfg.MailFrom,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
	})
}
