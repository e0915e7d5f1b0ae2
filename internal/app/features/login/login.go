// internal/app/features/login/login.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Email: what users type to sign in; stored lowercased

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/workhub/internal/app/features/shared"
	"github.com/dalemusser/workhub/internal/app/store/logincodes"
	"github.com/dalemusser/workhub/internal/app/system/apierr"
	"github.com/dalemusser/workhub/internal/app/system/auth"
	"github.com/dalemusser/workhub/internal/app/system/inputval"
	"github.com/dalemusser/workhub/internal/app/system/mailer"
	"github.com/dalemusser/workhub/internal/app/system/normalize"
	"github.com/dalemusser/workhub/internal/app/system/payload"
	"github.com/dalemusser/workhub/internal/app/system/status"
	"github.com/dalemusser/workhub/internal/app/system/timeouts"
	"github.com/dalemusser/workhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// codeSent is returned for every well-formed code request, whether or not the
// email belongs to an account, so the endpoint cannot be used to probe for users.
type codeSent struct {
	Status    string `json:"status"`
	ExpiresIn string `json:"expiresIn"`
}

// HandleRequestCode handles POST /login/code {"email": "..."}.
func (h *Handler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readLogin(w, r)
	if !ok {
		return
	}
	sent := codeSent{Status: "code_sent", ExpiresIn: mailer.FormatExpiry(h.Codes.Expiry())}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, ok := h.activeUser(ctx, w, r, req.Email)
	if !ok {
		return
	}
	if u == nil {
		h.Log.Info("sign-in code requested for unknown or disabled email", zap.String("email", req.Email))
		apierr.WriteJSON(w, http.StatusAccepted, sent)
		return
	}

	res, err := h.Codes.Issue(ctx, u.ID, u.Email)
	if errors.Is(err, logincodes.ErrTooManyResends) {
		// Answered like any other request so the account's existence stays hidden.
		h.Log.Info("sign-in code resend limit reached", zap.String("user_id", u.ID.Hex()))
		h.Audit.LoginFailedRateLimit(ctx, r, u.Email, "resend")
		apierr.WriteJSON(w, http.StatusAccepted, sent)
		return
	}
	if err != nil {
		apierr.Internal(w, h.Log, "issue sign-in code", err, zap.String("user_id", u.ID.Hex()))
		return
	}

	msg := mailer.BuildLoginCodeEmail(u.Email, mailer.LoginCodeEmailData{
		SiteName:  h.SiteName,
		Code:      res.Code,
		ExpiresIn: sent.ExpiresIn,
	})
	if err := h.Mail.Send(ctx, msg); err != nil {
		apierr.Internal(w, h.Log, "send sign-in code", err, zap.String("user_id", u.ID.Hex()))
		return
	}

	h.Audit.LoginCodeSent(ctx, r, u.ID, u.Email)
	h.Log.Info("sign-in code sent",
		zap.String("user_id", u.ID.Hex()),
		zap.Int("resend_count", res.ResendCount))
	apierr.WriteJSON(w, http.StatusAccepted, sent)
}

// HandleVerify handles POST /login/verify {"email": "...", "code": "..."}.
// On success it starts a session and returns the signed-in user.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := h.readLogin(w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		apierr.Validation(w, inputval.Invalid("code", "is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, ok := h.activeUser(ctx, w, r, req.Email)
	if !ok {
		return
	}
	if u == nil {
		apierr.WriteError(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid or expired code")
		return
	}

	_, err := h.Codes.Verify(ctx, u.ID, req.Code)
	switch {
	case errors.Is(err, logincodes.ErrNotFound), errors.Is(err, logincodes.ErrInvalidCode):
		h.Log.Info("sign-in code rejected", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		h.Audit.LoginFailedInvalidCode(ctx, r, u.ID, u.Email, err.Error())
		apierr.WriteError(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "invalid or expired code")
		return
	case errors.Is(err, logincodes.ErrTooManyAttempts):
		h.Audit.LoginFailedInvalidCode(ctx, r, u.ID, u.Email, "too many attempts")
		// the locked code is spent; only a newly requested one can be used
		if err := h.Codes.DeleteByUser(ctx, u.ID); err != nil {
			h.Log.Warn("discard locked sign-in code", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		apierr.TooManyRequests(w, "Too many attempts. Request a new code.")
		return
	case err != nil:
		apierr.Internal(w, h.Log, "verify sign-in code", err, zap.String("user_id", u.ID.Hex()))
		return
	}

	su := auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  normalize.Role(u.Role),
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		apierr.Internal(w, h.Log, "save session", err, zap.String("user_id", su.ID))
		return
	}
	h.Limiter.ResetEmail(req.Email)

	h.Audit.LoginSuccess(ctx, r, u.ID, u.Email)
	h.Log.Info("user signed in", zap.String("user_id", su.ID))
	apierr.WriteJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{
			"id":    su.ID,
			"name":  su.Name,
			"email": su.Email,
			"role":  su.Role,
		},
	})
}

// readLogin decodes the body and applies the sign-in rate limits.
func (h *Handler) readLogin(w http.ResponseWriter, r *http.Request) (payload.LoginRequest, bool) {
	raw, ok := shared.ReadBody(w, r)
	if !ok {
		return payload.LoginRequest{}, false
	}
	req, err := payload.Login(raw)
	if err != nil {
		apierr.Validation(w, err)
		return payload.LoginRequest{}, false
	}
	req.Email = normalize.Email(req.Email)

	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		h.Log.Warn("sign-in rate limited", zap.String("email", req.Email), zap.String("reason", reason))
		h.Audit.LoginFailedRateLimit(r.Context(), r, req.Email, reason)
		apierr.TooManyRequests(w, reason)
		return payload.LoginRequest{}, false
	}
	return req, true
}

// activeUser loads the account for email. It returns (nil, true) when there is
// no such account or it is disabled, and (nil, false) after writing a 500.
func (h *Handler) activeUser(ctx context.Context, w http.ResponseWriter, r *http.Request, email string) (*models.User, bool) {
	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.Audit.LoginFailedUserNotFound(ctx, r, email)
		return nil, true
	}
	if err != nil {
		apierr.Internal(w, h.Log, "load user", err)
		return nil, false
	}
	if normalize.Status(u.Status) == status.Disabled {
		h.Audit.LoginFailedUserDisabled(ctx, r, u.ID, email)
		return nil, true
	}
	return u, true
}
