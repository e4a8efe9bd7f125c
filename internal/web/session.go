package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"socialsync/internal/auth"
	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/services"
)

// SessionCookie carries the session token for the server-rendered page.
const SessionCookie = "socialsync_session"

// profileWait bounds how long a request waits for a fresh session's profile.
const profileWait = 3 * time.Second

type ctxKey int

const scopeKey ctxKey = 0

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// withSession resolves the bearer token into a scope. Requests without a
// token get an empty scope, which reads as demo data. A token that no longer
// resolves is rejected.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := tokenFrom(r)
		if token == "" || s.auth == nil {
			next(w, r)
			return
		}
		sess, err := s.auth.Session(r.Context(), token)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), scopeKey, scopeOf(r.Context(), sess))
		next(w, r.WithContext(ctx))
	}
}

func scopeOf(ctx context.Context, sess *auth.Session) services.Scope {
	sc := services.Scope{UserID: sess.User().ID}
	waitCtx, cancel := context.WithTimeout(ctx, profileWait)
	defer cancel()
	if err := sess.WaitReady(waitCtx); err != nil {
		appLog.Error("session profile not ready", err, "user_id", sc.UserID)
	}
	if org := sess.Organization(); org != nil {
		sc.OrganizationID = org.ID
	}
	return sc
}

func scopeFrom(ctx context.Context) services.Scope {
	sc, _ := ctx.Value(scopeKey).(services.Scope)
	return sc
}

// requireSession resolves the token for the auth endpoints, which need a
// signed-in user rather than a scope.
func (s *Server) requireSession(r *http.Request) (*auth.Session, string, error) {
	token := tokenFrom(r)
	if token == "" || s.auth == nil {
		return nil, "", model.ErrUnauthenticated
	}
	sess, err := s.auth.Session(r.Context(), token)
	if err != nil {
		return nil, "", err
	}
	return sess, token, nil
}
