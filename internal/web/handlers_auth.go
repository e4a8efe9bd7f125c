package web

import (
	"fmt"
	"net/http"
	"time"

	"socialsync/internal/auth"
	"socialsync/internal/model"
)

type credentials struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"fullName,omitempty"`
	Role             string `json:"role,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
}

type signedIn struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

func setSessionCookie(w http.ResponseWriter, sess *auth.Session, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token(),
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) writeSignedIn(w http.ResponseWriter, sess *auth.Session) {
	st := sess.State()
	setSessionCookie(w, sess, st.ExpiresAt)
	writeData(w, http.StatusOK, signedIn{Token: sess.Token(), ExpiresAt: st.ExpiresAt, User: st.User})
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		writeErr(w, r, err)
		return
	}
	sess, err := s.auth.SignUp(r.Context(), c.Email, c.Password, auth.SignUpProfile{
		FullName: c.FullName, Role: c.Role, OrganizationName: c.OrganizationName,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.writeSignedIn(w, sess)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeJSON(r, &c); err != nil {
		writeErr(w, r, err)
		return
	}
	sess, err := s.auth.SignIn(r.Context(), c.Email, c.Password)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	s.writeSignedIn(w, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := tokenFrom(r); token != "" {
		s.auth.SignOut(r.Context(), token)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.auth.ResetPassword(r.Context(), body.Email); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleConfirmReset(w http.ResponseWriter, r *http.Request) {
	if s.resets == nil {
		writeError(w, http.StatusNotFound, "password reset is not available")
		return
	}
	var body struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.resets.ConfirmReset(r.Context(), body.Token, body.Password); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSession reports the signed-in state. ?wait=1 blocks until the
// profile has loaded.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.requireSession(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if r.URL.Query().Get("wait") == "1" {
		if err := sess.WaitReady(r.Context()); err != nil {
			writeErr(w, r, fmt.Errorf("load profile: %w", err))
			return
		}
	}
	writeData(w, http.StatusOK, sess.State())
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, token, err := s.requireSession(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var upd model.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.auth.UpdateProfile(r.Context(), token, upd); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := sess.WaitReady(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sess.State())
}
