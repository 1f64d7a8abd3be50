package www

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"fleetflow/store"
)

const sessionName = "fleetflow-session"

type contextKey int

const userContextKey contextKey = 1

// AuthUser is the identity attached to authenticated requests.
type AuthUser struct {
	ID    int64
	Email string
	Role  string
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func newSessionStore(secret string) *sessions.CookieStore {
	if secret == "" {
		secret = "fleetflow-default-secret-change-me"
	}
	s := sessions.NewCookieStore([]byte(secret))
	s.Options.HttpOnly = true
	s.Options.Secure = false
	s.Options.SameSite = http.SameSiteLaxMode
	return s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *Handlers) issueToken(u *store.User) (string, error) {
	ttl := h.engine.AppConfig().Auth.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	c := claims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(h.engine.AppConfig().Auth.JWTSecret))
}

func (h *Handlers) parseToken(raw string) (*AuthUser, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return []byte(h.engine.AppConfig().Auth.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return nil, err
	}
	return &AuthUser{ID: id, Email: c.Email, Role: c.Role}, nil
}

// requireAuth accepts a bearer token or, failing that, the session cookie.
// The cookie path exists for EventSource, which cannot set an Authorization
// header.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := h.bearerUser(r); u != nil {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
			return
		}
		if u := h.sessionUser(r); u != nil {
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
			return
		}
		h.jsonError(w, "authentication required", http.StatusUnauthorized)
	})
}

// requireRole allows only users holding one of the given roles past.
func (h *Handlers) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := userFrom(r.Context())
			if u == nil {
				h.jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			h.jsonError(w, "access denied: insufficient permissions", http.StatusForbidden)
		})
	}
}

func (h *Handlers) bearerUser(r *http.Request) *AuthUser {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	u, err := h.parseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil
	}
	return u
}

func (h *Handlers) sessionUser(r *http.Request) *AuthUser {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		return nil
	}
	id, ok := session.Values["user_id"].(int64)
	if !ok || id == 0 {
		return nil
	}
	email, _ := session.Values["email"].(string)
	role, _ := session.Values["role"].(string)
	return &AuthUser{ID: id, Email: email, Role: role}
}

func (h *Handlers) saveSession(w http.ResponseWriter, r *http.Request, u *store.User) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["user_id"] = u.ID
	session.Values["email"] = u.Email
	session.Values["role"] = u.Role
	if err := session.Save(r, w); err != nil {
		log.Printf("auth: session save error: %v", err)
	}
}

func (h *Handlers) clearSession(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessions.Get(r, sessionName)
	session.Values["user_id"] = int64(0)
	session.Values["email"] = ""
	session.Values["role"] = ""
	session.Save(r, w)
}

func withUser(ctx context.Context, u *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func userFrom(ctx context.Context) *AuthUser {
	u, _ := ctx.Value(userContextKey).(*AuthUser)
	return u
}

// actor returns the audit identity for a request.
func (h *Handlers) actor(r *http.Request) string {
	if u := userFrom(r.Context()); u != nil {
		return u.Email
	}
	return "system"
}

func (h *Handlers) ensureDefaultAdmin(db *store.DB) {
	n, err := db.CountUsers()
	if err != nil || n > 0 {
		return
	}
	hash, err := hashPassword("admin")
	if err != nil {
		return
	}
	db.CreateUser(&store.User{
		Name:         "Administrator",
		Email:        "admin@fleetflow.local",
		PasswordHash: hash,
		Role:         store.RoleFleetManager,
		IsActive:     true,
	})
	log.Printf("www: created default admin user admin@fleetflow.local")
}
