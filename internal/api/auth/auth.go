package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/fuyaseru/brain/pkg/config"
)

// Role is the access level of a session
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Allows reports whether r satisfies the required role
func (r Role) Allows(required Role) bool {
	if required == RoleAdmin {
		return r == RoleAdmin
	}
	return r == RoleUser || r == RoleAdmin
}

// Authenticator checks login passwords
// ⭐ SSOT: パスワード照合はここだけ
type Authenticator struct {
	user  string
	admin string
}

// NewAuthenticator creates an authenticator. An empty password disables that role.
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		user:  normalizePassword(cfg.UserPassword),
		admin: normalizePassword(cfg.AdminPassword),
	}
}

// Open reports whether no password is configured at all
func (a *Authenticator) Open() bool {
	return a.user == "" && a.admin == ""
}

// Authenticate returns the role matched by password. Full-width input and
// letter case are tolerated.
func (a *Authenticator) Authenticate(password string) (Role, bool) {
	got := normalizePassword(password)
	if got == "" {
		return "", false
	}
	if a.admin != "" && equal(got, a.admin) {
		return RoleAdmin, true
	}
	if a.user != "" && equal(got, a.user) {
		return RoleUser, true
	}
	return "", false
}

func normalizePassword(s string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFKC.String(s)))
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
