package session

import "net/http"

// DefaultLoginPath is the admin login view.
const DefaultLoginPath = "/admin"

type Guard struct {
	manager   *Manager
	loginPath string
}

func NewGuard(manager *Manager, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &Guard{manager: manager, loginPath: loginPath}
}

func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Allow runs the session check for a protected view. On failure the
// session has already been cleared and the caller must go to LoginPath.
func (g *Guard) Allow() error {
	_, err := g.manager.Current()
	return err
}

// Protect redirects to the login view before next runs when there is no
// usable session, so a protected view never renders or issues requests.
func (g *Guard) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Allow(); err != nil {
			http.Redirect(w, r, g.loginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
