package alertpop

import "net/http"

// CookieSession returns a session check for [WithSessionCheck] that passes
// when cookies contain a non-empty cookie called name, the way a logged-in
// page carries a role cookie.
func CookieSession(cookies []*http.Cookie, name string) func() bool {
	return func() bool {
		for _, ck := range cookies {
			if ck != nil && ck.Name == name && ck.Value != "" {
				return true
			}
		}
		return false
	}
}
