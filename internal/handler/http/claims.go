package http

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

// userIDFromRequest pulls the authenticated user id out of the verified
// token claims. An empty string means the middleware chain was bypassed.
func userIDFromRequest(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	userID, _ := claims["user_id"].(string)
	return userID
}
