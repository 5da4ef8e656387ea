package auth

import "strings"

const bearerScheme = "bearer"

// ExtractToken picks the token a caller presented. A non-empty explicit
// token (request body) wins; otherwise a "Bearer <token>" authorization
// header is used. The scheme is matched case-insensitively.
func ExtractToken(explicit, authorization string) (string, bool) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, true
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
