package middleware

// identity.go defines helper functions shared across middleware files.
// userID resolves the caller's identity for rate-limit keying: first the
// "user_id" claim JWTAuth stores (any JSON numeric shape or a string),
// then a JWT placed in context by other auth layers. Unauthenticated
// requests key as "guest".

import (
    "strconv"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the request context. It
// returns "guest" when no user is authenticated or the claims are missing.
func userID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        switch t := v.(type) {
        case string:
            if t != "" {
                return t
            }
        case uint64:
            return strconv.FormatUint(t, 10)
        case int64:
            return strconv.FormatInt(t, 10)
        case int:
            return strconv.Itoa(t)
        case float64:
            return strconv.FormatUint(uint64(t), 10)
        }
    }
    u := c.Get("user")
    if u == nil {
        return "guest"
    }
    if tok, ok := u.(*jwt.Token); ok {
        if cl, ok := tok.Claims.(jwt.MapClaims); ok {
            if v, ok := cl["sub"].(string); ok && v != "" {
                return v
            }
            if v, ok := cl["user_id"].(string); ok && v != "" {
                return v
            }
        }
    }
    return "guest"
}
