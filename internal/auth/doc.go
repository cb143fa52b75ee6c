// Package auth provides optional bearer-token authentication for the HTTP API.
//
// Tokens are HS256 JWTs signed with auth.jwt_secret. The "sub" claim names
// the caller and is attached to the request context:
//
//	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
//	api := auth.HTTPAuthMiddleware(verifier, logger)(mux)
//
// Tokens are minted with `lifeos token`. When no secret is configured the
// API is served without authentication.
package auth
