// Package auth provides authentication and authorization for the library API.
//
// It supports two authentication modes:
//   - "none": no authentication, every request acts as an anonymous administrator
//   - "local": users stored in the database, authenticated by bearer token or
//     session cookie
//
// # Configuration
//
//	AUTH_MODE=local                 # or none
//	AUTH_SESSIONS_ENABLED=true      # cookie sessions next to bearer tokens
//	AUTH_SESSION_SECRET=<hex>       # signs CSRF tokens, generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_TOKEN_EXPIRY=168h          # access tokens returned by login
//	AUTH_BCRYPT_COST=12
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	authService := auth.NewService(usersRepo, loansRepo, auditService, cfg.Auth, logger)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth)
//	router.Use(authMiddleware.Handler())
//	router.POST("/books", authMiddleware.RequireRole(entities.UserRoleAdmin), createBook)
//
// Handlers read the caller with CurrentUser and check ownership with CanActFor.
package auth
