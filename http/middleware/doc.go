/*
The middleware package defines what a middleware is and a set of basic middlewares.

The available middlewares are:
  - AuthorizeApplicator
  - CORS
  - CurrentUser
  - ForceHTTPS
  - InjectIPAddress
  - InjectSession
  - LogRequest
  - RateLimit
  - ReportPanic
  - RequestID
  - RequireUnauthed

Due to the amount of configuration required, middleware does not provide a default middleware chain.
ranger assembles one like so:

	adpts := []middleware.Adapter{
		middleware.ForceHTTPS(env),
		middleware.RequestID(),
		middleware.InjectIPAddress(),
		middleware.LogRequest(log),
		middleware.InjectSession(sessionStore),
		middleware.CurrentUser(responder, log, userStore),
	}
*/
package middleware
