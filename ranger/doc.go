/*
Package ranger initializes and manages the app with sane defaults.

# Ranger

The main entrypoint to package ranger is the [Ranger] type.
A [Ranger] ought to be constructed with [New].
[New] builds every component the app needs (logger, database, session store,
login throttle, responder, router and admin site) and registers the route table
found in package urls.

[*Ranger.Guide] begins the web server.
By default, [*Ranger.Guide] listens on [DefaultHost]:[DefaultPort] (localhost:8000).

Upon calling [*Ranger.Guide], all routes configured up to that point are now active.
Stop that web server with [*Ranger.Shutdown],
cancel the context.Context passed to [WithContext],
or send a signal [*Ranger.Guide] listens for.

# Configuration

A developer configures the app through environment variables
and by passing a [RangerOption] to [New].
For environment variables, required values can be discovered by inspecting the errors [New] returns.

Environment variables ought to be set in a file called ".env"
found at the same directory the application is executed from.

Here are the available environment variables.
  - ADMIN_LOGIN_MAX_FAILURES: failed logins allowed per username and IP address; default: 5
  - ADMIN_LOGIN_WINDOW: how long, as understood by [time.ParseDuration], failed logins are counted for; default: 15m
  - APP_TITLE: a short title for the application; default: ACR Sample
  - BASE_URL: the base URL the application runs on; default: http://localhost:8000
  - CONTACT_US_EMAIL: the email address end users can contact us at; default: hello@xyplanningnetwork.com
  - DATABASE_HOST: the host the database is running on; default: localhost
  - DATABASE_MAX_IDLE_CXNS: the number of idle connections kept in the pool; default: 1
  - DATABASE_NAME: the name of the database
  - DATABASE_PASSWORD: the password for authenticating a connection to the database
  - DATABASE_PORT: the port the database is listening on; default: 5432
  - DATABASE_SSLMODE: the sslmode of the connection; default: prefer
  - DATABASE_URL: the fully-qualified connection string for connecting to the database; replaces all other DATABASE_* env vars
  - DATABASE_USER: the user for authenticating a connection to the database
  - DATABASE_TEST_*: the same, used when ENVIRONMENT is TESTING
  - ENVIRONMENT: the environment the application is running in; cf. [acrsample.Environment]
  - LOG_LEVEL: the level at which to begin logging; default: INFO; cf. [logger.LogLevel]
  - PORT: the port the application should listen on; default: :8000
  - REDIS_URL: a redis:// URL; when set, sessions and failed logins are stored in Redis
  - REDIS_PASSWORD: the password for Redis; replaces any in REDIS_URL
  - SENTRY_DSN: when set, errors are reported to Sentry
  - SERVER_IDLE_TIMEOUT: the timeout, as understood by [time.ParseDuration], for idling between requests when using keep-alives; default: 120s
  - SERVER_READ_TIMEOUT: the timeout, as understood by [time.ParseDuration], for reading HTTP requests; default: 5s
  - SERVER_WRITE_TIMEOUT: the timeout, as understood by [time.ParseDuration], for writing HTTP responses; default: 5s
  - SESSION_AUTH_KEY: a hex-encoded key for authenticating cookies; cf. [encoding/hex]
  - SESSION_ENCRYPTION_KEY: a hex-encoded key for encrypting cookies; cf. [encoding/hex]
*/
package ranger
