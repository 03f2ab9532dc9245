/*
Package logger provides logging functionality to the app by defining the required behavior in [Logger]
and providing an implementation of it with [AppLogger].

# Overview

The Logger interface outputs messages at certain levels of importance.
LogLevel is the type to use to represent those levels.
An [AppLogger] initialized with [LogLevelWarn]
only produces messages from [*AppLogger.Warn], [*AppLogger.Error], and [*AppLogger.Fatal].

# AppLogger

Log messages emitted by [AppLogger] are composed of a few parts:
  - timestamp
  - log level
  - call site
  - message
  - log context

Here's an example:

	2024/04/28 15:55:21 [INFO] admin/handler.go:43 'logged in' log_context: {"user":{"email":"admin@example.com","id":1}}

The log context is a JSON-encoded [LogContext].
It carries data inessential to the message proper,
but provides a fuller picture of the application state at the time of logging.

# SentryLogger

When a Sentry DSN is configured, [NewSentryLogger] wraps an [AppLogger]
and ships the errors in Warn, Error and Fatal log contexts to Sentry.
*/
package logger
