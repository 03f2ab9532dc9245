package logger

import "log"

// A LoggerOptFn is a functional option configuring an AppLogger when constructing a new one.
type LoggerOptFn func(*AppLogger)

// WithEnv sets the environment AppLogger is operating in.
func WithEnv(env string) LoggerOptFn {
	return func(l *AppLogger) {
		l.env = env
	}
}

// WithLevel sets the log level AppLogger uses.
//
// LogLevelUnk is ignored.
func WithLevel(level LogLevel) LoggerOptFn {
	return func(l *AppLogger) {
		if level == LogLevelUnk {
			return
		}

		l.ll = level
	}
}

// WithLogger sets the log.Logger AppLogger uses.
func WithLogger(log *log.Logger) LoggerOptFn {
	return func(l *AppLogger) {
		if log != nil {
			l.l = log
		}
	}
}

// WithSkip sets the number of frames in the call stack
// to skip in order to log the desired file and line number
// of the calling code.
func WithSkip(skip int) LoggerOptFn {
	return func(l *AppLogger) {
		l.skip = skip
	}
}
