// Package logger builds *slog.Logger instances with environment presets,
// static attributes and context extractors, plus helpers that keep attribute
// keys consistent across packages.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "sessiond"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.ErrorContext(ctx, "session commit failed", logger.SessionID(id), logger.Error(err))
//
// Records logged through the *Context methods run every registered
// ContextExtractor, so request-scoped values such as the request id appear
// without threading them through call sites.
package logger
