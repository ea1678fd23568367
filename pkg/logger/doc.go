// Package logger builds *slog.Logger instances for the portal client and its
// tools.
//
// New applies functional options (format, level, output, static attributes)
// and, when context extractors are registered, adds request-scoped values
// such as the request id to every record. StringExtractor adapts any
// FromContext accessor.
// NewFromConfig does the same from an env-loaded Config.
//
// Attribute helpers in attr.go keep key names consistent across packages:
//
//	log.WarnContext(ctx, "logout notification failed",
//		logger.SessionID(id),
//		logger.Error(err),
//	)
//
// Components accept a logger through options and fall back to Discard.
package logger
