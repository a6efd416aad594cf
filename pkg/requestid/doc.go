// Package requestid attaches a correlation id to every HTTP request, exposes
// it through the request context and echoes it in the X-Request-ID response
// header. Client supplied ids are reused when they are short and consist of
// letters, digits, '-' and '_' only; anything else is replaced by a UUIDv4.
//
// LoggerExtractor plugs into pkg/logger so every record logged with the
// request context carries the id.
package requestid
