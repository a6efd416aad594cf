// Package clientip resolves the network address of the client behind an
// HTTP request, optionally honoring reverse proxy headers.
//
// New() without headers uses only the connection address. Pass headers,
// for example DefaultHeaders (Cloudflare, DigitalOcean, X-Forwarded-For,
// X-Real-IP), only when a proxy in front of the service sets them, since any
// header can be forged by the client.
package clientip
