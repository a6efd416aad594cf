// Package cookie writes and reads HTTP cookies with shared defaults and
// optional HMAC-SHA256 signatures.
//
// Signed cookies carry the value in clear text followed by a MAC:
// "s:<value>.<mac>". They guarantee integrity, not confidentiality, which is
// what an opaque session identifier needs.
//
// Several secrets may be configured. The first one signs new cookies and all
// of them are tried on verification, so secrets can be rotated without
// logging everybody out.
//
// # Usage
//
//	man, err := cookie.New(cookie.ParseSecrets(os.Getenv("SESSION_SECRETS")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	man.SetSigned(w, "sid", sessionID, cookie.WithMaxAge(3600))
//	id, err := man.GetSigned(r, "sid")
//
// Defaults are Path "/", HttpOnly and SameSite=Lax.
//
// # Errors
//
//   - ErrNoSecret, ErrSecretTooShort: invalid secrets passed to New
//   - ErrCookieNotFound: the request carries no such cookie
//   - ErrInvalidFormat, ErrInvalidSignature: the value was not produced by
//     this manager or was tampered with
package cookie
