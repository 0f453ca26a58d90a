// Package signer provides HMAC-SHA256 signing and verification for session
// identifiers, adding a layer of cryptographic integrity on top of database
// validation.
//
// A signed token has the form "<identifier>.<signature>", where the signature
// is the base64 (URL-safe, unpadded) encoding of HMAC-SHA256 over the
// identifier bytes with a shared secret. The identifier stored in the
// database is always the raw value; the signature exists only on the wire.
//
// # Usage
//
//	s, err := signer.New(cfg.Secret)
//	if err != nil {
//	    // secret too short, refuse to start
//	}
//
//	token := s.Sign(rawID)
//
//	id, err := s.Verify(token)
//	if err != nil {
//	    // tampered or malformed, treat as unauthorized
//	}
//
// Verification uses a constant-time comparison so the response time does not
// reveal where the first mismatched byte occurs.
//
// Parse classifies a presented token as signed, unsigned (legacy) or
// malformed without touching the secret, letting callers keep a documented
// compatibility window for tokens issued before signing was enabled.
package signer
