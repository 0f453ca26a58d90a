package signer

import "strings"

// Kind classifies a presented token string.
type Kind int

const (
	// KindMalformed covers empty tokens, empty segments, and tokens with
	// more than one delimiter. Malformed tokens never reach verification.
	KindMalformed Kind = iota

	// KindUnsigned is a bare raw identifier with no signature suffix,
	// accepted during the signing migration window.
	KindUnsigned

	// KindSigned is "<id>.<signature>" with exactly one delimiter.
	KindSigned
)

// Token is the result of classifying a wire token. Signature is set only for
// KindSigned; ID is set for KindSigned and KindUnsigned.
type Token struct {
	Kind      Kind
	ID        string
	Signature string
}

// Parse classifies a token string without consulting the secret. It is total:
// every input maps to exactly one Kind and no input panics.
func Parse(token string) Token {
	if token == "" {
		return Token{Kind: KindMalformed}
	}

	switch parts := strings.Split(token, Delimiter); len(parts) {
	case 1:
		return Token{Kind: KindUnsigned, ID: token}
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Token{Kind: KindMalformed}
		}
		return Token{Kind: KindSigned, ID: parts[0], Signature: parts[1]}
	default:
		return Token{Kind: KindMalformed}
	}
}

// IsSigned reports whether the token is in signed form. It never fails on
// malformed input; anything ambiguous is simply not signed.
func IsSigned(token string) bool {
	return Parse(token).Kind == KindSigned
}
