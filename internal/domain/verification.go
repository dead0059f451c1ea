package domain

// Verification code purposes.
const (
	PurposeSignup        = "signup"
	PurposePasswordReset = "password_reset"
)

// VerificationCode is a one-time numeric code bound to an account.
// PK: owner_id — exactly one item per account, so a PutItem on reissue
// overwrites the previous code in place and a DeleteItem on successful
// redemption prevents replay.
//
// IssuedAt is rewritten on every reissue; expiry is computed against it
// at validation time rather than stored, so a resend always restores the
// full validity window.
type VerificationCode struct {
	OwnerID  string `json:"owner_id" dynamodbav:"owner_id"`
	Code     string `json:"-" dynamodbav:"code"`
	Purpose  string `json:"purpose" dynamodbav:"purpose"`
	IssuedAt int64  `json:"issued_at" dynamodbav:"issued_at"` // Unix seconds
}
