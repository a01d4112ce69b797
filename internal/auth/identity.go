package auth

// Identity is the caller resolved from a verified access token.
type Identity struct {
	TenantID string
	UserID   string
	Role     string
}
