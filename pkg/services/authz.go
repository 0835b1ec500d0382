package services

// Requester identifies the caller of an operation: the user id they claim
// and, optionally, a shared API key presented as an alternative credential.
type Requester struct {
	UserID string
	APIKey string
}

// Authorizer is the single ownership predicate shared by every service, so
// per-endpoint checks cannot drift apart.
type Authorizer struct {
	sharedAPIKey string
}

// NewAuthorizer creates an authorizer holding the configured shared API key.
// An empty key disables API-key access entirely.
func NewAuthorizer(sharedAPIKey string) *Authorizer {
	return &Authorizer{sharedAPIKey: sharedAPIKey}
}

// IsOwner reports whether the requester is the owner of a resource.
func (a *Authorizer) IsOwner(ownerID string, req Requester) bool {
	return ownerID != "" && req.UserID == ownerID
}

// CanRead reports whether the requester may read a resource: either they own
// it or they present the valid shared API key.
func (a *Authorizer) CanRead(ownerID string, req Requester) bool {
	if a.IsOwner(ownerID, req) {
		return true
	}
	return a.sharedAPIKey != "" && req.APIKey == a.sharedAPIKey
}
