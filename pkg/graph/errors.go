package graph

import "fmt"

// AuthError indicates the identity provider rejected the client credentials or
// was unreachable.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("graph auth failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProviderError indicates a non-success HTTP status from the Graph API.
type ProviderError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("graph %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}
