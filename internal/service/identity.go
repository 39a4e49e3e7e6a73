package service

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Provider names. These select the linked-id column on the user record.
const (
	ProviderGoogle   = "google"
	ProviderLinkedIn = "linkedin"
	ProviderFacebook = "facebook"
	ProviderTwitter  = "twitter"
)

// ExternalIdentity is the normalized result of verifying a federated
// credential: whatever the provider attested, reduced to the fields the
// account resolver needs.
type ExternalIdentity struct {
	Provider  string
	SubjectID string
	Email     string
	FirstName string
	LastName  string
}

// placeholderEmail synthesizes a routable-looking but undeliverable address
// for providers that do not release the user's email.
func placeholderEmail(provider, subjectID, domain string) string {
	return fmt.Sprintf("%s_%s@%s", provider, strings.ToLower(subjectID), domain)
}

func newProviderHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
