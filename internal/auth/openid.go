// Package auth implements the Steam OpenID 2.0 login handshake. Steam is the
// only identity provider; the service never sees credentials, only a signed
// assertion of the user's steam ID.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	openIDNamespace = "http://specs.openid.net/auth/2.0"
	identifierMode  = "http://specs.openid.net/auth/2.0/identifier_select"

	defaultProviderURL = "https://steamcommunity.com/openid/login"
)

var (
	// ErrVerificationFailed means Steam did not confirm the assertion.
	ErrVerificationFailed = errors.New("auth: openid verification failed")

	claimedIDPattern = regexp.MustCompile(`/openid/id/(\d+)$`)
)

// OpenID performs the redirect-and-verify flow against the Steam provider.
type OpenID struct {
	providerURL string
	realm       string
	returnURL   string
	http        *http.Client
}

// NewOpenID configures the handshake. realm is the site root presented to
// the user on the Steam consent page; returnURL receives the assertion.
// providerURL other than "" overrides the Steam endpoint (used by tests).
func NewOpenID(realm, returnURL, providerURL string) *OpenID {
	if providerURL == "" {
		providerURL = defaultProviderURL
	}
	return &OpenID{
		providerURL: providerURL,
		realm:       realm,
		returnURL:   returnURL,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL builds the provider URL the browser is redirected to.
func (o *OpenID) AuthURL() string {
	params := url.Values{
		"openid.ns":         {openIDNamespace},
		"openid.mode":       {"checkid_setup"},
		"openid.return_to":  {o.returnURL},
		"openid.realm":      {o.realm},
		"openid.identity":   {identifierMode},
		"openid.claimed_id": {identifierMode},
	}
	return o.providerURL + "?" + params.Encode()
}

// Verify replays the positive assertion back to the provider in
// check_authentication mode and extracts the steam ID from the claimed
// identity. Returns ErrVerificationFailed unless the provider answers
// is_valid:true.
func (o *OpenID) Verify(ctx context.Context, query url.Values) (string, error) {
	if query.Get("openid.mode") != "id_res" {
		return "", ErrVerificationFailed
	}

	steamID := extractSteamID(query.Get("openid.claimed_id"))
	if steamID == "" {
		return "", ErrVerificationFailed
	}

	params := url.Values{}
	for key, values := range query {
		if strings.HasPrefix(key, "openid.") {
			params[key] = values
		}
	}
	params.Set("openid.mode", "check_authentication")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.providerURL,
		strings.NewReader(params.Encode()))
	if err != nil {
		return "", fmt.Errorf("auth: build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: verify round trip: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("auth: read verify response: %w", err)
	}

	if !strings.Contains(string(body), "is_valid:true") {
		return "", ErrVerificationFailed
	}
	return steamID, nil
}

func extractSteamID(claimedID string) string {
	m := claimedIDPattern.FindStringSubmatch(claimedID)
	if m == nil {
		return ""
	}
	return m[1]
}
