package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// GoogleTokenVerifier validates a Google ID token through Google's
// tokeninfo endpoint and checks audience, issuer and expiry before
// trusting any claim in it.
type GoogleTokenVerifier struct {
	ClientID   string
	HTTPClient *http.Client

	// Overridable for tests.
	TokenInfoURL string
}

func NewGoogleTokenVerifier(clientID string) *GoogleTokenVerifier {
	return &GoogleTokenVerifier{
		ClientID:     clientID,
		HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		TokenInfoURL: defaultTokenInfoURL,
	}
}

type tokenInfoResponse struct {
	Aud   string `json:"aud"`
	Iss   string `json:"iss"`
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Exp   string `json:"exp"`
}

func (v *GoogleTokenVerifier) Verify(ctx context.Context, credential string) (*GoogleIdentity, error) {
	info, err := v.fetchTokenInfo(ctx, credential)
	if err != nil {
		return nil, err
	}

	if info.Aud != v.ClientID {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidGoogleToken)
	}
	if info.Iss != "accounts.google.com" && info.Iss != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidGoogleToken)
	}
	exp, err := strconv.ParseInt(info.Exp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed expiry", ErrInvalidGoogleToken)
	}
	if time.Now().Unix() >= exp {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidGoogleToken)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidGoogleToken)
	}
	if info.Email == "" {
		return nil, ErrMissingEmail
	}

	return &GoogleIdentity{
		SubjectID: info.Sub,
		Email:     strings.ToLower(info.Email),
	}, nil
}

func (v *GoogleTokenVerifier) fetchTokenInfo(ctx context.Context, credential string) (*tokenInfoResponse, error) {
	endpoint := v.TokenInfoURL
	if endpoint == "" {
		endpoint = defaultTokenInfoURL
	}

	data := url.Values{"id_token": {credential}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := v.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		// A verifier that cannot be reached cannot vouch for anything.
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tokeninfo returned status %d", ErrInvalidGoogleToken, resp.StatusCode)
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}
	return &info, nil
}

var _ GoogleVerifier = (*GoogleTokenVerifier)(nil)
