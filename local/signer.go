package local

import (
	"crypto/hmac"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sagarc03/filegate"
	stowry "github.com/sagarc03/stowry-go"
)

// MaxExpiry bounds the lifetime of a signed URL.
const MaxExpiry = 7 * 24 * time.Hour

// Signer mints and verifies stowry native presigned query strings.
type Signer struct {
	accessKey string
	secretKey string
	now       func() time.Time
}

func NewSigner(accessKey, secretKey string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
		now:       time.Now,
	}
}

// Sign returns the query parameters authorizing method on path for expiry,
// and the instant the authorization lapses.
func (s *Signer) Sign(method, path string, expiry time.Duration) (url.Values, time.Time) {
	issued := s.now()
	expires := int64(expiry / time.Second)
	sig := stowry.Sign(s.secretKey, method, path, issued.Unix(), expires)

	query := url.Values{}
	query.Set(stowry.StowryCredentialParam, s.accessKey)
	query.Set(stowry.StowryDateParam, strconv.FormatInt(issued.Unix(), 10))
	query.Set(stowry.StowryExpiresParam, strconv.FormatInt(expires, 10))
	query.Set(stowry.StowrySignatureParam, sig)

	return query, time.Unix(issued.Unix()+expires, 0).UTC()
}

// Verify checks query against method and path. Every failure wraps
// filegate.ErrUnauthorized.
func (s *Signer) Verify(method, path string, query url.Values) error {
	credential := query.Get(stowry.StowryCredentialParam)
	date := query.Get(stowry.StowryDateParam)
	expiresParam := query.Get(stowry.StowryExpiresParam)
	signature := query.Get(stowry.StowrySignatureParam)

	if credential == "" || date == "" || expiresParam == "" || signature == "" {
		return fmt.Errorf("missing required signature parameters: %w", filegate.ErrUnauthorized)
	}

	if credential != s.accessKey {
		return fmt.Errorf("invalid access key: %w", filegate.ErrUnauthorized)
	}

	timestamp, err := strconv.ParseInt(date, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", stowry.StowryDateParam, filegate.ErrUnauthorized)
	}

	expires, err := strconv.ParseInt(expiresParam, 10, 64)
	if err != nil || expires <= 0 || expires > int64(MaxExpiry/time.Second) {
		return fmt.Errorf("invalid %s: must be between 1 and %d: %w",
			stowry.StowryExpiresParam, int64(MaxExpiry/time.Second), filegate.ErrUnauthorized)
	}

	if s.now().Unix() > timestamp+expires {
		return fmt.Errorf("signature expired: %w", filegate.ErrUnauthorized)
	}

	expected := stowry.Sign(s.secretKey, method, path, timestamp, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("signature mismatch: %w", filegate.ErrUnauthorized)
	}

	return nil
}
