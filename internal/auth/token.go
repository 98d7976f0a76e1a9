package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"harmony/internal/apperr"
	"harmony/internal/models"
	"harmony/internal/store"
)

// Tokens carries the signing secret and lifetime for bearer tokens. The same
// instance must back the REST middleware and the websocket handshake so both
// apply the identical validation rule.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
}

// Sign produces a bearer token in the format "base64(userID:expiry)|base64(signature)".
func (t *Tokens) Sign(userID string) string {
	value := fmt.Sprintf("%s:%d", userID, time.Now().Add(t.TTL).Unix())
	mac := hmac.New(sha256.New, t.Secret)
	mac.Write([]byte(value))
	signature := mac.Sum(nil)
	return fmt.Sprintf("%s|%s",
		base64.URLEncoding.EncodeToString([]byte(value)),
		base64.URLEncoding.EncodeToString(signature))
}

// Verify checks the signature and expiry and returns the embedded user ID.
func (t *Tokens) Verify(token string) (string, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 2 {
		return "", errors.New("invalid token format")
	}

	valueBytes, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", errors.New("invalid value encoding")
	}
	signature, err := base64.URLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", errors.New("invalid signature encoding")
	}

	mac := hmac.New(sha256.New, t.Secret)
	mac.Write(valueBytes)
	if !hmac.Equal(signature, mac.Sum(nil)) {
		return "", errors.New("invalid signature")
	}

	value := string(valueBytes)
	sep := strings.LastIndex(value, ":")
	if sep < 0 {
		return "", errors.New("invalid token payload")
	}
	expiry, err := strconv.ParseInt(value[sep+1:], 10, 64)
	if err != nil {
		return "", errors.New("invalid token expiry")
	}
	if time.Now().Unix() > expiry {
		return "", errors.New("token expired")
	}
	return value[:sep], nil
}

// Authenticate resolves a bearer token to the user it names. A valid
// signature is not enough: the user must still exist in the store, so a
// deleted user cannot keep an issued token alive.
func (t *Tokens) Authenticate(s store.Store, token string) (*models.User, error) {
	userID, err := t.Verify(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token")
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, apperr.Unauthorized("user not found")
	}
	return user, nil
}
