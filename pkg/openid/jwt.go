package openid

import (
	"encoding/json"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"
	"github.com/pkg/errors"
)

// JwtHelper reads access token claims. Signatures are not checked: the client holds no key.
type JwtHelper struct {
	claims jwt.MapClaims
}

func NewJwtHelper(token string) (*JwtHelper, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "parse token")
	}
	return &JwtHelper{claims: claims}, nil
}

func (j *JwtHelper) ExpiresAt() (time.Time, bool) {
	switch exp := j.claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	case json.Number:
		v, err := exp.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(v, 0), true
	default:
		return time.Time{}, false
	}
}

// GetUserID returns the user_id claim, numeric or string.
func (j *JwtHelper) GetUserID() string {
	switch id := j.claims["user_id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	default:
		return ""
	}
}

// Expired reports whether token carries an exp claim in the past. Opaque tokens are never
// considered expired.
func Expired(token string, now time.Time) bool {
	j, err := NewJwtHelper(token)
	if err != nil {
		return false
	}
	exp, ok := j.ExpiresAt()
	return ok && !now.Before(exp)
}
