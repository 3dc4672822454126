package radiko

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	radihttp "github.com/minolabo/radirec/internal/http"
	"github.com/minolabo/radirec/internal/radiko/dto"
)

// authKey is the shared client secret published in radiko's web player
// (apps/js/playerCommon.js). The server picks an offset and length per
// handshake; the base64 of the selected substring proves key
// possession.
const authKey = "bcd151073c03b352e1ef2fd66c32209da9ca0afa"

const (
	defaultLoginURL = "https://radiko.jp/v4/api/member/login"
	defaultAuth1URL = "https://radiko.jp/v2/api/auth1"
	defaultAuth2URL = "https://radiko.jp/v2/api/auth2"
)

// App identity presented to auth1. These match the web player; the
// token they produce is accepted for time-free playlist creation.
const (
	appName    = "pc_html5"
	appVersion = "0.0.1"
	appDevice  = "pc"
	appUser    = "dummy_user"
)

var (
	// ErrAuth is wrapped by every fatal authentication failure.
	ErrAuth = errors.New("radiko authentication failed")

	// ErrNoSession is returned by Login when the service accepted the
	// request but issued no premium session. Callers degrade to the
	// anonymous tier.
	ErrNoSession = errors.New("login response carried no radiko_session")
)

// Credentials is the immutable outcome of one successful handshake.
// It is consumed by every subsequent request of the job and must not
// be reused across jobs.
type Credentials struct {
	// AuthToken authenticates playlist creation requests.
	AuthToken string

	// AreaID is the session's resolved home area.
	AreaID string

	// Session is the premium radiko_session, empty for anonymous
	// sessions.
	Session string
}

// Premium reports whether the credentials carry a premium session.
func (c Credentials) Premium() bool {
	return c.Session != ""
}

// AuthSession performs the radiko authentication handshake.
type AuthSession struct {
	client *radihttp.Client

	// LoginURL, Auth1URL and Auth2URL override the production
	// endpoints, mainly for tests.
	LoginURL string
	Auth1URL string
	Auth2URL string
}

// NewAuthSession creates an AuthSession using the production endpoints.
func NewAuthSession(client *radihttp.Client) *AuthSession {
	return &AuthSession{
		client:   client,
		LoginURL: defaultLoginURL,
		Auth1URL: defaultAuth1URL,
		Auth2URL: defaultAuth2URL,
	}
}

// Login binds a premium session for the given account and returns the
// radiko_session value.
//
// Login failure is not fatal to a recording: callers log it and
// continue with an anonymous session.
func (a *AuthSession) Login(ctx context.Context, mail, password string) (string, error) {
	form := url.Values{"mail": {mail}, "pass": {password}}
	body, err := a.client.PostForm(ctx, a.LoginURL, form)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}

	var res dto.LoginResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	if res.RadikoSession == "" {
		return "", ErrNoSession
	}
	return res.RadikoSession, nil
}

// Authorize performs the two-stage handshake and returns the job's
// credentials. session may be empty for anonymous use.
//
// Stage one requests a token with the fixed app identity; the server
// answers with the token plus the offset/length selecting the partial
// key. Stage two presents the token and the derived partial key (and
// the premium session, when present); its body's first comma-separated
// field is the resolved home area id.
func (a *AuthSession) Authorize(ctx context.Context, session string) (Credentials, error) {
	_, hdr, err := a.client.GetWithHeaders(ctx, a.Auth1URL, map[string]string{
		"X-Radiko-App":         appName,
		"X-Radiko-App-Version": appVersion,
		"X-Radiko-Device":      appDevice,
		"X-Radiko-User":        appUser,
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: auth1: %w", ErrAuth, err)
	}

	token := hdr.Get("X-Radiko-AuthToken")
	if token == "" {
		return Credentials{}, fmt.Errorf("%w: auth1 response missing X-Radiko-AuthToken", ErrAuth)
	}
	offset, err := strconv.Atoi(hdr.Get("X-Radiko-KeyOffset"))
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: bad X-Radiko-KeyOffset: %w", ErrAuth, err)
	}
	length, err := strconv.Atoi(hdr.Get("X-Radiko-KeyLength"))
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: bad X-Radiko-KeyLength: %w", ErrAuth, err)
	}

	partialKey, err := PartialKey(authKey, offset, length)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %w", ErrAuth, err)
	}

	auth2 := a.Auth2URL
	if session != "" {
		auth2 += "?radiko_session=" + url.QueryEscape(session)
	}
	body, _, err := a.client.GetWithHeaders(ctx, auth2, map[string]string{
		"X-Radiko-Device":     appDevice,
		"X-Radiko-User":       appUser,
		"X-Radiko-AuthToken":  token,
		"X-Radiko-PartialKey": partialKey,
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: auth2: %w", ErrAuth, err)
	}

	areaID, _, _ := strings.Cut(string(body), ",")
	areaID = strings.TrimSpace(areaID)
	if areaID == "" {
		return Credentials{}, fmt.Errorf("%w: auth2 response carried no area id", ErrAuth)
	}

	return Credentials{AuthToken: token, AreaID: areaID, Session: session}, nil
}

// PartialKey derives the handshake proof: the base64 encoding of
// secret[offset : offset+length]. Deterministic in all three inputs.
func PartialKey(secret string, offset, length int) (string, error) {
	if offset < 0 || length <= 0 || offset+length > len(secret) {
		return "", fmt.Errorf("key slice [%d:%d] out of range for %d-byte secret", offset, offset+length, len(secret))
	}
	return base64.StdEncoding.EncodeToString([]byte(secret[offset : offset+length])), nil
}
