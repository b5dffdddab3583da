// Package jwtware runs the shared token validator on every protected
// request. It is instantiated identically in every resource service:
// same validator implementation, each service's own Config providing
// the key material.
package jwtware

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	taskguard "github.com/goliatone/go-taskguard"
)

var defaultTokenLookup = "header:" + fiber.HeaderAuthorization

type Config struct {
	// Filter marks public routes; when it returns true the request
	// bypasses token validation entirely.
	Filter         func(*fiber.Ctx) bool
	SuccessHandler fiber.Handler
	ErrorHandler   fiber.ErrorHandler

	// TokenValidator validates raw tokens. When nil, one is built from
	// SigningKeys/JWKSetURLs/KeyFunc.
	TokenValidator taskguard.TokenValidator

	SigningKey  SigningKey
	SigningKeys map[string]SigningKey
	KeyFunc     jwt.Keyfunc
	JWKSetURLs  []string

	// ContextKey is the locals key holding the validated claims;
	// PrincipalKey holds the derived Principal.
	ContextKey   string
	PrincipalKey string
	TokenLookup  string
	AuthScheme   string
}

type SigningKey struct {
	JWTAlg string
	Key    any
}

// New returns the middleware. On success the Principal is available
// both in fiber locals and on the request's user context.
func New(config ...Config) fiber.Handler {
	cfg := GetDefaultConfig(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := ExtractRawToken(c, cfg.getExtractors())
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		claims, err := cfg.TokenValidator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		principal, err := taskguard.PrincipalFromClaims(claims)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, claims)
		c.Locals(cfg.PrincipalKey, principal)

		ctx := taskguard.WithClaimsContext(c.UserContext(), claims)
		c.SetUserContext(taskguard.WithPrincipal(ctx, principal))

		return cfg.SuccessHandler(c)
	}
}

// PrincipalFromCtx returns the Principal the middleware attached, or
// ErrTokenMissing when the route was reached without one.
func PrincipalFromCtx(c *fiber.Ctx, key ...string) (*taskguard.Principal, error) {
	k := "principal"
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}

	principal, ok := c.Locals(k).(*taskguard.Principal)
	if !ok || principal == nil {
		return nil, taskguard.ErrTokenMissing
	}

	return principal, nil
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = taskguard.WriteError
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.PrincipalKey == "" {
		cfg.PrincipalKey = "principal"
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = defaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	if cfg.KeyFunc == nil {
		if len(cfg.SigningKeys) > 0 || len(cfg.JWKSetURLs) > 0 {
			var givenKeys map[string]keyfunc.GivenKey
			if cfg.SigningKeys != nil {
				givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
				for kid, key := range cfg.SigningKeys {
					givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
						Algorithm: key.JWTAlg,
					})
				}
			}
			if len(cfg.JWKSetURLs) > 0 {
				var err error
				cfg.KeyFunc, err = multiKeyfunc(givenKeys, cfg.JWKSetURLs)
				if err != nil {
					panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
				}
			} else {
				cfg.KeyFunc = keyfunc.NewGiven(givenKeys).Keyfunc
			}
		} else if cfg.SigningKey.Key != nil {
			cfg.KeyFunc = signingKeyFunc(cfg.SigningKey)
		}
	}

	if cfg.TokenValidator == nil {
		if cfg.KeyFunc == nil {
			panic("AUTH: JWT middleware configuration: TokenValidator or key material (KeyFunc, JWKSetURLs, SigningKeys, SigningKey) is required.")
		}
		cfg.TokenValidator = NewKeyfuncValidator(cfg.KeyFunc)
	}

	return cfg
}

// NewKeyfuncValidator adapts a jwt.Keyfunc (static given keys or a JWK
// set) into the shared TokenValidator contract, with the same error
// taxonomy and leeway as the HMAC token service.
func NewKeyfuncValidator(kf jwt.Keyfunc) taskguard.TokenValidator {
	return taskguard.TokenValidatorFunc(func(tokenString string) (taskguard.AuthClaims, error) {
		token, err := jwt.ParseWithClaims(
			tokenString,
			&taskguard.JWTClaims{},
			kf,
			jwt.WithLeeway(taskguard.DefaultLeeway),
			jwt.WithExpirationRequired(),
		)
		if err != nil {
			if strings.Contains(err.Error(), jwt.ErrTokenExpired.Error()) {
				return nil, taskguard.ErrTokenExpired
			}
			if strings.Contains(err.Error(), jwt.ErrTokenSignatureInvalid.Error()) {
				return nil, taskguard.ErrTokenSignatureInvalid
			}
			return nil, taskguard.ErrTokenMalformed
		}

		claims, ok := token.Claims.(*taskguard.JWTClaims)
		if !ok || !token.Valid {
			return nil, taskguard.ErrUnableToMapClaims
		}

		return claims, nil
	})
}

func multiKeyfunc(givenKeys map[string]keyfunc.GivenKey, jwtSetUrls []string) (jwt.Keyfunc, error) {
	opts := keyfuncOptions(givenKeys)
	m := make(map[string]keyfunc.Options, len(jwtSetUrls))
	for _, url := range jwtSetUrls {
		m[url] = opts
	}
	mopts := keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	}
	multi, err := keyfunc.GetMultiple(m, mopts)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWT URLs: %w", err)
	}
	return multi.Keyfunc, nil
}

func keyfuncOptions(givenKeys map[string]keyfunc.GivenKey) keyfunc.Options {
	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

func (cfg *Config) getExtractors() []JWTExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}

func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	authScheme := "Bearer"
	if len(authSchemes) > 0 {
		authScheme = authSchemes[0]
	}

	// header:Authorization,cookie:jwt,query:auth_token,param:token
	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.Split(strings.TrimSpace(rootPart), ":")

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

// ExtractRawToken walks the extractors and returns the first raw token
// found. Absence and malformed schemes keep their distinct errors so
// the response can say which one happened.
func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	var raw string
	var err error

	for _, extractor := range extractors {
		raw, err = extractor(c)
		if raw != "" && err == nil {
			break
		}
	}

	return raw, err
}

type JWTExtractor func(c *fiber.Ctx) (string, error)

// jwtFromHeader returns a function that extracts the token from the
// request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		if a == "" {
			return "", taskguard.ErrTokenMissing
		}

		authScheme = strings.TrimSpace(authScheme)
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) {
			return strings.TrimSpace(a[l:]), nil
		}

		return "", taskguard.ErrTokenMalformed
	}
}

// jwtFromQuery returns a function that extracts the token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", taskguard.ErrTokenMissing
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts the token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", taskguard.ErrTokenMissing
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts the token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", taskguard.ErrTokenMissing
		}
		return token, nil
	}
}

func signingKeyFunc(key SigningKey) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if key.JWTAlg != "" {
			alg, ok := token.Header["alg"].(string)
			if !ok {
				return nil, fmt.Errorf("unexpected JWT signing method: expected %q got: missing json type", key.JWTAlg)
			}
			if alg != key.JWTAlg {
				return nil, fmt.Errorf("unexpected jwt signing method: expected: %q: got: %q", key.JWTAlg, alg)
			}
		}
		return key.Key, nil
	}
}
