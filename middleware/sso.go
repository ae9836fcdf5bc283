package middleware

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"puja-booking/constants"
	"puja-booking/logger"
	"puja-booking/types"
)

var ErrNoVerificationKey = errors.New("no token verification key configured")

// FetchPublicKey fetches the public key from the given URL.
func FetchPublicKey(client *http.Client, url string) (*rsa.PublicKey, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch public key: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// The identity service answers with a JSON object holding a "key" field.
	keyResponse := struct {
		Key string `json:"key"`
	}{}
	if err := json.Unmarshal(body, &keyResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal public key response: %w", err)
	}

	block, _ := pem.Decode([]byte(keyResponse.Key))
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("failed to decode PEM block containing public key")
	}

	pubKey, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPubKey, ok := pubKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return rsaPubKey, nil
}

// Verifier checks bearer tokens. With a public key URL it expects RS256 and
// caches the key; otherwise it falls back to HS256 with a shared secret.
type Verifier struct {
	publicKeyURL string
	secret       []byte
	httpClient   *http.Client

	mu  sync.RWMutex
	key *rsa.PublicKey
}

func NewVerifier(publicKeyURL, secret string) *Verifier {
	return &Verifier{
		publicKeyURL: publicKeyURL,
		secret:       []byte(secret),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) publicKey(refresh bool) (*rsa.PublicKey, error) {
	if !refresh {
		v.mu.RLock()
		key := v.key
		v.mu.RUnlock()
		if key != nil {
			return key, nil
		}
	}
	key, err := FetchPublicKey(v.httpClient, v.publicKeyURL)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.key = key
	v.mu.Unlock()
	return key, nil
}

// VerifyJWT validates the token and returns its claims.
func (v *Verifier) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	if v.publicKeyURL == "" {
		if len(v.secret) == 0 {
			return nil, ErrNoVerificationKey
		}
		return parseClaims(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		})
	}

	claims, err := v.verifyRSA(tokenString, false)
	if err != nil && errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		// the identity service may have rotated its key
		claims, err = v.verifyRSA(tokenString, true)
	}
	return claims, err
}

func (v *Verifier) verifyRSA(tokenString string, refresh bool) (jwt.MapClaims, error) {
	publicKey, err := v.publicKey(refresh)
	if err != nil {
		return nil, err
	}
	return parseClaims(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
}

func parseClaims(tokenString string, keyFunc jwt.Keyfunc) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, keyFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}

func hasPermission(claims jwt.MapClaims, requiredPermissions []string) bool {
	// "any" only needs a valid token
	for _, requiredPerm := range requiredPermissions {
		if requiredPerm == constants.PermAny {
			return true
		}
	}

	permissionSet := extractUserPermissionsFromClaims(claims)
	for _, requiredPerm := range requiredPermissions {
		if permissionSet[requiredPerm] {
			return true
		}
	}
	return false
}

// IsAuthenticated checks for a valid token carrying one of the permissions.
func (v *Verifier) IsAuthenticated(requiredPermissions []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string

		if authHeader != "" {
			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Message: "Invalid authorization header format",
					Status:  fiber.StatusUnauthorized,
				})
			}
			token = tokenParts[1]
		} else {
			// Try to get token from cookie as fallback
			token = c.Cookies("access")
			if token == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
					Message: "Authorization token missing",
					Status:  fiber.StatusUnauthorized,
				})
			}
		}

		claims, err := v.VerifyJWT(token)
		if err != nil {
			logger.Warning(fmt.Sprintf("JWT verification failed: %v", err))
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.",
				Status:  fiber.StatusUnauthorized,
			})
		}
		if !hasPermission(claims, requiredPermissions) {
			return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
				Message: "Insufficient permissions",
				Status:  fiber.StatusForbidden,
			})
		}
		if id, _ := claims["user_id"].(string); id == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Session expired. Login again.",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals("user", claims)
		c.Locals("permissions", extractUserPermissionsFromClaims(claims))
		return c.Next()
	}
}
