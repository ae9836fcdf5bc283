package middleware

import (
	"crypto/subtle"

	"puja-booking/constants"
	"puja-booking/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Permission helper functions to work with existing middleware

// RequirePermissions is a helper function that creates a middleware with specific permissions
func (v *Verifier) RequirePermissions(permissions ...string) fiber.Handler {
	return v.IsAuthenticated(permissions)
}

// RequireAuthentication only requires valid authentication without specific permissions
func (v *Verifier) RequireAuthentication() fiber.Handler {
	return v.IsAuthenticated([]string{constants.PermAny})
}

// RequireSharedSecret guards machine-to-machine callbacks such as the
// payment gateway webhook.
func RequireSharedSecret(header, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(header)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
				Message: "Invalid callback signature",
				Status:  fiber.StatusUnauthorized,
			})
		}
		return c.Next()
	}
}

// GetUserPermissions returns all user permissions from context
func GetUserPermissions(c *fiber.Ctx) map[string]bool {
	userPermissions, ok := c.Locals("permissions").(map[string]bool)
	if !ok {
		// Fallback to extracting from user claims
		userClaims, ok := c.Locals("user").(jwt.MapClaims)
		if !ok {
			return make(map[string]bool)
		}
		return extractUserPermissionsFromClaims(userClaims)
	}
	return userPermissions
}

func extractUserPermissionsFromClaims(claims jwt.MapClaims) map[string]bool {
	permissionSet := make(map[string]bool)

	userPermissions, ok := claims["permissions"].([]interface{})
	if !ok {
		return permissionSet
	}

	for _, p := range userPermissions {
		if perm, ok := p.(string); ok {
			permissionSet[perm] = true
		}
	}

	return permissionSet
}
