package services

import (
	"errors"

	"puja-booking/constants"
	"puja-booking/middleware"
	"puja-booking/services/booking"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrNoActor = errors.New("request carries no booking role")

type PermissionService struct{}

func NewPermissionService() *PermissionService {
	return &PermissionService{}
}

// GetUserInfo returns user information from JWT claims
func (ps *PermissionService) GetUserInfo(c *fiber.Ctx) (jwt.MapClaims, bool) {
	userClaims, ok := c.Locals("user").(jwt.MapClaims)
	return userClaims, ok
}

// GetUserID returns user ID from JWT claims
func (ps *PermissionService) GetUserID(c *fiber.Ctx) (string, bool) {
	userClaims, ok := ps.GetUserInfo(c)
	if !ok {
		return "", false
	}

	userID, ok := userClaims["user_id"].(string)
	return userID, ok && userID != ""
}

// Role picks the most privileged booking role the token grants.
func (ps *PermissionService) Role(c *fiber.Ctx) (constants.Role, bool) {
	userPermissions := middleware.GetUserPermissions(c)
	for _, rp := range constants.RolePermissions {
		if userPermissions[rp.Permission] {
			return rp.Role, true
		}
	}
	return "", false
}

// Actor identifies who is acting on a booking in this request.
func (ps *PermissionService) Actor(c *fiber.Ctx) (booking.Actor, error) {
	id, ok := ps.GetUserID(c)
	if !ok {
		return booking.Actor{}, ErrNoActor
	}
	role, ok := ps.Role(c)
	if !ok {
		return booking.Actor{}, ErrNoActor
	}
	return booking.Actor{ID: id, Role: role}, nil
}
