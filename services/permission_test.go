package services

import (
	"net/http/httptest"
	"testing"

	"puja-booking/constants"
	"puja-booking/services/booking"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func actorFor(t *testing.T, claims jwt.MapClaims) (booking.Actor, error) {
	t.Helper()
	ps := NewPermissionService()
	var (
		actor booking.Actor
		err   error
	)
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if claims != nil {
			c.Locals("user", claims)
		}
		actor, err = ps.Actor(c)
		return c.SendStatus(fiber.StatusOK)
	})
	if _, testErr := app.Test(httptest.NewRequest("GET", "/", nil)); testErr != nil {
		t.Fatalf("request: %v", testErr)
	}
	return actor, err
}

func TestPermissionService_Actor(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   booking.Actor
		err    bool
	}{
		{
			name:   "customer",
			claims: jwt.MapClaims{"user_id": "u1", "permissions": []interface{}{constants.PermCustomerFull}},
			want:   booking.Actor{ID: "u1", Role: constants.RoleCustomer},
		},
		{
			name:   "highest privilege wins",
			claims: jwt.MapClaims{"user_id": "u2", "permissions": []interface{}{constants.PermCustomerFull, constants.PermLogisticsFull}},
			want:   booking.Actor{ID: "u2", Role: constants.RoleLogistics},
		},
		{
			name:   "no booking role",
			claims: jwt.MapClaims{"user_id": "u3", "permissions": []interface{}{"other.app"}},
			err:    true,
		},
		{
			name:   "no user id",
			claims: jwt.MapClaims{"permissions": []interface{}{constants.PermAdminFull}},
			err:    true,
		},
		{name: "unauthenticated", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := actorFor(t, tc.claims)
			if tc.err {
				if err != ErrNoActor {
					t.Fatalf("expected ErrNoActor, got %v (%+v)", err, got)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %+v, %v; want %+v", got, err, tc.want)
			}
		})
	}
}
