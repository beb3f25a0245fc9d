package serverutils

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const LocalOrganizationID = "organization_id"

// SessionMiddleware reads an optional bearer token. Requests without one pass
// through; a present token must be valid and its organization_id claim is
// stored for TeamMatches. An empty secret disables the check.
func SessionMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		tokenStr := ctx.Query("token")
		if authHeader := ctx.Get("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
		if tokenStr == "" {
			return ctx.Next()
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.ErrUnauthorized
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
		}
		org, _ := claims[LocalOrganizationID].(string)
		if org == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token missing organization_id")
		}

		ctx.Locals(LocalOrganizationID, org)
		return ctx.Next()
	}
}

// TeamMatches reports whether teamID is allowed for the request's token.
// Anonymous requests may use any team.
func TeamMatches(ctx *fiber.Ctx, teamID string) bool {
	org, ok := ctx.Locals(LocalOrganizationID).(string)
	return !ok || org == teamID
}
