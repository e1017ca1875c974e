package serverutils

import (
	"time"

	"speech-rehearsal-be/internal/pkg/logger"
	"speech-rehearsal-be/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookie = "rehearsal_session"
	sessionLocal  = "session"
	// Browser state never expired; ten years is close enough for a cookie.
	cookieLifetime = 10 * 365 * 24 * time.Hour
)

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

func SignSessionToken(sessionId string, secret string) (string, error) {
	claims := sessionClaims{
		SessionID: sessionId,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func parseSessionToken(tokenStr string, secret string) (string, bool) {
	token, err := jwt.ParseWithClaims(tokenStr, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(*sessionClaims)
	if !ok || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}

// SessionMiddleware resolves the signed session cookie to a stored session,
// minting a new pseudo-user when the cookie is missing, tampered with, or
// points at a session the store no longer has.
func SessionMiddleware(store session.Store, secret string, log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if sid, ok := parseSessionToken(ctx.Cookies(SessionCookie), secret); ok {
			s, err := store.Get(ctx.UserContext(), sid)
			if err != nil {
				return err
			}
			if s != nil {
				ctx.Locals(sessionLocal, s)
				return ctx.Next()
			}
		}

		s := session.New()
		if err := store.Save(ctx.UserContext(), s); err != nil {
			return err
		}
		token, err := SignSessionToken(s.ID, secret)
		if err != nil {
			return err
		}
		ctx.Cookie(&fiber.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(cookieLifetime),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		log.Info("SessionMiddleware", "New session issued", map[string]interface{}{"user_id": s.UserID})

		ctx.Locals(sessionLocal, s)
		return ctx.Next()
	}
}

// CurrentSession returns the session attached by SessionMiddleware.
func CurrentSession(ctx *fiber.Ctx) *session.Session {
	s, _ := ctx.Locals(sessionLocal).(*session.Session)
	return s
}
