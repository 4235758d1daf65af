// Package middleware is the request-processing chain run in a fixed order
// before any handler: request logging, then authentication, then rate
// limiting. Each step either annotates the context or short-circuits with a
// status code.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/venturelink/messaging/internal/access"
	"github.com/venturelink/messaging/pkg/auth"
)

const PrincipalKey = "principal"

// Principal returns the authenticated caller set by the auth middleware.
func Principal(c *gin.Context) access.Principal {
	return c.MustGet(PrincipalKey).(access.Principal)
}

// Auth verifies the bearer JWT, rejects blacklisted tokens and stores the
// principal on the context.
func Auth(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			abortUnauthorized(c, "missing or invalid token")
			return
		}
		authenticate(c, jwtManager, redisClient, token)
	}
}

// WSAuth is the websocket variant: browsers cannot set headers on upgrade
// requests, so the token may arrive as a query parameter instead.
func WSAuth(jwtManager *auth.JWTManager, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			if hdr := c.GetHeader("Authorization"); hdr != "" {
				parts := strings.SplitN(hdr, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
					token = parts[1]
				}
			}
		}
		if token == "" {
			abortUnauthorized(c, "missing token")
			return
		}
		authenticate(c, jwtManager, redisClient, token)
	}
}

func authenticate(c *gin.Context, jwtManager *auth.JWTManager, redisClient *redis.Client, token string) {
	exists, err := redisClient.Exists(context.Background(), "blacklist:"+token).Result()
	if err != nil || exists > 0 {
		abortUnauthorized(c, "token is blacklisted")
		return
	}

	claims, err := jwtManager.Verify(token)
	if err != nil {
		abortUnauthorized(c, "invalid token")
		return
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		abortUnauthorized(c, "invalid user id")
		return
	}

	c.Set(PrincipalKey, access.Principal{ID: userID, Role: claims.Role})
	c.Next()
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	c.Abort()
}
