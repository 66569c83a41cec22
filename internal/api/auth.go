package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"kitchenrush/internal/config"
)

// GuestUser attributes sessions started without a token
const GuestUser = "guest"

const userIDKey = "user_id"

// AuthMiddleware reads the player id from the token's sub claim. Without a
// configured secret every caller is a guest; without a token the caller is a
// guest unless auth is required.
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || cfg.JWTSecret == "" {
			if cfg.Required {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
				c.Abort()
				return
			}
			c.Set(userIDKey, GuestUser)
			c.Next()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		sub, _ := claims["sub"].(string)
		if !ok || sub == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			c.Abort()
			return
		}

		c.Set(userIDKey, sub)
		c.Next()
	}
}

// UserID returns the caller set by AuthMiddleware
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return GuestUser
}
