package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"chatterbox/backend/internal/config"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const clientIDKey = "client_id"

// ErrInvalidClientToken is returned for tokens that fail verification.
var ErrInvalidClientToken = errors.New("invalid client token")

// generateClientToken signs a browser identity token carrying clientID.
func (h *Handler) generateClientToken(clientID string) (string, error) {
	claims := jwt.MapClaims{
		clientIDKey: clientID,
		"exp":       time.Now().Add(config.ClientTokenTTL).Unix(),
		"iat":       time.Now().Unix(),
		"iss":       config.ClientTokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// validateClientToken verifies tokenString and returns its client id.
func (h *Handler) validateClientToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return h.JWTSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.ClientTokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidClientToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidClientToken
	}
	clientID, _ := claims[clientIDKey].(string)
	if _, err := uuid.Parse(clientID); err != nil {
		return "", fmt.Errorf("%w: bad client id", ErrInvalidClientToken)
	}
	return clientID, nil
}

// GetClient issues a new browser identity. The token only scopes stored
// conversations; it does not authenticate a user.
func (h *Handler) GetClient(c *gin.Context) {
	clientID := uuid.NewString()

	token, err := h.generateClientToken(clientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, clientIDKey: clientID})
}

// tokenFromRequest reads a Bearer header, falling back to ?token= for
// browsers that cannot set headers on a WebSocket handshake.
func tokenFromRequest(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("token")
}

// RequireClient rejects requests without a valid client token and stores the
// client id on the context.
func (h *Handler) RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Client token missing"})
			return
		}

		clientID, err := h.validateClientToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}

		c.Set(clientIDKey, clientID)
		c.Next()
	}
}
