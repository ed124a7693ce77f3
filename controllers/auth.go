package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"EchoAI/middleware"
	"EchoAI/models"
	"EchoAI/pkg/config"
	tokenstore "EchoAI/pkg/token"
	utils "EchoAI/pkg/utills"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Register handler
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username        string `json:"username"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
			return
		}

		username := strings.TrimSpace(body.Username)
		password := body.Password

		if username == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required"})
			return
		}
		if body.ConfirmPassword != "" && body.ConfirmPassword != password {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Passwords do not match"})
			return
		}
		if !utils.HasLetter(password) || !utils.HasNumber(password) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Password must contain at least one letter and one number"})
			return
		}

		var exists models.User
		if err := db.Where("username = ?", username).First(&exists).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username already exists"})
			return
		} else if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "db error"})
			return
		}

		user := models.User{Username: username}
		if err := user.SetPassword(password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to set password"})
			return
		}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create user"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Registration successful"})
	}
}

// Login handler
func Login(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
			return
		}
		username := strings.TrimSpace(body.Username)
		password := body.Password

		if username == "" || password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Username and password are required"})
			return
		}

		var user models.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
			return
		}
		if !user.CheckPassword(password) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
			return
		}

		// create JWT with 1 day expiry
		jti := uuid.NewString()
		claims := jwt.MapClaims{
			"sub": strconv.Itoa(int(user.ID)),
			"exp": time.Now().Add(24 * time.Hour).Unix(),
			"jti": jti,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		tokenStr, err := token.SignedString([]byte(config.JWTSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "token": tokenStr, "username": user.Username})
	}
}

// Logout handler
func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		jti, _ := c.Get(middleware.ContextJTIKey)
		if s, ok := jti.(string); ok && s != "" {
			tokenstore.RevokeToken(s)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
	}
}
