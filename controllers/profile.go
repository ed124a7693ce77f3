package controllers

import (
	"net/http"
	"strconv"

	"EchoAI/middleware"
	"EchoAI/models"
	utils "EchoAI/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr, _ := c.Get(middleware.ContextUserIDKey)
		uidStr, _ := userIDStr.(string)
		uid, _ := strconv.Atoi(uidStr)

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":       user.ID,
			"username": user.Username,
		})
	}
}

// ChangePassword verifies the old password before storing the new hash.
func ChangePassword(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr, _ := c.Get(middleware.ContextUserIDKey)
		uidStr, _ := userIDStr.(string)
		uid, _ := strconv.Atoi(uidStr)

		var body struct {
			OldPassword string `json:"old_password"`
			NewPassword string `json:"new_password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.OldPassword == "" || body.NewPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "old and new passwords are required"})
			return
		}

		var user models.User
		if err := db.First(&user, uid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "User not found"})
			return
		}
		if !user.CheckPassword(body.OldPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "old password is incorrect"})
			return
		}
		if !utils.HasLetter(body.NewPassword) || !utils.HasNumber(body.NewPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "New password must contain at least one letter and one number"})
			return
		}
		if err := user.SetPassword(body.NewPassword); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to set password"})
			return
		}
		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to update password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "password changed"})
	}
}
