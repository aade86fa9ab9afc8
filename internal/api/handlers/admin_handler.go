package handlers

import (
	"errors"
	"net/http"

	"bloodlink-api-server/internal/auth"
	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AdminHandler struct {
	Users *store.UserStore
}

// ListUsers returns all users, optionally filtered by ?role=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Users.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

type CreateUserBody struct {
	Name               string `json:"name" binding:"required"`
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,min=6"`
	Role               string `json:"role" binding:"required"`
	Phone              string `json:"phone" binding:"required"`
	BloodGroup         string `json:"bloodGroup"`
	AffiliatedHospital string `json:"affiliatedHospital"`
}

var adminCreatableRoles = map[string]bool{
	models.RoleDonor:     true,
	models.RoleHospital:  true,
	models.RoleBloodBank: true,
	models.RoleCollector: true,
	models.RoleAdmin:     true,
}

// CreateUser lets an admin create any account, including collectors with
// an affiliated hospital and further admins.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var body CreateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !adminCreatableRoles[body.Role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}
	if body.BloodGroup != "" && !models.IsValidBloodGroup(body.BloodGroup) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid blood group"})
		return
	}

	var affiliated *primitive.ObjectID
	if body.AffiliatedHospital != "" {
		id, err := primitive.ObjectIDFromHex(body.AffiliatedHospital)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid affiliatedHospital"})
			return
		}
		if _, err := h.Users.FindByID(c.Request.Context(), id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Affiliated hospital not found"})
			return
		}
		affiliated = &id
	}

	hashedPassword, err := auth.HashPassword(body.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Name:               body.Name,
		Email:              body.Email,
		Password:           hashedPassword,
		Role:               body.Role,
		Phone:              body.Phone,
		BloodGroup:         body.BloodGroup,
		BloodLinkID:        newBloodLinkID(),
		AffiliatedHospital: affiliated,
	}
	if err := h.Users.Insert(c.Request.Context(), user); err != nil {
		if errors.Is(err, engine.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email or phone already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

type UpdateUserBody struct {
	Name               string `json:"name"`
	Role               string `json:"role"`
	AffiliatedHospital string `json:"affiliatedHospital"`
}

// UpdateUser changes administrative fields on an account.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body UpdateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := bson.M{}
	if body.Name != "" {
		fields["name"] = body.Name
	}
	if body.Role != "" {
		if !adminCreatableRoles[body.Role] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		fields["role"] = body.Role
	}
	if body.AffiliatedHospital != "" {
		hospitalID, err := primitive.ObjectIDFromHex(body.AffiliatedHospital)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid affiliatedHospital"})
			return
		}
		fields["affiliatedHospital"] = hospitalID
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	user, err := h.Users.UpdateProfile(c.Request.Context(), id, fields)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
