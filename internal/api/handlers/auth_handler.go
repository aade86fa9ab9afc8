package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"bloodlink-api-server/internal/auth"
	"bloodlink-api-server/internal/engine"
	"bloodlink-api-server/internal/models"
	"bloodlink-api-server/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

type AuthHandler struct {
	Users     *store.UserStore
	JWTSecret []byte
	JWTTTL    time.Duration
}

type RegisterRequest struct {
	Name       string  `json:"name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Password   string  `json:"password" binding:"required,min=6"`
	Role       string  `json:"role" binding:"required"`
	Phone      string  `json:"phone" binding:"required"`
	BloodGroup string  `json:"bloodGroup"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Location   string  `json:"location"`
	Weight     float64 `json:"weight"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

var registrableRoles = map[string]bool{
	models.RoleDonor:     true,
	models.RoleHospital:  true,
	models.RoleBloodBank: true,
	models.RoleCollector: true,
}

// Register creates a user account. Admin accounts cannot be self-registered.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !registrableRoles[req.Role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}
	if req.BloodGroup != "" && !models.IsValidBloodGroup(req.BloodGroup) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid blood group"})
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := &models.User{
		Name:        req.Name,
		Email:       req.Email,
		Password:    hashedPassword,
		Role:        req.Role,
		Phone:       req.Phone,
		BloodGroup:  req.BloodGroup,
		BloodLinkID: newBloodLinkID(),
		Address:     req.Address,
		City:        req.City,
		Location:    req.Location,
		Weight:      req.Weight,
	}

	if err := h.Users.Insert(c.Request.Context(), user); err != nil {
		if errors.Is(err, engine.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email or phone already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := auth.GenerateJWT(h.JWTSecret, user.ID, user.Email, user.Role, h.JWTTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user})
}

// Login checks credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateJWT(h.JWTSecret, user.ID, user.Email, user.Role, h.JWTTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	actor := actorFrom(c)
	user, err := h.Users.FindByID(c.Request.Context(), actor.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateProfileRequest struct {
	Name       string  `json:"name"`
	Phone      string  `json:"phone"`
	BloodGroup string  `json:"bloodGroup"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	Location   string  `json:"location"`
	Weight     float64 `json:"weight"`
}

// UpdateProfile updates the caller's own mutable fields. Role, email and
// lastDonationDate are deliberately not updatable here.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BloodGroup != "" && !models.IsValidBloodGroup(req.BloodGroup) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid blood group"})
		return
	}

	fields := bson.M{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Phone != "" {
		fields["phone"] = req.Phone
	}
	if req.BloodGroup != "" {
		fields["bloodGroup"] = req.BloodGroup
	}
	if req.Address != "" {
		fields["address"] = req.Address
	}
	if req.City != "" {
		fields["city"] = req.City
	}
	if req.Location != "" {
		fields["location"] = req.Location
	}
	if req.Weight > 0 {
		fields["weight"] = req.Weight
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	actor := actorFrom(c)
	user, err := h.Users.UpdateProfile(c.Request.Context(), actor.ID, fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// newBloodLinkID generates the short donor-facing identifier printed on
// donor cards: 40 random bits rendered as 10 hex digits.
func newBloodLinkID() string {
	u := uuid.New()
	return fmt.Sprintf("BL-%X", u[:5])
}
