package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskboard/internal/service"
)

// AccountHandlers serves registration, authentication and profile
// endpoints.
type AccountHandlers struct {
	accounts *service.AccountService
	profiles *service.ProfileService
}

func NewAccountHandlers(accounts *service.AccountService, profiles *service.ProfileService) *AccountHandlers {
	return &AccountHandlers{accounts: accounts, profiles: profiles}
}

// Register handles user registration.
func (h *AccountHandlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	u, err := h.accounts.Register(c.UserContext(), &service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Role:            req.Role,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toUserResponse(u, true))
}

// Login handles user login.
func (h *AccountHandlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	u, pair, err := h.accounts.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	user := toUserResponse(u, true)
	return c.JSON(TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		TokenType:    "Bearer",
		User:         &user,
	})
}

// Refresh handles token refresh.
func (h *AccountHandlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Refresh token is required")
	}

	token, expiresIn, err := h.accounts.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(TokenResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

// Me handles GET /profile.
func (h *AccountHandlers) Me(c *fiber.Ctx) error {
	id, err := requesterID(c)
	if err != nil {
		return err
	}
	u, p, err := h.accounts.GetAccount(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toProfileResponse(u, p, true))
}

// UpdateAccount handles PATCH /profile.
func (h *AccountHandlers) UpdateAccount(c *fiber.Ctx) error {
	id, err := requesterID(c)
	if err != nil {
		return err
	}

	var req UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if _, err := h.accounts.UpdateAccount(c.UserContext(), id, &service.UpdateAccountInput{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	}); err != nil {
		return err
	}
	return h.Me(c)
}

// UploadImage handles the multipart POST /profile/image.
func (h *AccountHandlers) UploadImage(c *fiber.Ctx) error {
	id, err := requesterID(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("image")
	if err != nil {
		return &service.ValidationError{Field: "image", Message: "an image file is required"}
	}
	f, err := header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := h.profiles.UpdateProfileImage(c.UserContext(), id, header.Filename, f); err != nil {
		return err
	}
	return h.Me(c)
}

// DeleteAccount handles DELETE /profile.
func (h *AccountHandlers) DeleteAccount(c *fiber.Ctx) error {
	id, err := requesterID(c)
	if err != nil {
		return err
	}
	if err := h.accounts.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PublicProfile handles GET /users/:username/profile.
func (h *AccountHandlers) PublicProfile(c *fiber.Ctx) error {
	u, p, err := h.profiles.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(toProfileResponse(u, p, false))
}
