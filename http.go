package taskguard

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// StatusFromError maps the error taxonomy to HTTP status codes:
// identity failures 401, ownership failures 403, malformed input 400.
func StatusFromError(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return fiber.StatusInternalServerError
	}

	if richErr.Code > 0 {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// WriteError renders the structured error as the JSON error envelope
// used across every endpoint.
func WriteError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred")
	}

	body := fiber.Map{
		"error": fiber.Map{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	}

	if vm := richErr.ValidationMap(); len(vm) > 0 {
		body["validation"] = vm
	}

	return c.Status(StatusFromError(richErr)).JSON(body)
}

type AuthControllerRoutes struct {
	Login    string
	Register string
}

// AuthController exposes the issuer over HTTP as a JSON API.
type AuthController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther Authenticator
	Routes *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/api/auth/login",
			Register: "/api/auth/register",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

func (a *AuthController) WithLogger(l Logger) *AuthController {
	a.Logger = l
	return a
}

// RegisterAuthRoutes mounts the public endpoints. These routes bypass
// the JWT middleware; everything else requires a bearer token.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Register, controller.RegistrationCreate)

	return controller
}

// LoginRequest payload
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules. Malformed input is a 400-class
// failure the caller can correct locally, distinct from a credential
// failure.
func (r LoginRequest) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login request payload")
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("login validate payload", "error", err)
		return WriteError(c, err)
	}

	if a.Debug {
		a.Logger.Debug("login payload", "payload", print.MaybePrettyJSON(payload))
	}

	issued, err := a.Auther.Login(c.Context(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Error("login failed", "username", payload.Username, "error", err)
		return WriteError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(issued)
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
			validation.Field(&r.Email, validation.Length(6, 100), is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
			validation.Field(
				&r.ConfirmPassword,
				validation.Required,
				validation.Length(10, 100),
				validation.By(ValidateStringEquals(r.Password)),
			),
		)
	}, "Invalid registration payload")
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return WriteError(c, errors.Wrap(err, errors.CategoryBadInput, "Failed to parse registration payload"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return WriteError(c, err)
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	user, err := registerUser.Execute(c.Context(), RegisterUserMessage{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		a.Logger.Error("register user failed", "error", err)
		return WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}
