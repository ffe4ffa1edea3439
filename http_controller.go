package auth

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// RegisterAuthRoutes mounts the full account lifecycle surface on the given
// router. Routes under the protected group require a bearer access token.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.Register).Name("register.post")
	app.Post(controller.Routes.VerifyOTP, controller.VerifyOTP).Name("verify-otp.post")
	app.Post(controller.Routes.Login, controller.Login).Name("sign-in.post")
	app.Post(controller.Routes.RefreshToken, controller.RefreshToken).Name("refresh-token.post")
	app.Post(controller.Routes.Logout, controller.Logout).Name("sign-out.post")
	app.Post(controller.Routes.ForgotPassword, controller.ForgotPassword).Name("forgot-password.post")
	app.Post(controller.Routes.ResetPassword, controller.ResetPassword).Name("reset-password.post")
	app.Get(controller.Routes.ResendOTP, controller.ResendOTP).Name("resend-otp.get")
	app.Get(controller.Routes.Accounts, controller.ListProfiles).Name("accounts.get")

	protect := RequireSession(controller.Tokens, controller.Logger)

	app.Put(controller.Routes.Profile, protect, controller.UpdateProfile).Name("profile.put")
	app.Put(controller.Routes.Password, protect, controller.ChangePassword).Name("password.put")
	app.Delete(controller.Routes.Account, protect, controller.DeleteAccount).Name("account.delete")
	app.Delete(controller.Routes.Accounts, protect, controller.ClearAccounts).Name("accounts.delete")
}

type AuthControllerRoutes struct {
	Register       string
	VerifyOTP      string
	Login          string
	RefreshToken   string
	Logout         string
	ForgotPassword string
	ResetPassword  string
	ResendOTP      string
	Profile        string
	Password       string
	Account        string
	Accounts       string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Tokens   TokenService
	Notifier Notifier
	OTP      OTPGenerator
	Activity ActivitySink
	Config   *Config
	Routes   *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Activity: noopActivitySink{},
		OTP:      NewOTPGenerator(),
		Routes: &AuthControllerRoutes{
			Register:       "/auth/register",
			VerifyOTP:      "/auth/verify-otp",
			Login:          "/auth/login",
			RefreshToken:   "/auth/refresh-token",
			Logout:         "/auth/logout",
			ForgotPassword: "/auth/forgot-password",
			ResetPassword:  "/auth/reset-password",
			ResendOTP:      "/auth/resend-otp/:email",
			Profile:        "/auth/profile",
			Password:       "/auth/password",
			Account:        "/auth/account",
			Accounts:       "/auth/accounts",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Notifier == nil {
		panic("Missing Notifier in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerConfig(cfg *Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		c.Debug = cfg.Debug
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerTokens(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Activity = normalizeActivitySink(sink)
		return c
	}
}

func WithControllerOTPGenerator(gen OTPGenerator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if gen != nil {
			c.OTP = gen
		}
		return c
	}
}

// RegisterPayload is the registration request body
type RegisterPayload struct {
	AccountType       string `json:"account_type"`
	FullName          string `json:"full_name"`
	ProfessionalTitle string `json:"professional_title"`
	Email             string `json:"email"`
	Password          string `json:"password"`
	ConfirmPassword   string `json:"confirm_password"`
}

// Validate will run validation rules
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccountType, validation.In(
			string(AccountTypeIndividual),
			string(AccountTypeOrganization),
		)),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	var res *RegisterAccountResponse

	req := RegisterAccountMessage{
		AccountType:       AccountType(payload.AccountType),
		FullName:          payload.FullName,
		ProfessionalTitle: payload.ProfessionalTitle,
		Email:             payload.Email,
		Password:          payload.Password,
		ConfirmPassword:   payload.ConfirmPassword,
		OnResponse: func(resp *RegisterAccountResponse) {
			res = resp
		},
	}

	handler := NewRegisterAccountHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity).
		WithOTPGenerator(a.OTP)

	if err := handler.Execute(c.Context(), req); err != nil {
		a.Logger.Error("register account error: %v", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Account registered. Check your email for the verification code.",
		"profile": res.Account.Profile(),
	})
}

// VerifyOTPPayload is the email verification request body
type VerifyOTPPayload struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Validate will run validation rules
func (r VerifyOTPPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OTP, validation.Required, validation.Length(OTPLength, OTPLength), is.Digit),
	)
}

func (a *AuthController) VerifyOTP(c *fiber.Ctx) error {
	payload := new(VerifyOTPPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	handler := NewVerifyOTPHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), VerifyOTPMessage{
		Email: payload.Email,
		OTP:   payload.OTP,
	}); err != nil {
		a.Logger.Error("verify otp error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Account verified",
	})
}

// LoginPayload is the login request body
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	var res *LoginResponse

	handler := NewLoginHandler(a.Repo, a.Tokens).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), LoginMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *LoginResponse) {
			res = resp
		},
	}); err != nil {
		a.Logger.Error("login error: %v", err)
		return a.renderError(c, err)
	}

	a.setRefreshCookie(c, res.RefreshToken)

	return c.JSON(fiber.Map{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"profile":       res.Profile,
	})
}

// RefreshTokenPayload is the token exchange request body. The token field is
// authoritative, the cookie is a convenience fallback.
type RefreshTokenPayload struct {
	Token string `json:"token"`
}

func (a *AuthController) RefreshToken(c *fiber.Ctx) error {
	payload := new(RefreshTokenPayload)

	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return a.renderParseError(c, err)
		}
	}

	if payload.Token == "" {
		payload.Token = c.Cookies(a.Config.RefreshCookieName)
	}

	var res *RefreshTokenResponse

	handler := NewRefreshTokenHandler(a.Repo, a.Tokens).
		WithLogger(a.Logger)

	if err := handler.Execute(c.Context(), RefreshTokenMessage{
		RefreshToken: payload.Token,
		OnResponse: func(resp *RefreshTokenResponse) {
			res = resp
		},
	}); err != nil {
		a.Logger.Error("refresh token error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": res.AccessToken,
	})
}

func (a *AuthController) Logout(c *fiber.Ctx) error {
	// TODO: also NULL the stored refresh token so the session cannot be
	// resumed by a client that kept a copy of the cookie value.
	a.clearRefreshCookie(c)

	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// ForgotPasswordPayload is the recovery request body
type ForgotPasswordPayload struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	handler := NewForgotPasswordHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithOTPGenerator(a.OTP)

	if err := handler.Execute(c.Context(), ForgotPasswordMessage{
		Email: payload.Email,
	}); err != nil {
		a.Logger.Error("forgot password error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password reset code sent",
	})
}

// ResetPasswordPayload is the recovery completion request body
type ResetPasswordPayload struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

// Validate will run validation rules
func (r ResetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OTP, validation.Required, validation.Length(OTPLength, OTPLength), is.Digit),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	handler := NewResetPasswordHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), ResetPasswordMessage{
		Email:       payload.Email,
		OTP:         payload.OTP,
		NewPassword: payload.NewPassword,
	}); err != nil {
		a.Logger.Error("reset password error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated",
	})
}

func (a *AuthController) ResendOTP(c *fiber.Ctx) error {
	email := c.Params("email")

	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return a.renderValidationError(c, validation.Errors{"email": err})
	}

	handler := NewResendOTPHandler(a.Repo, a.Notifier).
		WithLogger(a.Logger).
		WithOTPGenerator(a.OTP)

	if err := handler.Execute(c.Context(), ResendOTPMessage{
		Email: email,
	}); err != nil {
		a.Logger.Error("resend otp error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Verification code sent",
	})
}

// UpdateProfilePayload is the profile update request body
type UpdateProfilePayload struct {
	FullName          string `json:"full_name"`
	ProfessionalTitle string `json:"professional_title"`
	ProfilePicture    string `json:"profile_picture"`
}

// Validate will run validation rules
func (r UpdateProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.ProfessionalTitle, validation.Length(0, 200)),
		validation.Field(&r.ProfilePicture, validation.Length(0, 2048), is.URL),
	)
}

func (a *AuthController) UpdateProfile(c *fiber.Ctx) error {
	session, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	payload := new(UpdateProfilePayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	accountID, err := session.GetAccountUUID()
	if err != nil {
		return a.renderError(c, err)
	}

	var res *UpdateProfileResponse

	handler := NewUpdateProfileHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), UpdateProfileMessage{
		AccountID:         accountID,
		FullName:          payload.FullName,
		ProfessionalTitle: payload.ProfessionalTitle,
		ProfilePicture:    payload.ProfilePicture,
		OnResponse: func(resp *UpdateProfileResponse) {
			res = resp
		},
	}); err != nil {
		a.Logger.Error("update profile error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"profile": res.Profile,
	})
}

// ChangePasswordPayload is the authenticated password change request body
type ChangePasswordPayload struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Validate will run validation rules
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OldPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ChangePassword(c *fiber.Ctx) error {
	session, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	payload := new(ChangePasswordPayload)

	if err := c.BodyParser(payload); err != nil {
		return a.renderParseError(c, err)
	}

	if err := payload.Validate(); err != nil {
		return a.renderValidationError(c, err)
	}

	accountID, err := session.GetAccountUUID()
	if err != nil {
		return a.renderError(c, err)
	}

	handler := NewChangePasswordHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), ChangePasswordMessage{
		AccountID:   accountID,
		OldPassword: payload.OldPassword,
		NewPassword: payload.NewPassword,
	}); err != nil {
		a.Logger.Error("change password error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password changed",
	})
}

func (a *AuthController) DeleteAccount(c *fiber.Ctx) error {
	session, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	accountID, err := session.GetAccountUUID()
	if err != nil {
		return a.renderError(c, err)
	}

	var res *DeleteAccountResponse

	handler := NewDeleteAccountHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), DeleteAccountMessage{
		AccountID: accountID,
		OnResponse: func(resp *DeleteAccountResponse) {
			res = resp
		},
	}); err != nil {
		a.Logger.Error("delete account error: %v", err)
		return a.renderError(c, err)
	}

	a.clearRefreshCookie(c)

	return c.JSON(fiber.Map{
		"message":              "Account deleted",
		"applications_removed": res.ApplicationsRemoved,
	})
}

// ListProfiles exposes the member directory. Only summary fields are
// returned, the endpoint stays safe without a session.
func (a *AuthController) ListProfiles(c *fiber.Ctx) error {
	var res *ListProfilesResponse

	handler := NewListProfilesHandler(a.Repo).WithLogger(a.Logger)

	if err := handler.Execute(c.Context(), ListProfilesMessage{
		OnResponse: func(resp *ListProfilesResponse) {
			res = resp
		},
	}); err != nil {
		a.Logger.Error("list profiles error: %v", err)
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"profiles": res.Profiles,
		"total":    res.Total,
	})
}

// ClearAccounts wipes every account and application. Destructive enough
// to sit behind the session guard.
func (a *AuthController) ClearAccounts(c *fiber.Ctx) error {
	session, err := GetSession(c)
	if err != nil {
		return a.renderError(c, err)
	}

	var res *ClearAccountsResponse

	handler := NewClearAccountsHandler(a.Repo).
		WithLogger(a.Logger).
		WithActivitySink(a.Activity)

	if err := handler.Execute(c.Context(), ClearAccountsMessage{
		Actor: ActorRef{ID: session.GetAccountID(), Type: "account"},
		OnResponse: func(resp *ClearAccountsResponse) {
			res = resp
		},
	}); err != nil {
		a.Logger.Error("clear accounts error: %v", err)
		return a.renderError(c, err)
	}

	a.clearRefreshCookie(c)

	return c.JSON(fiber.Map{
		"message":              "All accounts have been deleted",
		"accounts_removed":     res.AccountsRemoved,
		"applications_removed": res.ApplicationsRemoved,
	})
}

func (a *AuthController) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     a.Config.RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.Config.RefreshTokenTTL.Seconds()),
		HTTPOnly: true,
		Secure:   a.Config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (a *AuthController) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     a.Config.RefreshCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   a.Config.IsProduction(),
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (a *AuthController) renderParseError(c *fiber.Ctx, err error) error {
	a.Logger.Error("parse payload: %v", err)
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"message":   "Error parsing body",
			"text_code": "INVALID_PAYLOAD",
		},
	})
}

func (a *AuthController) renderValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"message":   "Error validating payload",
			"text_code": "VALIDATION_ERROR",
			"fields":    FormatValidationErrorToMap(err),
		},
	})
}

func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	status, body := mapErrorToResponse(err)
	return c.Status(status).JSON(body)
}

// mapErrorToResponse converts a rich error to an HTTP status and JSON body.
// The catalog carries explicit codes, anything uncoded falls back to its
// category.
func mapErrorToResponse(err error) (int, fiber.Map) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError, fiber.Map{
			"error": fiber.Map{
				"message": "Internal server error",
			},
		}
	}

	status := richErr.Code
	if status == 0 {
		switch richErr.Category {
		case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
			status = fiber.StatusBadRequest
		case goerrors.CategoryAuth:
			status = fiber.StatusUnauthorized
		case goerrors.CategoryAuthz:
			status = fiber.StatusForbidden
		case goerrors.CategoryNotFound:
			status = fiber.StatusNotFound
		default:
			status = fiber.StatusInternalServerError
		}
	}

	message := richErr.Message
	if status >= fiber.StatusInternalServerError {
		message = "Internal server error"
	}

	body := fiber.Map{
		"error": fiber.Map{
			"message": message,
		},
	}
	if richErr.TextCode != "" {
		body["error"].(fiber.Map)["text_code"] = richErr.TextCode
	}

	return status, body
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["_"] = err.Error()
	return out
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
