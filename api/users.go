package api

import (
	"github.com/codecollab-io/codecollab/auth"
	"github.com/codecollab-io/codecollab/config"
	"github.com/codecollab-io/codecollab/db"
	"github.com/codecollab-io/codecollab/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// tokenCookieMaxAge matches the token TTL (24h) in seconds
const tokenCookieMaxAge = 24 * 60 * 60

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 64)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
	)
}

// userView is the public shape of a user record
type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

// Register handles POST /users/register
func Register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}
	if err := body.Validate(); err != nil {
		RespondValidationError(c, err.Error(), validationDetails(err))
		return
	}

	if existing, err := db.GetUserByEmail(body.Email); err == nil && existing != nil {
		RespondConflict(c, "Email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("password hash failed")
		RespondInternalError(c, "Failed to create user")
		return
	}

	user := &db.User{
		ID:           uuid.New().String(),
		Name:         body.Name,
		Email:        body.Email,
		PasswordHash: string(hash),
		CreatedAt:    db.NowMs(),
	}
	if err := db.CreateUser(user); err != nil {
		log.Error().Err(err).Msg("user insert failed")
		RespondInternalError(c, "Failed to create user")
		return
	}

	token, err := auth.Sign(user.ID, user.Name)
	if err != nil {
		log.Error().Err(err).Msg("token mint failed")
		RespondInternalError(c, "Failed to create user")
		return
	}

	setTokenCookie(c, token)
	RespondCreated(c, authResponse{User: toUserView(*user), Token: token})
}

// Login handles POST /users/login
func Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondBadRequest(c, "Invalid request body")
		return
	}

	user, err := db.GetUserByEmail(body.Email)
	if err != nil {
		// Same response for unknown email and wrong password
		RespondUnauthorized(c, "Invalid credentials")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		log.Warn().Str("email", body.Email).Msg("login attempt with invalid password")
		RespondUnauthorized(c, "Invalid credentials")
		return
	}

	token, err := auth.Sign(user.ID, user.Name)
	if err != nil {
		log.Error().Err(err).Msg("token mint failed")
		RespondInternalError(c, "Failed to log in")
		return
	}

	setTokenCookie(c, token)
	RespondData(c, authResponse{User: toUserView(*user), Token: token})
}

// Logout handles GET /users/logout
func Logout(c *gin.Context) {
	c.SetCookie(tokenCookieName, "", -1, "/", "", false, true)
	RespondNoContent(c)
}

// Profile handles GET /users/profile
func Profile(c *gin.Context) {
	identity := CurrentUser(c)

	user, err := db.GetUserByID(identity.UserID)
	if err != nil {
		RespondNotFound(c, "User not found")
		return
	}
	RespondData(c, toUserView(*user))
}

// ListUsers handles GET /users/all
func ListUsers(c *gin.Context) {
	users, err := db.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("user list failed")
		RespondInternalError(c, "Failed to list users")
		return
	}

	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, toUserView(u))
	}
	RespondList(c, views)
}

func toUserView(u db.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email}
}

func setTokenCookie(c *gin.Context, token string) {
	secure := !config.Get().IsDevelopment()
	c.SetCookie(tokenCookieName, token, tokenCookieMaxAge, "/", "", secure, true)
}

// validationDetails flattens ozzo validation errors into response details
func validationDetails(err error) []ErrorDetail {
	errs, ok := err.(validation.Errors)
	if !ok {
		return nil
	}
	details := make([]ErrorDetail, 0, len(errs))
	for field, fieldErr := range errs {
		details = append(details, ErrorDetail{Field: field, Message: fieldErr.Error()})
	}
	return details
}
