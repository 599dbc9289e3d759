package http

import (
	"log/slog"
	"mime"
	"net/http"

	"github.com/Najo0116/AI-Chatbot/internal/service"
	"github.com/Najo0116/AI-Chatbot/pkg/httputil"
	"github.com/Najo0116/AI-Chatbot/pkg/validator"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// AuthHandler handles HTTP requests for login.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// LoginRequest is the login body, accepted as JSON or as an OAuth2
// password-grant form.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := decodeLogin(r)
	if err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, token)
}

func decodeLogin(r *http.Request) (*LoginRequest, error) {
	var req LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := parseForm(r, mediaType); err != nil {
			return nil, err
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
		if err := validator.Validate(req); err != nil {
			return nil, err
		}
	default:
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			return nil, err
		}
	}

	return &req, nil
}

func parseForm(r *http.Request, mediaType string) error {
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxBodyBytes)
	}
	return r.ParseForm()
}
