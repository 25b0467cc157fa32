package handler

import (
	"encoding/json"
	"net/http"

	"github.com/studyshare/backend/internal/ctxkeys"
	"github.com/studyshare/backend/internal/response"
	"github.com/studyshare/backend/internal/service"
)

const maxJSONBody = 1 << 20

type userHandler struct {
	userService *service.UserService
	errors      errorResponder
}

func NewUserHandler(userService *service.UserService, isDev bool) *userHandler {
	return &userHandler{
		userService: userService,
		errors:      errorResponder{isDev: isDev},
	}
}

type createUserRequest struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type updateUserRequest struct {
	Email *string        `json:"email"`
	Name  optionalString `json:"name"`
}

// optionalString tells an explicit null apart from an absent field.
type optionalString struct {
	Value *string
	Set   bool
}

func (o *optionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

func (h *userHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), ctxkeys.Principal(r.Context()), service.CreateUserInput{
		ID:    req.ID,
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, user)
}

func (h *userHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.All(r.Context())
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, users)
}

func (h *userHandler) ByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByEmail(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *userHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *userHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), ctxkeys.Principal(r.Context()), r.PathValue("id"), service.UpdateUserInput{
		Email:   req.Email,
		Name:    req.Name.Value,
		NameSet: req.Name.Set,
	})
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *userHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Delete(r.Context(), ctxkeys.Principal(r.Context()), r.PathValue("id"))
	if err != nil {
		h.errors.write(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, user)
}

func (h *userHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid user data")
		return false
	}
	return true
}
