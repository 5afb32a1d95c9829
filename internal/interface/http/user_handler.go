package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-user-relations/internal/application"
	"github.com/oksasatya/go-user-relations/internal/domain/entity"
	"github.com/oksasatya/go-user-relations/internal/interface/middleware"
	"github.com/oksasatya/go-user-relations/pkg/apperror"
	"github.com/oksasatya/go-user-relations/pkg/response"
	"github.com/oksasatya/go-user-relations/pkg/validation"
)

// AvatarField is the multipart field carrying the profile picture.
const AvatarField = "avatar"

type UserHandler struct {
	Svc       *userapp.Service
	Relations *userapp.RelationService
	Logger    *logrus.Logger
	// IDLoginEnabled turns on identifier login for private-network callers.
	IDLoginEnabled bool
	internalCaller middleware.AllowFunc
}

func NewUserHandler(svc *userapp.Service, relations *userapp.RelationService, logger *logrus.Logger, idLoginEnabled bool) *UserHandler {
	return &UserHandler{
		Svc:            svc,
		Relations:      relations,
		Logger:         logger,
		IDLoginEnabled: idLoginEnabled,
		internalCaller: middleware.AllowPrivateIP(),
	}
}

type registerRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email"`
	Password string `json:"passwd" form:"passwd" binding:"required"`
	Name     string `json:"name" form:"name" binding:"required,username"`
	Surname  string `json:"surname" form:"surname" binding:"required,username"`
	Age      int    `json:"age" form:"age" binding:"omitempty,personage"`
}

type loginRequest struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"passwd"`
}

type relationRequest struct {
	ID string `json:"id"`
}

type updateUserRequest struct {
	ID       *string `json:"id"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"passwd" binding:"omitempty,min=1"`
	Name     *string `json:"name" binding:"omitempty,username"`
	Surname  *string `json:"surname" binding:"omitempty,username"`
	Age      *int    `json:"age" binding:"omitempty,personage"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), userapp.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Surname:  req.Surname,
		Age:      req.Age,
		Avatar:   middleware.UploadFrom(c, AvatarField),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toUserResponse(u), "user registered", nil)
}

// Login accepts {email, passwd}, or {userId} from an internal caller when identifier login is enabled.
func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	var (
		res *userapp.LoginResult
		err error
	)
	switch {
	case req.UserID != "":
		if !h.idLoginAllowed(c) {
			respondError(c, h.Logger, userapp.ErrInvalidCredentials)
			return
		}
		res, err = h.Svc.LoginByID(c.Request.Context(), req.UserID)
	case req.Email != "" && req.Password != "":
		res, err = h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	default:
		err = userapp.ErrInvalidCredentials
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusAccepted, loginResponse{User: toUserResponse(res.User), Token: res.Token}, "login successful", nil)
}

// Relogin issues a fresh token for {userId}; mounted only on the internal route group.
func (h *UserHandler) Relogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"userId": "is required"})
		return
	}
	if !h.idLoginAllowed(c) {
		respondError(c, h.Logger, userapp.ErrInvalidCredentials)
		return
	}
	res, err := h.Svc.LoginByID(c.Request.Context(), req.UserID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusAccepted, loginResponse{User: toUserResponse(res.User), Token: res.Token}, "login successful", nil)
}

func (h *UserHandler) idLoginAllowed(c *gin.Context) bool {
	return h.IDLoginEnabled && h.internalCaller(c)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users", map[string]any{"count": len(users)})
}

func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user", nil)
}

// Search matches one field exactly: GET /users/search?key=name&value=Ana
func (h *UserHandler) Search(c *gin.Context) {
	key, value := c.Query("key"), c.Query("value")
	if key == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"key": "is required"})
		return
	}
	users, err := h.Svc.Search(c.Request.Context(), key, value)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponses(users), "users", map[string]any{"count": len(users)})
}

// SearchText runs a full-text query: GET /users/search/text?q=ana&size=10
func (h *UserHandler) SearchText(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid query", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	hits, err := h.Svc.SearchText(c.Request.Context(), q, size)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

func (h *UserHandler) AddFriend(c *gin.Context) {
	h.mutateRelation(c, func(self, other string) (*entity.User, error) {
		return h.Relations.AddFriend(c.Request.Context(), other, self)
	})
}

func (h *UserHandler) AddEnemy(c *gin.Context) {
	h.mutateRelation(c, func(self, other string) (*entity.User, error) {
		return h.Relations.AddEnemy(c.Request.Context(), other, self)
	})
}

func (h *UserHandler) RemoveFriend(c *gin.Context) {
	h.mutateRelation(c, func(self, other string) (*entity.User, error) {
		return h.Relations.RemoveFriend(c.Request.Context(), other, self)
	})
}

func (h *UserHandler) RemoveEnemy(c *gin.Context) {
	h.mutateRelation(c, func(self, other string) (*entity.User, error) {
		return h.Relations.RemoveEnemy(c.Request.Context(), other, self)
	})
}

// mutateRelation resolves the acting user (body id, else the token's user) and the target (path id).
func (h *UserHandler) mutateRelation(c *gin.Context, fn func(self, other string) (*entity.User, error)) {
	var req relationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			return
		}
	}
	self := req.ID
	if self == "" {
		self = c.GetString(middleware.CtxUserIDKey)
	}
	u, err := fn(self, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "relations updated", nil)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := userapp.UpdateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Surname:  req.Surname,
		Age:      req.Age,
	}
	if req.ID != nil {
		in.ID = *req.ID
	}
	u, err := h.Svc.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "user updated", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	up := middleware.UploadFrom(c, AvatarField)
	if up == nil {
		respondError(c, h.Logger, apperror.InvalidInput("avatar file is required"))
		return
	}
	u, err := h.Svc.UploadAvatar(c.Request.Context(), c.Param("id"), up)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserResponse(u), "avatar updated", nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id}, "user deleted", nil)
}
