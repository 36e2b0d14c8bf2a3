package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo-server/internal/domain"
	"todo-server/internal/service"
)

// AuthHeader is the request header carrying the auth token.
const AuthHeader = "x-auth"

const (
	ctxUserKey  = "auth.user"
	ctxTokenKey = "auth.token"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	todos  service.TodoService
	logger *logrus.Logger
}

func NewHandler(users service.UserService, todos service.TodoService, logger *logrus.Logger) *Handler {
	return &Handler{
		users:  users,
		todos:  todos,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.POST("/users", h.registerUser)
	router.POST("/users/login", h.loginUser)

	authed := router.Group("/", h.authRequired())
	{
		authed.GET("/users/me", h.currentUser)
		authed.DELETE("/users/me/token", h.revokeToken)

		authed.POST("/todos", h.createTodo)
		authed.GET("/todos", h.listTodos)
		authed.GET("/todos/:id", h.getTodo)
		authed.DELETE("/todos/:id", h.deleteTodo)
		authed.PATCH("/todos/:id", h.updateTodo)
	}

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+AuthHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", AuthHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authRequired resolves the x-auth header to a user or terminates the request
// with a bare 401. Handlers behind it can rely on currentUserFrom.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(AuthHeader)
		user, err := h.users.FindByToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

func currentUserFrom(c *gin.Context) *domain.User {
	user, _ := c.MustGet(ctxUserKey).(*domain.User)
	return user
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type createTodoRequest struct {
	Text string `json:"text" binding:"required"`
}

// updateTodoRequest mirrors the caller-settable fields only; anything else in
// the body is ignored.
type updateTodoRequest struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

func (h *Handler) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.serverError(c, err)
		}
		return
	}

	token, err := h.users.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.Header(AuthHeader, token)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) loginUser(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		h.serverError(c, err)
		return
	}

	token, err := h.users.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.Header(AuthHeader, token)
	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *Handler) currentUser(c *gin.Context) {
	c.JSON(http.StatusOK, userToResponse(currentUserFrom(c)))
}

func (h *Handler) revokeToken(c *gin.Context) {
	user := currentUserFrom(c)
	token, _ := c.MustGet(ctxTokenKey).(string)

	if err := h.users.RevokeToken(c.Request.Context(), user.ID, token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not revoke token"})
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handler) createTodo(c *gin.Context) {
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.Create(c.Request.Context(), req.Text, currentUserFrom(c).ID)
	if err != nil {
		h.renderTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(todo)})
}

func (h *Handler) listTodos(c *gin.Context) {
	todos, err := h.todos.ListForCreator(c.Request.Context(), currentUserFrom(c).ID)
	if err != nil {
		h.serverError(c, err)
		return
	}

	resp := make([]TodoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(&todos[i])
	}
	c.JSON(http.StatusOK, gin.H{"todos": resp})
}

func (h *Handler) getTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.Get(c.Request.Context(), id, currentUserFrom(c).ID)
	if err != nil {
		h.renderTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(todo)})
}

func (h *Handler) deleteTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	todo, err := h.todos.Delete(c.Request.Context(), id, currentUserFrom(c).ID)
	if err != nil {
		h.renderTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(todo)})
}

func (h *Handler) updateTodo(c *gin.Context) {
	id, ok := h.todoID(c)
	if !ok {
		return
	}

	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	todo, err := h.todos.Update(c.Request.Context(), id, currentUserFrom(c).ID, service.TodoPatch{
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		h.renderTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todoToResponse(todo)})
}

// todoID validates the path id. A malformed id answers 404, same as a missing
// todo, so callers cannot probe id shapes.
func (h *Handler) todoID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if uuid.Validate(id) != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid todo id"})
		return "", false
	}
	return id, true
}

func (h *Handler) renderTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyCompleted):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.serverError(c, err)
	}
}

// serverError logs the cause and answers a generic body so internals never
// leak to the caller.
func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type TodoResponse struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt"`
	CreatorID   string `json:"creatorId"`
}

func userToResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Email: user.Email,
	}
}

func todoToResponse(todo *domain.Todo) TodoResponse {
	return TodoResponse{
		ID:          todo.ID,
		Text:        todo.Text,
		Completed:   todo.Completed,
		CompletedAt: todo.CompletedAt,
		CreatorID:   todo.CreatorID,
	}
}
