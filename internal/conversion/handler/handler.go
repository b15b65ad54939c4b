package handler

import (
	"errors"
	"net/http"

	"portal_backend/internal/conversion/domain"
	"portal_backend/internal/conversion/service"
	"portal_backend/internal/conversion/transport"
	"portal_backend/platform/apperr"
	"portal_backend/platform/httpkit"
	"portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidSessionID = "invalid conversion id"
)

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the wizard endpoints. Write routes go through writeMW.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, writeMW ...gin.HandlerFunc) {
	write := rg.Group("", writeMW...)

	rg.GET("/generated-secret", h.GenerateSecret)
	rg.GET("/:id", h.Get)
	write.POST("", h.Start)
	write.POST("/:id/engagement", h.SubmitEngagement)
	write.POST("/:id/credential", h.SubmitCredential)
	write.POST("/:id/close", h.Close)
	write.DELETE("/:id", h.Abandon)
}

func (h *Handler) Start(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.StartConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	snap, err := h.svc.Start(c.Request.Context(), uuid.MustParse(req.LeadID), identity.UserID())
	if err != nil {
		h.handleError(c, snap, err)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToSessionResponse(snap))
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	snap, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, snap, err)
		return
	}

	httpkit.OK(c, transport.ToSessionResponse(snap))
}

func (h *Handler) SubmitEngagement(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req transport.SubmitEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	snap, err := h.svc.SubmitEngagement(c.Request.Context(), id, transport.ToEngagementInput(req))
	if err != nil {
		h.handleError(c, snap, err)
		return
	}

	httpkit.OK(c, transport.ToSessionResponse(snap))
}

func (h *Handler) SubmitCredential(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req transport.SubmitCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	snap, err := h.svc.SubmitCredential(c.Request.Context(), id, transport.ToCredentialInput(req))
	if err != nil {
		h.handleError(c, snap, err)
		return
	}

	httpkit.OK(c, transport.ToSessionResponse(snap))
}

func (h *Handler) Close(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	snap, err := h.svc.Close(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, snap, err)
		return
	}

	httpkit.OK(c, transport.CloseResponse{
		CustomerID: snap.Customer.ID.String(),
		Session:    transport.ToSessionResponse(snap),
	})
}

func (h *Handler) Abandon(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.svc.Abandon(c.Request.Context(), id); err != nil {
		h.handleError(c, domain.Snapshot{}, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) GenerateSecret(c *gin.Context) {
	secret, err := h.svc.GenerateSecret()
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.GeneratedSecretResponse{Password: secret})
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidSessionID, nil)
		return uuid.UUID{}, false
	}
	return id, true
}

// handleError maps conversion errors to HTTP responses that carry the
// current session so the wizard can stay on its step.
func (h *Handler) handleError(c *gin.Context, snap domain.Snapshot, err error) {
	var convErr *domain.ConversionError
	if !errors.As(err, &convErr) {
		httpkit.HandleError(c, err)
		return
	}

	details := transport.ConversionErrorDetails{ErrorDetails: transport.ToErrorDetails(convErr)}
	if snap.SessionID != uuid.Nil {
		session := transport.ToSessionResponse(snap)
		details.Session = &session
	}

	httpkit.HandleError(c, apperr.Wrap(kindFor(convErr.Kind), convErr.Message, convErr).WithDetails(details))
}

func kindFor(kind domain.ErrorKind) apperr.Kind {
	switch kind {
	case domain.KindValidation:
		return apperr.KindValidation
	case domain.KindSessionNotFound:
		return apperr.KindNotFound
	case domain.KindBusy, domain.KindInvalidState, domain.KindCredentialEmailTaken:
		return apperr.KindConflict
	case domain.KindCustomerCreationFailed, domain.KindEngagementCreationFailed, domain.KindCredentialProvisioningFailed:
		return apperr.KindUnavailable
	default:
		return apperr.KindInternal
	}
}
