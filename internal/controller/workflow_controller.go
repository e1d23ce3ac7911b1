package controller

import (
	"errors"

	"sabuconnect-be/internal/dto"
	"sabuconnect-be/internal/engine"
	"sabuconnect-be/internal/entity"
	"sabuconnect-be/internal/pkg/serverutils"
	"sabuconnect-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IWorkflowController interface {
	RegisterRoutes(r fiber.Router)
	Request(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	UploadProof(ctx *fiber.Ctx) error
	VerifyPayment(ctx *fiber.Ctx) error
	RejectPayment(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Confirm(ctx *fiber.Ctx) error
	Start(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type workflowController struct {
	workflowService service.IWorkflowService
}

func NewWorkflowController(workflowService service.IWorkflowService) IWorkflowController {
	return &workflowController{
		workflowService: workflowService,
	}
}

func (c *workflowController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/workflows")
	h.Use(serverutils.JwtMiddleware)

	h.Post(":kind/:subjectId/request", c.Request)
	h.Get(":id", c.Show)

	// owner actions
	h.Post(":id/payment/proof", c.UploadProof)
	h.Post(":id/stop", c.Stop)

	// transaction lifecycle
	h.Post(":id/confirm", c.Confirm)
	h.Post(":id/start", c.Start)
	h.Post(":id/complete", c.Complete)
	h.Post(":id/cancel", c.Cancel)

	// moderation
	admin := h.Group("", serverutils.AdminMiddleware)
	admin.Get("", c.List)
	admin.Post(":id/approve", c.Approve)
	admin.Post(":id/reject", c.Reject)
	admin.Post(":id/payment/verify", c.VerifyPayment)
	admin.Post(":id/payment/reject", c.RejectPayment)
}

func (c *workflowController) Request(ctx *fiber.Ctx) error {
	actor := actorFromContext(ctx)

	kind, err := service.ParseKind(ctx.Params("kind"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	subjectId, err := uuid.Parse(ctx.Params("subjectId"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid subject id"))
	}

	var req dto.RequestWorkflowRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}

	res, err := c.workflowService.Request(ctx.Context(), kind, subjectId, actor, &req)
	if err != nil {
		return mapEngineError(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success request workflow", res))
}

func (c *workflowController) Approve(ctx *fiber.Ctx) error {
	return c.transition(ctx, entity.ActionApprove, engine.Options{}, "Success approve workflow")
}

func (c *workflowController) Reject(ctx *fiber.Ctx) error {
	var req dto.RejectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	return c.transition(ctx, entity.ActionReject, engine.Options{Reason: req.Reason}, "Success reject workflow")
}

func (c *workflowController) UploadProof(ctx *fiber.Ctx) error {
	var req dto.UploadProofRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	return c.transition(ctx, entity.ActionUploadProof, engine.Options{ProofReference: req.ProofReference}, "Success upload payment proof")
}

func (c *workflowController) VerifyPayment(ctx *fiber.Ctx) error {
	return c.transition(ctx, entity.ActionVerifyPayment, engine.Options{}, "Success verify payment")
}

func (c *workflowController) RejectPayment(ctx *fiber.Ctx) error {
	var req dto.RejectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
	}
	return c.transition(ctx, entity.ActionRejectPayment, engine.Options{Reason: req.Reason}, "Success reject payment")
}

func (c *workflowController) Stop(ctx *fiber.Ctx) error {
	return c.transition(ctx, entity.ActionStop, engine.Options{}, "Success stop workflow")
}

func (c *workflowController) Confirm(ctx *fiber.Ctx) error {
	return c.transition(ctx, entity.ActionConfirm, engine.Options{}, "Success confirm transaction")
}

func (c *workflowController) Start(ctx *fiber.Ctx) error {
	return c.transition(ctx, entity.ActionStart, engine.Options{}, "Success start transaction")
}

func (c *workflowController) Complete(ctx *fiber.Ctx) error {
	return c.transition(ctx, entity.ActionComplete, engine.Options{}, "Success complete transaction")
}

func (c *workflowController) Cancel(ctx *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := ctx.BodyParser(&req); err != nil && len(ctx.Body()) > 0 {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid request body"))
	}
	return c.transition(ctx, entity.ActionCancel, engine.Options{Reason: req.Reason}, "Success cancel transaction")
}

func (c *workflowController) Show(ctx *fiber.Ctx) error {
	actor := actorFromContext(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid workflow id"))
	}

	res, err := c.workflowService.Show(ctx.Context(), id, actor)
	if err != nil {
		return mapEngineError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show workflow", res))
}

func (c *workflowController) List(ctx *fiber.Ctx) error {
	var kind entity.WorkflowKind
	if raw := ctx.Query("kind"); raw != "" {
		parsed, err := service.ParseKind(raw)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, err.Error()))
		}
		kind = parsed
	}
	state := entity.WorkflowState(ctx.Query("state"))

	res, err := c.workflowService.List(ctx.Context(), kind, state, ctx.QueryInt("limit", 20), ctx.QueryInt("offset", 0))
	if err != nil {
		return mapEngineError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list workflows", res))
}

func (c *workflowController) transition(ctx *fiber.Ctx, action entity.WorkflowAction, opts engine.Options, message string) error {
	actor := actorFromContext(ctx)

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "Invalid workflow id"))
	}

	res, err := c.workflowService.Transition(ctx.Context(), id, action, actor, opts)
	if err != nil {
		return mapEngineError(ctx, err)
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func actorFromContext(ctx *fiber.Ctx) entity.Actor {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)
	role, _ := ctx.Locals("role").(string)
	return entity.Actor{Id: userId, Role: entity.ActorRole(role)}
}

// mapEngineError keeps the error taxonomy stable on the wire: illegal
// transitions and unmet payment gates are conflicts, permission problems
// are forbidden, unknown instances are not found, anything else is a
// storage fault.
func mapEngineError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidTransition):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(fiber.StatusConflict, err.Error()))
	case errors.Is(err, engine.ErrPaymentNotVerified):
		return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(fiber.StatusConflict, err.Error()))
	case errors.Is(err, engine.ErrForbidden):
		return ctx.Status(fiber.StatusForbidden).JSON(serverutils.ErrorResponse(fiber.StatusForbidden, err.Error()))
	case errors.Is(err, engine.ErrNotFound):
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(fiber.StatusNotFound, err.Error()))
	default:
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}
