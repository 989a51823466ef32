package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/addislearn/learning-platform/internal/model"
	"github.com/addislearn/learning-platform/internal/repository"
	"github.com/addislearn/learning-platform/internal/service"
)

// PaymentHandler exposes enrollment initiation, the gateway callback and
// the admin payment listings.
type PaymentHandler struct {
	Payments    *service.PaymentService
	Enrollments *repository.EnrollmentRepo
}

func NewPaymentHandler(payments *service.PaymentService, enrollments *repository.EnrollmentRepo) *PaymentHandler {
	return &PaymentHandler{Payments: payments, Enrollments: enrollments}
}

type callbackBody struct {
	TrxRef string `json:"trx_ref"`
	TxRef  string `json:"tx_ref"`
	RefID  string `json:"ref_id"`
	Status string `json:"status"`
}

// Initiate starts enrollment into a course. Free courses enroll
// immediately; paid courses return a checkout URL to redirect the user
// to.
func (h *PaymentHandler) Initiate(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Payments.Initiate(ctx, uid, courseID)
	if err != nil {
		return fail(c, err)
	}
	if res.Enrollment != nil {
		return c.JSON(http.StatusCreated, echo.Map{
			"enrolled":      true,
			"enrollment_id": res.Enrollment.ID,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"enrolled":     false,
		"tx_ref":       res.Payment.TxRef,
		"amount":       res.Payment.Amount,
		"checkout_url": res.CheckoutURL,
	})
}

// Callback receives the gateway's redirect/webhook. The reported status
// is ignored; the service re-verifies the transaction with the gateway
// before changing any state. Failures are logged and acknowledged so the
// gateway stops retrying deliveries we can never process.
func (h *PaymentHandler) Callback(c echo.Context) error {
	trxRef := strings.TrimSpace(c.QueryParam("trx_ref"))
	refID := strings.TrimSpace(c.QueryParam("ref_id"))
	if trxRef == "" {
		var body callbackBody
		if err := c.Bind(&body); err == nil {
			trxRef = strings.TrimSpace(body.TrxRef)
			if trxRef == "" {
				trxRef = strings.TrimSpace(body.TxRef)
			}
			if refID == "" {
				refID = strings.TrimSpace(body.RefID)
			}
		}
	}
	if trxRef == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "trx_ref required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	e, err := h.Payments.ProcessCallback(ctx, trxRef, refID)
	if err != nil {
		log.Printf("payment callback: tx_ref=%s rejected: %v", trxRef, err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":       "enrollment confirmed",
		"enrollment_id": e.ID,
		"course_id":     e.CourseID,
	})
}

// MyEnrollments lists the calling user's enrollments.
func (h *PaymentHandler) MyEnrollments(c echo.Context) error {
	uid, ok := getUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	list, err := h.Enrollments.ListByUser(ctx, uid)
	if err != nil {
		return fail(c, err)
	}
	type part struct {
		ID         uint64 `json:"id"`
		CourseID   uint64 `json:"course_id"`
		EnrolledAt string `json:"enrolled_at"`
	}
	out := make([]part, 0, len(list))
	for _, e := range list {
		out = append(out, part{ID: e.ID, CourseID: e.CourseID, EnrolledAt: e.EnrolledAt.UTC().Format("2006-01-02T15:04:05Z07:00")})
	}
	return c.JSON(http.StatusOK, echo.Map{"enrollments": out})
}

type paymentPart struct {
	ID       uint64  `json:"id"`
	TxRef    string  `json:"tx_ref"`
	UserID   uint64  `json:"user_id"`
	CourseID uint64  `json:"course_id"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
	RefID    *string `json:"ref_id,omitempty"`
}

func toPaymentParts(list []model.Payment) []paymentPart {
	out := make([]paymentPart, 0, len(list))
	for _, p := range list {
		out = append(out, paymentPart{
			ID: p.ID, TxRef: p.TxRef, UserID: p.UserID, CourseID: p.CourseID,
			Amount: p.Amount, Status: p.Status, RefID: p.RefID,
		})
	}
	return out
}

// ListByUser returns a user's payments. Admin only.
func (h *PaymentHandler) ListByUser(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	page, pageSize := pageParams(c)
	status := strings.TrimSpace(c.QueryParam("status"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Payments.ListUserPayments(ctx, userID, status, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": toPaymentParts(items), "total": total, "page": page})
}

// ListByCourse returns a course's payments. Admin only.
func (h *PaymentHandler) ListByCourse(c echo.Context) error {
	courseID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid course id"})
	}
	page, pageSize := pageParams(c)
	status := strings.TrimSpace(c.QueryParam("status"))

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, total, err := h.Payments.ListCoursePayments(ctx, courseID, status, page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": toPaymentParts(items), "total": total, "page": page})
}
