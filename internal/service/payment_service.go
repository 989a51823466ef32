package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/addislearn/learning-platform/internal/apperr"
	"github.com/addislearn/learning-platform/internal/model"
	"github.com/addislearn/learning-platform/internal/payment"
	"github.com/addislearn/learning-platform/internal/queue"
	"github.com/addislearn/learning-platform/internal/repository"
	"github.com/addislearn/learning-platform/internal/utils"
)

// PaymentService drives the payment/enrollment state machine. A paid
// enrollment moves NONE -> PENDING at initiation and PENDING ->
// SUCCESS/FAILED exclusively through callback processing, where the
// gateway's verification endpoint, never the callback itself, decides
// the outcome.
type PaymentService struct {
	DB          *sql.DB
	Payments    *repository.PaymentRepo
	Enrollments *repository.EnrollmentRepo
	Courses     *repository.CourseRepo
	Users       *repository.UserRepo
	Gateway     payment.Gateway
	CallbackURL string

	// Notify publishes an enrollment-confirmed event; nil disables
	// publishing (tests, broker-less deployments).
	Notify func(ctx context.Context, ev queue.EnrollmentConfirmedEvent)
}

func NewPaymentService(db *sql.DB, payments *repository.PaymentRepo, enrollments *repository.EnrollmentRepo,
	courses *repository.CourseRepo, users *repository.UserRepo, gw payment.Gateway, callbackURL string) *PaymentService {
	return &PaymentService{
		DB:          db,
		Payments:    payments,
		Enrollments: enrollments,
		Courses:     courses,
		Users:       users,
		Gateway:     gw,
		CallbackURL: callbackURL,
	}
}

// InitiateResult is the outcome of Initiate. Exactly one of Enrollment
// (free course) or Payment+CheckoutURL (paid course) is set.
type InitiateResult struct {
	Enrollment  *model.Enrollment
	Payment     *model.Payment
	CheckoutURL string
}

// Initiate starts an enrollment attempt. Free courses enroll
// immediately with no payment row; paid courses open a gateway checkout
// session and persist a pending payment only after the gateway accepted
// the initialization, so a gateway failure leaves no orphan record.
func (s *PaymentService) Initiate(ctx context.Context, userID, courseID uint64) (InitiateResult, error) {
	user, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InitiateResult{}, apperr.Validation("user not found")
		}
		return InitiateResult{}, err
	}
	course, err := s.Courses.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InitiateResult{}, apperr.Validation("course not found")
		}
		return InitiateResult{}, err
	}
	enrolled, err := s.Enrollments.Exists(ctx, userID, courseID)
	if err != nil {
		return InitiateResult{}, err
	}
	if enrolled {
		return InitiateResult{}, apperr.Validation("user already enrolled in course")
	}

	if course.Free() {
		if _, err := s.Enrollments.Create(ctx, userID, courseID); err != nil {
			if errors.Is(err, repository.ErrAlreadyEnrolled) {
				return InitiateResult{}, apperr.Validation("user already enrolled in course")
			}
			return InitiateResult{}, err
		}
		e, err := s.Enrollments.Get(ctx, userID, courseID)
		if err != nil {
			return InitiateResult{}, err
		}
		s.publishConfirmed(ctx, e, course, 0, "")
		return InitiateResult{Enrollment: &e}, nil
	}

	// A fresh tx_ref every attempt keeps retries after gateway failures
	// collision-free.
	txRef := payment.NewTxRef()
	amount := course.EffectiveAmount()
	req := payment.InitRequest{
		Amount:      amount,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: utils.LocalPhone(user.Phone),
		TxRef:       txRef,
		CallbackURL: s.CallbackURL,
		Title:       course.Title,
	}
	if user.Email != nil {
		req.Email = *user.Email
	}

	resp, err := s.Gateway.Initialize(ctx, req)
	if err != nil {
		return InitiateResult{}, apperr.Wrap(apperr.KindValidation, "payment initiation failed", err)
	}
	if !resp.Success() {
		return InitiateResult{}, apperr.Validation(resp.Message)
	}

	p := model.Payment{
		TxRef:    txRef,
		UserID:   userID,
		CourseID: courseID,
		Amount:   amount,
		Status:   model.PaymentPending,
	}
	id, err := s.Payments.Create(ctx, &p)
	if err != nil {
		return InitiateResult{}, err
	}
	p.ID = id
	return InitiateResult{Payment: &p, CheckoutURL: resp.Data.CheckoutURL}, nil
}

// ProcessCallback reconciles an inbound, untrusted gateway callback.
// The reported status is never trusted alone: the transaction is
// re-verified against the gateway before any state change. Duplicate
// deliveries are no-ops returning the existing enrollment.
func (s *PaymentService) ProcessCallback(ctx context.Context, trxRef, refID string) (model.Enrollment, error) {
	p, err := s.Payments.GetByTxRef(ctx, trxRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Enrollment{}, apperr.Validation("payment not found")
		}
		return model.Enrollment{}, err
	}

	// Success is terminal; a repeated callback short-circuits to the
	// enrollment that the first delivery created.
	if p.Status == model.PaymentSuccess {
		return s.existingEnrollment(ctx, p)
	}

	ver, err := s.Gateway.Verify(ctx, trxRef)
	if err != nil {
		return model.Enrollment{}, apperr.Wrap(apperr.KindValidation, "payment verification failed", err)
	}
	if !ver.Paid() {
		var ref *string
		if refID != "" {
			ref = &refID
		}
		if err := s.Payments.MarkFailed(ctx, trxRef, ref); err != nil {
			return model.Enrollment{}, err
		}
		return model.Enrollment{}, apperr.Validation("payment failed")
	}

	// Verified success: promote the payment and create the enrollment
	// in one transaction so concurrent deliveries serialize on the
	// guarded UPDATE.
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Enrollment{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	promoted, err := s.Payments.MarkSuccessTx(ctx, tx, trxRef, ver.Data.Reference)
	if err != nil {
		return model.Enrollment{}, err
	}
	if !promoted {
		// Another delivery won the race after our initial read.
		return s.existingEnrollment(ctx, p)
	}
	if _, err := s.Enrollments.CreateTx(ctx, tx, p.UserID, p.CourseID); err != nil && !errors.Is(err, repository.ErrAlreadyEnrolled) {
		return model.Enrollment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Enrollment{}, err
	}
	committed = true

	e, err := s.Enrollments.Get(ctx, p.UserID, p.CourseID)
	if err != nil {
		return model.Enrollment{}, err
	}
	if course, cErr := s.Courses.GetByID(ctx, p.CourseID); cErr == nil {
		s.publishConfirmed(ctx, e, course, p.Amount, trxRef)
	}
	return e, nil
}

func (s *PaymentService) existingEnrollment(ctx context.Context, p model.Payment) (model.Enrollment, error) {
	e, err := s.Enrollments.Get(ctx, p.UserID, p.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Successful payment without enrollment should not happen;
			// repair rather than fail the webhook.
			if _, cErr := s.Enrollments.Create(ctx, p.UserID, p.CourseID); cErr != nil && !errors.Is(cErr, repository.ErrAlreadyEnrolled) {
				return model.Enrollment{}, cErr
			}
			return s.Enrollments.Get(ctx, p.UserID, p.CourseID)
		}
		return model.Enrollment{}, err
	}
	return e, nil
}

func (s *PaymentService) publishConfirmed(ctx context.Context, e model.Enrollment, course model.Course, amount float64, txRef string) {
	if s.Notify == nil {
		return
	}
	s.Notify(ctx, queue.EnrollmentConfirmedEvent{
		EnrollmentID: e.ID,
		UserID:       e.UserID,
		CourseID:     e.CourseID,
		CourseTitle:  course.Title,
		Amount:       amount,
		TxRef:        txRef,
		EnrolledAt:   e.EnrolledAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// ListUserPayments returns a user's payments with an optional status
// filter. Admin surface.
func (s *PaymentService) ListUserPayments(ctx context.Context, userID uint64, status string, page, pageSize int) ([]model.Payment, int, error) {
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, apperr.Validation("user not found")
		}
		return nil, 0, err
	}
	items, err := s.Payments.ListByUser(ctx, userID, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Payments.CountBy(ctx, "user_id", userID, status)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListCoursePayments returns a course's payments with an optional
// status filter. Admin surface.
func (s *PaymentService) ListCoursePayments(ctx context.Context, courseID uint64, status string, page, pageSize int) ([]model.Payment, int, error) {
	if _, err := s.Courses.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, apperr.Validation("course not found")
		}
		return nil, 0, err
	}
	items, err := s.Payments.ListByCourse(ctx, courseID, status, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Payments.CountBy(ctx, "course_id", courseID, status)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
