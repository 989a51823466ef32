package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/addislearn/learning-platform/internal/apperr"
	"github.com/addislearn/learning-platform/internal/model"
	"github.com/addislearn/learning-platform/internal/payment"
	"github.com/addislearn/learning-platform/internal/queue"
	"github.com/addislearn/learning-platform/internal/repository"
)

// fakeGateway scripts both gateway calls and records what it received.
type fakeGateway struct {
	initResp  *payment.InitResponse
	initErr   error
	initCalls int
	lastInit  payment.InitRequest

	verifyResp  *payment.VerifyResponse
	verifyErr   error
	verifyCalls int
}

func (f *fakeGateway) Initialize(ctx context.Context, req payment.InitRequest) (*payment.InitResponse, error) {
	f.initCalls++
	f.lastInit = req
	return f.initResp, f.initErr
}

func (f *fakeGateway) Verify(ctx context.Context, txRef string) (*payment.VerifyResponse, error) {
	f.verifyCalls++
	return f.verifyResp, f.verifyErr
}

func initOK(url string) *payment.InitResponse {
	r := &payment.InitResponse{Status: "success"}
	r.Data.CheckoutURL = url
	return r
}

func verifyWith(status, reference string) *payment.VerifyResponse {
	r := &payment.VerifyResponse{Status: status}
	r.Data.Status = status
	r.Data.Reference = reference
	return r
}

func newPaymentService(t *testing.T, gw payment.Gateway) (*PaymentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	svc := NewPaymentService(db,
		repository.NewPaymentRepo(db),
		repository.NewEnrollmentRepo(db),
		repository.NewCourseRepo(db),
		repository.NewUserRepo(db),
		gw, "https://api.example.com/v1/payments/callback")
	return svc, mock
}

var courseCols = []string{
	"id", "title", "description", "price", "discount", "instructor_id",
	"thumbnail_url", "view_count", "created_at", "updated_at",
}

func courseRow(id uint64, price, discount float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(courseCols).
		AddRow(id, "Go Basics", "intro course", price, discount, 2, nil, 0, now, now)
}

var paymentCols = []string{
	"id", "tx_ref", "ref_id", "user_id", "course_id", "amount", "status", "created_at", "updated_at",
}

func paymentRow(id uint64, txRef, status string, amount float64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(paymentCols).
		AddRow(id, txRef, nil, 1, 10, amount, status, now, now)
}

func expectInitiateLookups(mock sqlmock.Sqlmock, course *sqlmock.Rows) {
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(1, "912345678", "h", "student", true))
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WillReturnRows(course)
	mock.ExpectQuery("SELECT id FROM enrollments WHERE user_id=").
		WillReturnError(errNoRows())
}

func TestInitiateFreeCourseEnrollsWithoutPayment(t *testing.T) {
	gw := &fakeGateway{}
	svc, mock := newPaymentService(t, gw)

	var published []queue.EnrollmentConfirmedEvent
	svc.Notify = func(ctx context.Context, ev queue.EnrollmentConfirmedEvent) {
		published = append(published, ev)
	}

	expectInitiateLookups(mock, courseRow(10, 0, 0))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(uint64(1), uint64(10)).
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery("SELECT id,user_id,course_id,enrolled_at FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at"}).
			AddRow(77, 1, 10, time.Now()))

	res, err := svc.Initiate(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.Enrollment == nil || res.Enrollment.ID != 77 {
		t.Fatalf("expected immediate enrollment, got %+v", res)
	}
	if res.Payment != nil {
		t.Fatal("free course must not create a payment")
	}
	if gw.initCalls != 0 {
		t.Fatal("free course must not touch the gateway")
	}
	if len(published) != 1 || published[0].EnrollmentID != 77 {
		t.Fatalf("expected one published event, got %+v", published)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInitiatePaidCoursePersistsAfterGatewayAccepts(t *testing.T) {
	gw := &fakeGateway{initResp: initOK("https://checkout.example/abc")}
	svc, mock := newPaymentService(t, gw)

	expectInitiateLookups(mock, courseRow(10, 200, 0.25))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), uint64(1), uint64(10), 150.0, model.PaymentPending).
		WillReturnResult(sqlmock.NewResult(5, 1))

	res, err := svc.Initiate(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if res.Payment == nil || res.Payment.Status != model.PaymentPending {
		t.Fatalf("expected pending payment, got %+v", res)
	}
	if res.CheckoutURL != "https://checkout.example/abc" {
		t.Fatalf("unexpected checkout url: %s", res.CheckoutURL)
	}
	// Discounted amount and local phone form go to the gateway.
	if gw.lastInit.Amount != 150.0 {
		t.Fatalf("expected discounted amount 150, got %v", gw.lastInit.Amount)
	}
	if gw.lastInit.PhoneNumber != "0912345678" {
		t.Fatalf("expected local phone form, got %s", gw.lastInit.PhoneNumber)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInitiateGatewayFailureLeavesNoRecord(t *testing.T) {
	gw := &fakeGateway{initErr: errors.New("connection refused")}
	svc, mock := newPaymentService(t, gw)

	expectInitiateLookups(mock, courseRow(10, 100, 0))

	_, err := svc.Initiate(context.Background(), 1, 10)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	// No INSERT INTO payments expectation was registered: persisting a
	// record after a gateway failure would fail the test.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInitiateAlreadyEnrolled(t *testing.T) {
	gw := &fakeGateway{}
	svc, mock := newPaymentService(t, gw)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id=").
		WillReturnRows(userRow(1, "912345678", "h", "student", true))
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WillReturnRows(courseRow(10, 100, 0))
	mock.ExpectQuery("SELECT id FROM enrollments WHERE user_id=").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	_, err := svc.Initiate(context.Background(), 1, 10)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.initCalls != 0 {
		t.Fatal("already-enrolled check must run before the gateway call")
	}
}

func TestCallbackSpoofedStatusMarksFailed(t *testing.T) {
	// The callback claims success but independent verification says the
	// transaction never completed. No enrollment may result.
	gw := &fakeGateway{verifyResp: verifyWith("failed", "")}
	svc, mock := newPaymentService(t, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE tx_ref=").
		WillReturnRows(paymentRow(5, "tx-abc", model.PaymentPending, 150))
	mock.ExpectExec("UPDATE payments SET status=(.+) WHERE tx_ref=(.+) AND status=").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.ProcessCallback(context.Background(), "tx-abc", "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.verifyCalls != 1 {
		t.Fatal("callback must trigger independent verification")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCallbackVerifiedSuccessEnrolls(t *testing.T) {
	gw := &fakeGateway{verifyResp: verifyWith("success", "chapa-ref-1")}
	svc, mock := newPaymentService(t, gw)

	var published []queue.EnrollmentConfirmedEvent
	svc.Notify = func(ctx context.Context, ev queue.EnrollmentConfirmedEvent) {
		published = append(published, ev)
	}

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE tx_ref=").
		WillReturnRows(paymentRow(5, "tx-abc", model.PaymentPending, 150))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments SET status=(.+) WHERE tx_ref=(.+) AND status<>").
		WithArgs(model.PaymentSuccess, "chapa-ref-1", "tx-abc", model.PaymentSuccess).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(uint64(1), uint64(10)).
		WillReturnResult(sqlmock.NewResult(88, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT id,user_id,course_id,enrolled_at FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at"}).
			AddRow(88, 1, 10, time.Now()))
	mock.ExpectQuery("SELECT (.+) FROM courses WHERE id=").
		WillReturnRows(courseRow(10, 200, 0.25))

	e, err := svc.ProcessCallback(context.Background(), "tx-abc", "chapa-ref-1")
	if err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}
	if e.ID != 88 {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
	if len(published) != 1 || published[0].TxRef != "tx-abc" {
		t.Fatalf("expected one published event, got %+v", published)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCallbackDuplicateDeliveryIsNoOp(t *testing.T) {
	gw := &fakeGateway{}
	svc, mock := newPaymentService(t, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE tx_ref=").
		WillReturnRows(paymentRow(5, "tx-abc", model.PaymentSuccess, 150))
	mock.ExpectQuery("SELECT id,user_id,course_id,enrolled_at FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at"}).
			AddRow(88, 1, 10, time.Now()))

	e, err := svc.ProcessCallback(context.Background(), "tx-abc", "chapa-ref-1")
	if err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}
	if e.ID != 88 {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
	if gw.verifyCalls != 0 {
		t.Fatal("terminal payments must not be re-verified")
	}
}

func TestCallbackRaceLoserReturnsExistingEnrollment(t *testing.T) {
	gw := &fakeGateway{verifyResp: verifyWith("success", "chapa-ref-1")}
	svc, mock := newPaymentService(t, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE tx_ref=").
		WillReturnRows(paymentRow(5, "tx-abc", model.PaymentPending, 150))
	mock.ExpectBegin()
	// Another delivery promoted the payment between our read and the
	// guarded update: zero rows affected.
	mock.ExpectExec("UPDATE payments SET status=(.+) WHERE tx_ref=(.+) AND status<>").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT id,user_id,course_id,enrolled_at FROM enrollments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "course_id", "enrolled_at"}).
			AddRow(88, 1, 10, time.Now()))
	mock.ExpectRollback()

	e, err := svc.ProcessCallback(context.Background(), "tx-abc", "chapa-ref-1")
	if err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}
	if e.ID != 88 {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCallbackUnknownTxRef(t *testing.T) {
	gw := &fakeGateway{}
	svc, mock := newPaymentService(t, gw)

	mock.ExpectQuery("SELECT (.+) FROM payments WHERE tx_ref=").
		WillReturnError(errNoRows())

	_, err := svc.ProcessCallback(context.Background(), "tx-unknown", "")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.verifyCalls != 0 {
		t.Fatal("unknown references must not be verified")
	}
}

func TestNewTxRefUnique(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		ref := payment.NewTxRef()
		if _, dup := seen[ref]; dup {
			t.Fatalf("duplicate tx_ref after %d draws: %s", i, ref)
		}
		seen[ref] = struct{}{}
	}
}
