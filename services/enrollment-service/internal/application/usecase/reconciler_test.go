package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/payment"
	"courseplatform/services/enrollment-service/internal/testutil"

	"github.com/google/uuid"
)

func TestWebhookDeliveredTwice(t *testing.T) {
	e := newEnv(t)
	course := e.course(testutil.CourseOpts{Lessons: 3, Price: "30"})
	id := identity(time.Time{})
	s, err := e.checkout.CreateSession(e.ctx, id, course.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	first, err := e.deliver("evt_1", payment.EventCheckoutCompleted, s, "paid")
	if err != nil || !first.Handled || first.Enrollment == nil {
		t.Fatalf("first delivery: %+v err=%v", first, err)
	}
	enr := first.Enrollment
	if enr.Status != domain.StatusEnrolled || enr.Progress != 0 || enr.SourceSessionID == nil || *enr.SourceSessionID != s.ID {
		t.Fatalf("unexpected enrollment: %+v", enr)
	}

	again, err := e.deliver("evt_1", payment.EventCheckoutCompleted, s, "paid")
	if err != nil || again.Enrollment.ID != enr.ID {
		t.Fatalf("redelivery: %+v err=%v", again, err)
	}
	other, err := e.deliver("evt_2", payment.EventAsyncPaymentSucceeded, s, "paid")
	if err != nil || other.Enrollment.ID != enr.ID {
		t.Fatalf("second event for the same session: %+v err=%v", other, err)
	}

	if n := e.enrollmentCount(id.UserID, course.ID); n != 1 {
		t.Fatalf("want exactly one enrollment, got %d", n)
	}
	stored, _ := e.sessions.Get(e.ctx, s.ID)
	if stored.Status != domain.SessionCompleted || stored.LastEventID == nil || *stored.LastEventID != "evt_2" {
		t.Fatalf("session not completed: %+v", stored)
	}
}

func TestVerifyThenWebhook(t *testing.T) {
	e := newEnv(t)
	course := e.course(testutil.CourseOpts{Lessons: 3, Price: "30"})
	id := identity(time.Time{})
	s, _ := e.checkout.CreateSession(e.ctx, id, course.ID)

	if _, err := e.rec.VerifyAndEnroll(e.ctx, id, s.ID); !errors.Is(err, domain.ErrPaymentPending) {
		t.Fatalf("unpaid verify: want pending, got %v", err)
	}
	if n := e.enrollmentCount(id.UserID, course.ID); n != 0 {
		t.Fatalf("no enrollment before payment, got %d", n)
	}

	e.gw.markPaid(s.ID)
	verified, err := e.rec.VerifyAndEnroll(e.ctx, id, s.ID)
	if err != nil {
		t.Fatalf("VerifyAndEnroll: %v", err)
	}

	e.advance(3 * time.Second)
	res, err := e.deliver("evt_late", payment.EventCheckoutCompleted, s, "paid")
	if err != nil || res.Enrollment.ID != verified.ID {
		t.Fatalf("webhook after verify: %+v err=%v", res, err)
	}
	if !res.Enrollment.EnrolledAt.Equal(verified.EnrolledAt) {
		t.Fatalf("existing enrollment must be returned unchanged")
	}

	stored, _ := e.sessions.Get(e.ctx, s.ID)
	if stored.CompletedAt == nil || !stored.CompletedAt.Equal(verified.EnrolledAt) {
		t.Fatalf("completed_at must keep the first value: %+v", stored.CompletedAt)
	}
}

func TestWebhookAfterExpiry(t *testing.T) {
	e := newEnv(t)
	course := e.course(testutil.CourseOpts{Lessons: 3, Price: "30"})
	id := identity(time.Time{})
	s, _ := e.checkout.CreateSession(e.ctx, id, course.ID)

	e.advance(20 * time.Minute)
	_, err := e.deliver("evt_1", payment.EventCheckoutCompleted, s, "paid")
	if !errors.Is(err, domain.ErrPaymentVerification) || !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("want session expired, got %v", err)
	}
	if n := e.enrollmentCount(id.UserID, course.ID); n != 0 {
		t.Fatalf("expired session must not enroll, got %d", n)
	}
	stored, _ := e.sessions.Get(e.ctx, s.ID)
	if stored.Status != domain.SessionExpired {
		t.Fatalf("session should be marked expired, got %s", stored.Status)
	}
}

func TestWebhookWithinGrace(t *testing.T) {
	e := newEnv(t)
	course := e.course(testutil.CourseOpts{Lessons: 1, Price: "30"})
	id := identity(time.Time{})
	s, _ := e.checkout.CreateSession(e.ctx, id, course.ID)

	e.advance(checkoutTTL + expiryGrace/2)
	if _, err := e.deliver("evt_1", payment.EventCheckoutCompleted, s, "paid"); err != nil {
		t.Fatalf("delivery inside grace window: %v", err)
	}

	// после завершения срок больше не проверяется
	e.advance(time.Hour)
	if _, err := e.deliver("evt_1", payment.EventCheckoutCompleted, s, "paid"); err != nil {
		t.Fatalf("redelivery of completed session: %v", err)
	}
}

func TestReconcileConcurrentSignals(t *testing.T) {
	e := newEnv(t)
	course := e.course(testutil.CourseOpts{Lessons: 2, Price: "30"})
	id := identity(time.Time{})
	s, _ := e.checkout.CreateSession(e.ctx, id, course.ID)
	e.gw.markPaid(s.ID)

	const calls = 10
	ids := make([]uuid.UUID, calls)
	errs := make([]error, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var enr *domain.Enrollment
			var err error
			if i%2 == 0 {
				var res *WebhookResult
				res, err = e.deliver("evt_dup", payment.EventCheckoutCompleted, s, "paid")
				if res != nil {
					enr = res.Enrollment
				}
			} else {
				enr, err = e.rec.VerifyAndEnroll(e.ctx, id, s.ID)
			}
			errs[i] = err
			if enr != nil {
				ids[i] = enr.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("call %d returned %s, want %s", i, ids[i], ids[0])
		}
	}
	if n := e.enrollmentCount(id.UserID, course.ID); n != 1 {
		t.Fatalf("want exactly one enrollment, got %d", n)
	}
}

func TestReconcileRejectsMismatchedSignals(t *testing.T) {
	e := newEnv(t)
	course := e.course(testutil.CourseOpts{Lessons: 1, Price: "30"})
	id := identity(time.Time{})
	s, _ := e.checkout.CreateSession(e.ctx, id, course.ID)

	cases := []struct {
		name string
		conf domain.PaymentConfirmation
		want error
	}{
		{"other user", domain.PaymentConfirmation{UserID: uuid.New(), CourseID: course.ID, SessionID: s.ID, Paid: true}, domain.ErrAuthorization},
		{"other course", domain.PaymentConfirmation{UserID: id.UserID, CourseID: uuid.New(), SessionID: s.ID, Paid: true}, domain.ErrValidation},
		{"unpaid", domain.PaymentConfirmation{UserID: id.UserID, CourseID: course.ID, SessionID: s.ID}, domain.ErrPaymentVerification},
		{"unknown session", domain.PaymentConfirmation{UserID: id.UserID, CourseID: course.ID, SessionID: "cs_nope", Paid: true}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := e.rec.Reconcile(e.ctx, tc.conf); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	if n := e.enrollmentCount(id.UserID, course.ID); n != 0 {
		t.Fatalf("rejected signals must not enroll, got %d", n)
	}
}

func TestEnrollFree(t *testing.T) {
	e := newEnv(t)
	student := identity(time.Time{})

	free := e.course(testutil.CourseOpts{Lessons: 2})
	first, err := e.rec.EnrollFree(e.ctx, student, free.ID)
	if err != nil || first.SourceSessionID != nil {
		t.Fatalf("EnrollFree: %+v err=%v", first, err)
	}
	second, err := e.rec.EnrollFree(e.ctx, student, free.ID)
	if err != nil || second.ID != first.ID {
		t.Fatalf("repeat EnrollFree: %+v err=%v", second, err)
	}

	paid := e.course(testutil.CourseOpts{Lessons: 2, Price: "9.90"})
	if _, err := e.rec.EnrollFree(e.ctx, student, paid.ID); !errors.Is(err, domain.ErrCourseNotFree) {
		t.Fatalf("paid course: got %v", err)
	}

	premium := e.course(testutil.CourseOpts{Lessons: 2, Premium: true})
	if _, err := e.rec.EnrollFree(e.ctx, student, premium.ID); !errors.Is(err, domain.ErrAuthorization) {
		t.Fatalf("premium course without subscription: got %v", err)
	}
	subscriber := identity(e.clock().Add(30 * 24 * time.Hour))
	if _, err := e.rec.EnrollFree(e.ctx, subscriber, premium.ID); err != nil {
		t.Fatalf("premium course with subscription: %v", err)
	}
}
