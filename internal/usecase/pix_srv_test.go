package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lesson-pix/internal/data/entity"
	"lesson-pix/internal/data/repository"
	"lesson-pix/internal/dto/request"
	"lesson-pix/pkg/pix"
	"lesson-pix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubRenderer struct {
	err   error
	block chan struct{}
	calls int
	mu    sync.Mutex
}

func (r *stubRenderer) Render(ctx context.Context, name, content string, size int) (string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return "", r.err
	}
	return "/qr/" + name + ".png", nil
}

type fixture struct {
	svc   PixService
	repo  *repository.Repository
	clock *fakeClock
}

func newFixture(t *testing.T, renderer *stubRenderer) *fixture {
	t.Helper()

	log := zap.NewNop()
	repo := repository.NewMemoryRepository(log)
	clock := &fakeClock{now: time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)}
	config := utils.PixConfig{ExpiryMinutes: 30, MerchantCity: "SAO PAULO"}

	var encoder *CodeEncoder
	if renderer != nil {
		encoder = NewCodeEncoder(renderer, 128, 50*time.Millisecond, log)
	} else {
		encoder = NewCodeEncoder(nil, 128, 50*time.Millisecond, log)
	}

	return &fixture{
		svc:   NewPixService(repo, encoder, config, log, WithClock(clock.Now)),
		repo:  repo,
		clock: clock,
	}
}

func lessonRequest() *request.GeneratePixChargeRequest {
	return &request.GeneratePixChargeRequest{
		LessonID:      "LESSON123",
		AmountCents:   12000,
		RecipientKey:  "instrutor@bora.com",
		RecipientName: "Carlos Mendes",
		Description:   "Aula pratica",
	}
}

func TestPixService_Generate(t *testing.T) {
	f := newFixture(t, &stubRenderer{})
	ctx := context.Background()

	charge, created, err := f.svc.Generate(ctx, lessonRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected a new charge")
	}
	if charge.Status != entity.ChargeStatusPending {
		t.Errorf("expected pending, got %s", charge.Status)
	}
	if !charge.ExpiresAt.Equal(f.clock.Now().Add(30 * time.Minute)) {
		t.Errorf("expected expiry in 30 minutes, got %s", charge.ExpiresAt)
	}
	if charge.QRImageRef == nil || *charge.QRImageRef != "/qr/"+charge.ID+".png" {
		t.Errorf("unexpected image ref %v", charge.QRImageRef)
	}
	if !strings.Contains(charge.Payload, "5406120.00") || !strings.Contains(charge.Payload, "6009SAO PAULO") {
		t.Errorf("unexpected payload %s", charge.Payload)
	}
	if len(charge.TransactionID) != 25 || !strings.HasPrefix(charge.TransactionID, "LESSON123") {
		t.Errorf("unexpected txid %s", charge.TransactionID)
	}

	decoded, err := pix.Parse(charge.Payload)
	if err != nil {
		t.Fatalf("generated payload does not parse: %v", err)
	}
	if decoded.TransactionID != charge.TransactionID || decoded.AmountCents != 12000 {
		t.Errorf("decoded payload mismatch: %+v", decoded)
	}
}

func TestPixService_GenerateIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, _, err := f.svc.Generate(ctx, lessonRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.clock.Advance(10 * time.Minute)
	second, created, err := f.svc.Generate(ctx, lessonRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing charge to be reused")
	}
	if second.ID != first.ID || second.Payload != first.Payload {
		t.Errorf("expected identical charge, got %s vs %s", second.ID, first.ID)
	}

	other := lessonRequest()
	other.AmountCents = 15000
	third, created, _ := f.svc.Generate(ctx, other)
	if !created || third.ID == first.ID {
		t.Error("expected a new charge for a different amount")
	}
}

func TestPixService_GenerateAfterExpiryCreatesNew(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, _, _ := f.svc.Generate(ctx, lessonRequest())

	f.clock.Advance(31 * time.Minute)
	second, created, err := f.svc.Generate(ctx, lessonRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created || second.ID == first.ID {
		t.Fatal("expected a fresh charge after expiry")
	}

	old, _ := f.svc.GetCharge(ctx, first.ID)
	if old.Status != entity.ChargeStatusExpired {
		t.Errorf("expected old charge expired, got %s", old.Status)
	}
}

func TestPixService_GenerateConcurrentSingleCharge(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	ids := make(chan string, 20)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			charge, _, err := f.svc.Generate(ctx, lessonRequest())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			ids <- charge.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected one charge id, got %d", len(seen))
	}
}

func TestPixService_GenerateRendersOnlyStoredCharge(t *testing.T) {
	renderer := &stubRenderer{}
	f := newFixture(t, renderer)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := f.svc.Generate(ctx, lessonRequest()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	renderer.mu.Lock()
	calls := renderer.calls
	renderer.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected one render, got %d", calls)
	}

	charge, _, err := f.svc.Generate(ctx, lessonRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, err := f.repo.PixCharge.FindByID(ctx, uuid.MustParse(charge.ID))
	if err != nil || stored == nil {
		t.Fatalf("expected stored charge, got %v", err)
	}
	if stored.QRImageRef == nil || *stored.QRImageRef != "/qr/"+charge.ID+".png" {
		t.Errorf("expected stored image ref, got %v", stored.QRImageRef)
	}
}

func TestPixService_GenerateCustomExpiry(t *testing.T) {
	f := newFixture(t, nil)
	req := lessonRequest()
	req.ExpiresInMinutes = 5

	charge, _, err := f.svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !charge.ExpiresAt.Equal(f.clock.Now().Add(5 * time.Minute)) {
		t.Errorf("expected 5 minute expiry, got %s", charge.ExpiresAt)
	}
}

func TestPixService_GenerateValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*request.GeneratePixChargeRequest)
		reason pix.ValidationReason
	}{
		{"missing key", func(r *request.GeneratePixChargeRequest) { r.RecipientKey = "" }, pix.MissingKey},
		{"zero amount", func(r *request.GeneratePixChargeRequest) { r.AmountCents = 0 }, pix.InvalidAmount},
		{"negative amount", func(r *request.GeneratePixChargeRequest) { r.AmountCents = -1 }, pix.InvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := lessonRequest()
			tt.mutate(req)

			_, _, err := f.svc.Generate(ctx, req)
			var verr *pix.ValidationError
			if !errors.As(err, &verr) || verr.Reason != tt.reason {
				t.Errorf("expected %s, got %v", tt.reason, err)
			}
		})
	}

	req := lessonRequest()
	req.LessonID = ""
	if _, _, err := f.svc.Generate(ctx, req); !errors.Is(err, ErrRequestInvalid) {
		t.Errorf("expected ErrRequestInvalid, got %v", err)
	}
}

func TestPixService_GenerateRendererFailureIsSoft(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		f := newFixture(t, &stubRenderer{err: errors.New("disk full")})

		charge, created, err := f.svc.Generate(context.Background(), lessonRequest())
		if err != nil || !created {
			t.Fatalf("expected charge despite renderer failure, got %v", err)
		}
		if charge.QRImageRef != nil {
			t.Errorf("expected no image ref, got %s", *charge.QRImageRef)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)
		f := newFixture(t, &stubRenderer{block: block})

		start := time.Now()
		charge, _, err := f.svc.Generate(context.Background(), lessonRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if charge.QRImageRef != nil {
			t.Error("expected no image ref after timeout")
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("renderer timeout not bounded, took %s", elapsed)
		}
	})
}

func TestPixService_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to paid, then idempotent", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())

		f.clock.Advance(5 * time.Minute)
		paid, err := f.svc.Confirm(ctx, charge.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if paid.Status != entity.ChargeStatusPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(f.clock.Now()) {
			t.Errorf("unexpected paid charge %+v", paid)
		}

		f.clock.Advance(time.Minute)
		again, err := f.svc.Confirm(ctx, charge.ID)
		if err != nil {
			t.Fatalf("expected idempotent confirm, got %v", err)
		}
		if !again.PaidAt.Equal(*paid.PaidAt) {
			t.Error("repeated confirm must not move paid_at")
		}
	})

	t.Run("exactly at expiry succeeds", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())

		f.clock.Advance(30 * time.Minute)
		if _, err := f.svc.Confirm(ctx, charge.ID); err != nil {
			t.Errorf("expected confirm at expiry instant to succeed, got %v", err)
		}
	})

	t.Run("after expiry fails and materializes", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())

		f.clock.Advance(30*time.Minute + time.Second)
		_, err := f.svc.Confirm(ctx, charge.ID)
		assertStateError(t, err, Expired)

		_, err = f.svc.Confirm(ctx, charge.ID)
		assertStateError(t, err, AlreadyTerminal)
	})

	t.Run("cancelled fails", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())
		if _, err := f.svc.Cancel(ctx, charge.ID); err != nil {
			t.Fatalf("unexpected cancel error: %v", err)
		}

		_, err := f.svc.Confirm(ctx, charge.ID)
		assertStateError(t, err, AlreadyTerminal)
	})

	t.Run("unknown and malformed ids", func(t *testing.T) {
		f := newFixture(t, nil)
		if _, err := f.svc.Confirm(ctx, "0b6f1a8e-2d6c-4f1e-9a51-3b0c7f0d2e11"); !errors.Is(err, ErrChargeNotFound) {
			t.Errorf("expected ErrChargeNotFound, got %v", err)
		}
		if _, err := f.svc.Confirm(ctx, "nope"); !errors.Is(err, ErrInvalidChargeID) {
			t.Errorf("expected ErrInvalidChargeID, got %v", err)
		}
	})
}

func TestPixService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending to cancelled, then idempotent", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())

		cancelled, err := f.svc.Cancel(ctx, charge.ID)
		if err != nil || cancelled.Status != entity.ChargeStatusCancelled {
			t.Fatalf("expected cancelled, got %v %v", cancelled, err)
		}
		if _, err := f.svc.Cancel(ctx, charge.ID); err != nil {
			t.Errorf("expected idempotent cancel, got %v", err)
		}
	})

	t.Run("paid cannot be cancelled", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())
		f.svc.Confirm(ctx, charge.ID)

		_, err := f.svc.Cancel(ctx, charge.ID)
		assertStateError(t, err, AlreadyTerminal)
	})

	t.Run("expired cannot be cancelled", func(t *testing.T) {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())
		f.clock.Advance(time.Hour)

		_, err := f.svc.Cancel(ctx, charge.ID)
		assertStateError(t, err, AlreadyTerminal)

		status, _ := f.svc.GetStatus(ctx, charge.ID)
		if status.Status != entity.ChargeStatusExpired {
			t.Errorf("expected expired, got %s", status.Status)
		}
	})
}

func TestPixService_GetStatusProjectsExpiry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	charge, _, _ := f.svc.Generate(ctx, lessonRequest())

	status, err := f.svc.GetStatus(ctx, charge.ID)
	if err != nil || status.Status != entity.ChargeStatusPending {
		t.Fatalf("expected pending, got %v %v", status, err)
	}

	f.clock.Advance(31 * time.Minute)
	status, _ = f.svc.GetStatus(ctx, charge.ID)
	if status.Status != entity.ChargeStatusExpired {
		t.Errorf("expected expired projection, got %s", status.Status)
	}

	// the read is a projection; storage still holds pending
	stored, _ := f.repo.PixCharge.FindByID(ctx, uuid.MustParse(charge.ID))
	if stored.Status != entity.ChargeStatusPending {
		t.Errorf("expected stored status pending, got %s", stored.Status)
	}
}

func TestPixService_ConfirmRacesExpiry(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		f := newFixture(t, nil)
		charge, _, _ := f.svc.Generate(ctx, lessonRequest())
		f.clock.Advance(30 * time.Minute)

		sweeper := &ExpirySweeper{repo: f.repo.PixCharge, now: func() time.Time { return f.clock.Now().Add(time.Second) }, log: zap.NewNop()}

		var wg sync.WaitGroup
		var confirmErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, confirmErr = f.svc.Confirm(ctx, charge.ID)
		}()
		go func() {
			defer wg.Done()
			sweeper.RunOnce(ctx)
		}()
		wg.Wait()

		final, _ := f.svc.GetCharge(ctx, charge.ID)
		switch final.Status {
		case entity.ChargeStatusPaid:
			if confirmErr != nil {
				t.Errorf("charge paid but confirm failed: %v", confirmErr)
			}
		case entity.ChargeStatusExpired:
			if confirmErr == nil {
				t.Error("charge expired but confirm reported success")
			}
		default:
			t.Errorf("expected a single terminal status, got %s", final.Status)
		}
	}
}

func TestPixService_ListByLesson(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, amount := range []int64{1000, 2000, 3000} {
		req := lessonRequest()
		req.AmountCents = amount
		f.svc.Generate(ctx, req)
		f.clock.Advance(time.Minute)
	}

	page, err := f.svc.ListByLesson(ctx, "LESSON123", &request.PaginatedRequest{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 2 || page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 {
		t.Errorf("unexpected page %+v", page.Pagination)
	}
	if page.Data[0].AmountCents != 3000 {
		t.Errorf("expected newest first, got %d", page.Data[0].AmountCents)
	}
}

func TestPixService_VerifyCode(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	charge, _, _ := f.svc.Generate(ctx, lessonRequest())

	resp, err := f.svc.VerifyCode(ctx, &request.VerifyPixCodeRequest{Code: charge.Payload})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Valid || resp.ChargeID == nil || *resp.ChargeID != charge.ID || !resp.MatchesCharge {
		t.Errorf("expected code to match charge, got %+v", resp)
	}
	if resp.AmountCents == nil || *resp.AmountCents != 12000 {
		t.Errorf("unexpected amount %v", resp.AmountCents)
	}

	tampered := charge.Payload[:len(charge.Payload)-4] + "0000"
	if charge.Payload[len(charge.Payload)-4:] == "0000" {
		tampered = charge.Payload[:len(charge.Payload)-4] + "FFFF"
	}
	_, err = f.svc.VerifyCode(ctx, &request.VerifyPixCodeRequest{Code: tampered})
	var cerr *pix.ChecksumError
	if !errors.As(err, &cerr) {
		t.Errorf("expected ChecksumError, got %v", err)
	}
}

func assertStateError(t *testing.T, err error, reason StateReason) {
	t.Helper()
	var serr *StateError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StateError, got %v", err)
	}
	if serr.Reason != reason {
		t.Errorf("expected reason %s, got %s", reason, serr.Reason)
	}
}
