package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"lesson-pix/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// memoryPixChargeRepository keeps charges in process memory. Every
// conditional transition runs under the store lock, so the status check and
// the write are one step.
type memoryPixChargeRepository struct {
	mu      sync.Mutex
	charges map[uuid.UUID]*entity.PixCharge
	log     *zap.Logger
}

func NewMemoryPixChargeRepository(log *zap.Logger) PixChargeRepository {
	return &memoryPixChargeRepository{
		charges: make(map[uuid.UUID]*entity.PixCharge),
		log:     log.With(zap.String("repository", "pix_charge_memory")),
	}
}

func (r *memoryPixChargeRepository) Create(ctx context.Context, charge *entity.PixCharge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.charges {
		if c.LessonID != charge.LessonID || c.AmountCents != charge.AmountCents || c.Status != entity.ChargeStatusPending {
			continue
		}
		if c.ExpiresAt.Before(charge.CreatedAt) {
			c.Status = entity.ChargeStatusExpired
			c.UpdatedAt = charge.UpdatedAt
			continue
		}
		return ErrActiveChargeExists
	}

	r.charges[charge.ID] = clonePixCharge(charge)
	return nil
}

func (r *memoryPixChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PixCharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.charges[id]
	if !ok {
		return nil, nil
	}
	return clonePixCharge(c), nil
}

func (r *memoryPixChargeRepository) FindByTransactionID(ctx context.Context, txid string) (*entity.PixCharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *entity.PixCharge
	for _, c := range r.charges {
		if c.TransactionID == txid && (found == nil || c.CreatedAt.After(found.CreatedAt)) {
			found = c
		}
	}
	if found == nil {
		return nil, nil
	}
	return clonePixCharge(found), nil
}

func (r *memoryPixChargeRepository) FindActiveByLesson(ctx context.Context, lessonID string, amountCents int64, now time.Time) (*entity.PixCharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.charges {
		if c.LessonID == lessonID && c.AmountCents == amountCents &&
			c.Status == entity.ChargeStatusPending && !now.After(c.ExpiresAt) {
			return clonePixCharge(c), nil
		}
	}
	return nil, nil
}

func (r *memoryPixChargeRepository) FindByLessonID(ctx context.Context, lessonID string, limit, offset int) ([]*entity.PixCharge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var charges []*entity.PixCharge
	for _, c := range r.charges {
		if c.LessonID == lessonID {
			charges = append(charges, clonePixCharge(c))
		}
	}
	sort.Slice(charges, func(i, j int) bool {
		return charges[i].CreatedAt.After(charges[j].CreatedAt)
	})

	if offset >= len(charges) {
		return nil, nil
	}
	end := offset + limit
	if end > len(charges) {
		end = len(charges)
	}
	return charges[offset:end], nil
}

func (r *memoryPixChargeRepository) CountByLessonID(ctx context.Context, lessonID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for _, c := range r.charges {
		if c.LessonID == lessonID {
			count++
		}
	}
	return count, nil
}

func (r *memoryPixChargeRepository) SetQRImageRef(ctx context.Context, id uuid.UUID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.charges[id]; ok {
		c.QRImageRef = &ref
	}
	return nil
}

func (r *memoryPixChargeRepository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(id, at, entity.ChargeStatusPaid, func(c *entity.PixCharge) bool {
		return !at.After(c.ExpiresAt)
	})
}

func (r *memoryPixChargeRepository) MarkCancelled(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(id, at, entity.ChargeStatusCancelled, func(c *entity.PixCharge) bool {
		return !at.After(c.ExpiresAt)
	})
}

func (r *memoryPixChargeRepository) MarkExpired(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	return r.transition(id, at, entity.ChargeStatusExpired, func(c *entity.PixCharge) bool {
		return at.After(c.ExpiresAt)
	})
}

func (r *memoryPixChargeRepository) ExpireOverdue(ctx context.Context, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, c := range r.charges {
		if c.Status == entity.ChargeStatusPending && at.After(c.ExpiresAt) {
			c.Status = entity.ChargeStatusExpired
			c.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (r *memoryPixChargeRepository) transition(id uuid.UUID, at time.Time, to entity.ChargeStatus, guard func(*entity.PixCharge) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.charges[id]
	if !ok || c.Status != entity.ChargeStatusPending || !guard(c) {
		return false, nil
	}

	c.Status = to
	c.UpdatedAt = at
	if to == entity.ChargeStatusPaid {
		paidAt := at
		c.PaidAt = &paidAt
	}

	r.log.Debug("Pix charge transitioned",
		zap.String("charge_id", id.String()),
		zap.String("status", string(to)),
	)
	return true, nil
}

func clonePixCharge(c *entity.PixCharge) *entity.PixCharge {
	cp := *c
	if c.Description != nil {
		d := *c.Description
		cp.Description = &d
	}
	if c.QRImageRef != nil {
		ref := *c.QRImageRef
		cp.QRImageRef = &ref
	}
	if c.PaidAt != nil {
		paidAt := *c.PaidAt
		cp.PaidAt = &paidAt
	}
	return &cp
}
