package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lesson-pix/internal/data/entity"
	"lesson-pix/internal/data/repository"
	"lesson-pix/internal/dto/request"
	"lesson-pix/internal/dto/response"
	"lesson-pix/pkg/pix"
	"lesson-pix/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PixService interface {
	// Generate returns the active charge for (lesson, amount) when one
	// exists, otherwise creates one. created reports which happened.
	Generate(ctx context.Context, req *request.GeneratePixChargeRequest) (charge *response.PixChargeResponse, created bool, err error)
	Confirm(ctx context.Context, chargeID string) (*response.PixChargeResponse, error)
	Cancel(ctx context.Context, chargeID string) (*response.PixChargeResponse, error)
	GetStatus(ctx context.Context, chargeID string) (*response.PixStatusResponse, error)
	GetCharge(ctx context.Context, chargeID string) (*response.PixChargeResponse, error)
	ListByLesson(ctx context.Context, lessonID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PixChargeResponse], error)
	VerifyCode(ctx context.Context, req *request.VerifyPixCodeRequest) (*response.PixVerifyResponse, error)
}

type pixService struct {
	repo    repository.PixChargeRepository
	encoder *CodeEncoder
	config  utils.PixConfig
	now     func() time.Time
	log     *zap.Logger
}

type PixServiceOption func(*pixService)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) PixServiceOption {
	return func(s *pixService) {
		s.now = now
	}
}

func NewPixService(repo *repository.Repository, encoder *CodeEncoder, config utils.PixConfig, log *zap.Logger, opts ...PixServiceOption) PixService {
	s := &pixService{
		repo:    repo.PixCharge,
		encoder: encoder,
		config:  config,
		now:     time.Now,
		log:     log.With(zap.String("service", "pix")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *pixService) Generate(ctx context.Context, req *request.GeneratePixChargeRequest) (*response.PixChargeResponse, bool, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Generate pix charge validation failed", zap.Any("errors", errs))
		return nil, false, fmt.Errorf("%w: %s", ErrRequestInvalid, utils.FormatValidationErrors(errs))
	}

	now := s.now()

	existing, err := s.repo.FindActiveByLesson(ctx, req.LessonID, req.AmountCents, now)
	if err != nil {
		return nil, false, fmt.Errorf("find active pix charge: %w", err)
	}
	if existing != nil {
		s.log.Info("Reusing active pix charge",
			zap.String("charge_id", existing.ID.String()),
			zap.String("lesson_id", req.LessonID),
		)
		resp := response.PixChargeToResponse(existing, now)
		return &resp, false, nil
	}

	city := req.MerchantCity
	if strings.TrimSpace(city) == "" {
		city = s.config.MerchantCity
	}

	chargeID := utils.GenerateUUID()
	txid := utils.GenerateTxID(req.LessonID, chargeID)

	payload, err := pix.Build(pix.Charge{
		AmountCents:        req.AmountCents,
		RecipientKey:       req.RecipientKey,
		RecipientName:      req.RecipientName,
		MerchantCity:       city,
		Description:        req.Description,
		TransactionID:      txid,
		StrictMerchantInfo: s.config.StrictMerchantInfo,
	})
	if err != nil {
		s.log.Warn("Pix payload rejected",
			zap.Error(err),
			zap.String("lesson_id", req.LessonID),
			zap.Int64("amount_cents", req.AmountCents),
		)
		return nil, false, err
	}

	code := s.encoder.Encode(payload)

	expiry := s.config.Expiry()
	if req.ExpiresInMinutes > 0 {
		expiry = time.Duration(req.ExpiresInMinutes) * time.Minute
	}

	charge := &entity.PixCharge{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        chargeID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		LessonID:      req.LessonID,
		AmountCents:   req.AmountCents,
		RecipientKey:  pix.SanitizeKey(req.RecipientKey),
		RecipientName: pix.SanitizeName(req.RecipientName),
		MerchantCity:  pix.SanitizeCity(city),
		TransactionID: txid,
		Payload:       code,
		Status:        entity.ChargeStatusPending,
		ExpiresAt:     now.Add(expiry),
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		charge.Description = &d
	}

	if err := s.repo.Create(ctx, charge); err != nil {
		if errors.Is(err, repository.ErrActiveChargeExists) {
			// lost a race with a concurrent generate for the same lesson
			winner, findErr := s.repo.FindActiveByLesson(ctx, req.LessonID, req.AmountCents, now)
			if findErr == nil && winner != nil {
				resp := response.PixChargeToResponse(winner, now)
				return &resp, false, nil
			}
		}
		s.log.Error("Failed to create pix charge",
			zap.Error(err),
			zap.String("lesson_id", req.LessonID),
		)
		return nil, false, fmt.Errorf("create pix charge: %w", err)
	}

	// rendered after Create so only stored charges get an image
	if ref := s.encoder.Render(ctx, charge.ID.String(), code); ref != nil {
		if err := s.repo.SetQRImageRef(ctx, charge.ID, *ref); err != nil {
			s.log.Warn("Failed to store pix charge image", zap.Error(err), zap.String("charge_id", charge.ID.String()))
		} else {
			charge.QRImageRef = ref
		}
	}

	s.log.Info("Pix charge created",
		zap.String("charge_id", charge.ID.String()),
		zap.String("lesson_id", charge.LessonID),
		zap.String("transaction_id", charge.TransactionID),
		zap.Int64("amount_cents", charge.AmountCents),
		zap.Time("expires_at", charge.ExpiresAt),
		zap.Bool("has_image", charge.QRImageRef != nil),
	)

	resp := response.PixChargeToResponse(charge, now)
	return &resp, true, nil
}

func (s *pixService) Confirm(ctx context.Context, chargeID string) (*response.PixChargeResponse, error) {
	id, err := parseChargeID(chargeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	applied, err := s.repo.MarkPaid(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("confirm pix charge %s: %w", chargeID, err)
	}

	charge, err := s.findCharge(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, _ := utils.GetConfirmActor(ctx)
	if applied {
		s.log.Info("Pix charge paid",
			zap.String("charge_id", chargeID),
			zap.String("lesson_id", charge.LessonID),
			zap.String("confirmed_by", actor),
		)
		resp := response.PixChargeToResponse(charge, now)
		return &resp, nil
	}

	switch charge.Status {
	case entity.ChargeStatusPaid:
		resp := response.PixChargeToResponse(charge, now)
		return &resp, nil

	case entity.ChargeStatusPending:
		// guard failed on a pending charge: it is past expiry
		if err := s.expire(ctx, charge, now); err != nil {
			return nil, err
		}
		return nil, &StateError{Reason: Expired, ChargeID: chargeID, Status: entity.ChargeStatusExpired}

	default:
		s.log.Warn("Confirm on terminal pix charge",
			zap.String("charge_id", chargeID),
			zap.String("status", string(charge.Status)),
			zap.String("confirmed_by", actor),
		)
		return nil, &StateError{Reason: AlreadyTerminal, ChargeID: chargeID, Status: charge.Status}
	}
}

func (s *pixService) Cancel(ctx context.Context, chargeID string) (*response.PixChargeResponse, error) {
	id, err := parseChargeID(chargeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	applied, err := s.repo.MarkCancelled(ctx, id, now)
	if err != nil {
		return nil, fmt.Errorf("cancel pix charge %s: %w", chargeID, err)
	}

	charge, err := s.findCharge(ctx, id)
	if err != nil {
		return nil, err
	}

	if applied {
		s.log.Info("Pix charge cancelled",
			zap.String("charge_id", chargeID),
			zap.String("lesson_id", charge.LessonID),
		)
		resp := response.PixChargeToResponse(charge, now)
		return &resp, nil
	}

	switch charge.Status {
	case entity.ChargeStatusCancelled:
		resp := response.PixChargeToResponse(charge, now)
		return &resp, nil

	case entity.ChargeStatusPending:
		if err := s.expire(ctx, charge, now); err != nil {
			return nil, err
		}
		return nil, &StateError{Reason: AlreadyTerminal, ChargeID: chargeID, Status: entity.ChargeStatusExpired}

	default:
		return nil, &StateError{Reason: AlreadyTerminal, ChargeID: chargeID, Status: charge.Status}
	}
}

func (s *pixService) GetStatus(ctx context.Context, chargeID string) (*response.PixStatusResponse, error) {
	id, err := parseChargeID(chargeID)
	if err != nil {
		return nil, err
	}

	charge, err := s.findCharge(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.PixStatusToResponse(charge, s.now())
	return &resp, nil
}

func (s *pixService) GetCharge(ctx context.Context, chargeID string) (*response.PixChargeResponse, error) {
	id, err := parseChargeID(chargeID)
	if err != nil {
		return nil, err
	}

	charge, err := s.findCharge(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.PixChargeToResponse(charge, s.now())
	return &resp, nil
}

func (s *pixService) ListByLesson(ctx context.Context, lessonID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.PixChargeResponse], error) {
	if strings.TrimSpace(lessonID) == "" {
		return nil, fmt.Errorf("%w: lesson_id is required", ErrRequestInvalid)
	}

	charges, err := s.repo.FindByLessonID(ctx, lessonID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list pix charges: %w", err)
	}

	total, err := s.repo.CountByLessonID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("count pix charges: %w", err)
	}

	now := s.now()
	data := make([]response.PixChargeResponse, len(charges))
	for i, charge := range charges {
		data[i] = response.PixChargeToResponse(charge, now)
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *pixService) VerifyCode(ctx context.Context, req *request.VerifyPixCodeRequest) (*response.PixVerifyResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRequestInvalid, utils.FormatValidationErrors(errs))
	}

	code := strings.TrimSpace(req.Code)
	decoded, err := pix.Parse(code)
	if err != nil {
		s.log.Warn("Inbound pix code rejected", zap.Error(err))
		return nil, err
	}

	resp := response.DecodedToVerifyResponse(decoded)
	if decoded.TransactionID == "" || decoded.TransactionID == pix.NoTxID {
		return &resp, nil
	}

	charge, err := s.repo.FindByTransactionID(ctx, decoded.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("find pix charge by transaction ID: %w", err)
	}
	if charge != nil {
		id := charge.ID.String()
		status := charge.StatusAt(s.now())
		resp.ChargeID = &id
		resp.ChargeStatus = &status
		resp.MatchesCharge = charge.Payload == code
	}

	return &resp, nil
}

func (s *pixService) findCharge(ctx context.Context, id uuid.UUID) (*entity.PixCharge, error) {
	charge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find pix charge %s: %w", id.String(), err)
	}
	if charge == nil {
		return nil, fmt.Errorf("%w: %s", ErrChargeNotFound, id.String())
	}
	return charge, nil
}

// expire materializes the expired state observed on charge.
func (s *pixService) expire(ctx context.Context, charge *entity.PixCharge, now time.Time) error {
	applied, err := s.repo.MarkExpired(ctx, charge.ID, now)
	if err != nil {
		return fmt.Errorf("expire pix charge %s: %w", charge.ID.String(), err)
	}
	if applied {
		s.log.Info("Pix charge expired",
			zap.String("charge_id", charge.ID.String()),
			zap.String("lesson_id", charge.LessonID),
			zap.Time("expires_at", charge.ExpiresAt),
		)
	}
	return nil
}

func parseChargeID(chargeID string) (uuid.UUID, error) {
	id, err := utils.ParseUUID(chargeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w %q: %v", ErrInvalidChargeID, chargeID, err)
	}
	return id, nil
}
