package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repository"
)

type CouponInput struct {
	Code  string            `json:"code" binding:"required"`
	Value decimal.Decimal   `json:"value"`
	Type  models.CouponType `json:"type"`
}

type CouponService interface {
	List(ctx context.Context) ([]models.Coupon, error)
	Create(ctx context.Context, input CouponInput) (*models.Coupon, error)
	Delete(ctx context.Context, id string) error
}

type couponService struct {
	repo   repository.CouponRepository
	conn   *Connectivity
	events EventPublisher
}

func NewCouponService(repo repository.CouponRepository, conn *Connectivity, events EventPublisher) CouponService {
	return &couponService{repo: repo, conn: conn, events: events}
}

func (s *couponService) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return coupons, nil
}

func (s *couponService) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	if err := s.conn.Guard(); err != nil {
		return nil, err
	}

	code := cart.NormalizeCode(input.Code)
	v := &ValidationError{}
	if code == "" {
		v.add("code", "is required")
	}
	if !input.Value.IsPositive() {
		v.add("value", "must be greater than zero")
	}
	if input.Type == "" {
		input.Type = models.CouponFlat
	}
	if !input.Type.IsValid() {
		v.add("type", "must be flat or percent")
	} else if input.Type == models.CouponPercent && input.Value.GreaterThan(decimal.NewFromInt(100)) {
		v.add("value", "percent coupons cannot exceed 100")
	}
	if err := v.orNil(); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		ID:    uuid.NewString(),
		Code:  code,
		Value: input.Value,
		Type:  input.Type,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("coupon %s: %w", code, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create coupon: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionCoupons, "created", coupon.ID)
	return coupon, nil
}

func (s *couponService) Delete(ctx context.Context, id string) error {
	if err := s.conn.Guard(); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if database.IsNotFound(err) {
			return fmt.Errorf("coupon %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete coupon: %w", s.conn.Observe(err))
	}

	announce(ctx, s.events, CollectionCoupons, "deleted", id)
	return nil
}
