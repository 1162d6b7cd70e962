package contribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	msgDuplicate       = "Você já contribuiu com o preço deste produto nesta loja hoje."
	msgAccepted        = "Preço validado com sucesso. Obrigado pela contribuição!"
	msgValidationError = "Erro ao validar a contribuição. Tente novamente mais tarde."
)

// DefaultOutlierThreshold is the relative deviation from the same-day mean,
// in percent, above which a price is flagged.
const DefaultOutlierThreshold = 50.0

// Validator decides whether a submission is a duplicate, a statistical
// outlier or acceptable, looking only at contributions made since local
// midnight.
type Validator struct {
	repo      Reader
	threshold decimal.Decimal
	loc       *time.Location
	now       func() time.Time
	log       *zap.Logger
}

type ValidatorOptions struct {
	// OutlierThreshold in percent; zero means DefaultOutlierThreshold.
	OutlierThreshold float64
	Location         *time.Location
	Now              func() time.Time
}

func NewValidator(repo Reader, opts ValidatorOptions, log *zap.Logger) *Validator {
	if opts.OutlierThreshold <= 0 {
		opts.OutlierThreshold = DefaultOutlierThreshold
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Validator{
		repo:      repo,
		threshold: decimal.NewFromFloat(opts.OutlierThreshold),
		loc:       opts.Location,
		now:       opts.Now,
		log:       log,
	}
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Today returns the start of the current day in the validator's location.
func (v *Validator) Today() time.Time {
	return StartOfDay(v.now(), v.loc)
}

// Validate never returns an error: read failures produce an invalid Result.
func (v *Validator) Validate(ctx context.Context, c Contribution, userID uuid.UUID) Result {
	since := v.Today()

	mine, err := v.repo.ListByUserProductStoreSince(ctx, userID, c.ProductName, c.StoreName, since)
	if err != nil {
		return v.failed(err)
	}
	if len(mine) > 0 {
		return DuplicateResult()
	}

	sameDay, err := v.repo.ListByProductLocationSince(ctx, c.ProductName, c.City, c.State, since)
	if err != nil {
		return v.failed(err)
	}
	if len(sameDay) > 0 {
		mean := meanPrice(sameDay)
		diff := c.Price.Sub(mean).Abs().Div(mean).Mul(decimal.NewFromInt(100))
		if diff.GreaterThan(v.threshold) {
			pct := diff.Round(2).InexactFloat64()
			return Result{
				IsValid:         true,
				Reason:          ReasonOutlier,
				PriceDifference: &pct,
				Message: fmt.Sprintf(
					"O preço informado está %.0f%% diferente da média de hoje na sua região (R$ %s). Confirme se o valor está correto.",
					pct, mean.StringFixed(2)),
			}
		}
	}

	return Result{IsValid: true, Reason: ReasonAccepted, Message: msgAccepted}
}

// DuplicateResult is returned when the user already priced this product at
// this store today.
func DuplicateResult() Result {
	return Result{IsValid: false, Reason: ReasonDuplicate, Message: msgDuplicate}
}

func (v *Validator) failed(err error) Result {
	v.log.Error("contribution validation failed", zap.Error(err))
	return Result{IsValid: false, Reason: ReasonError, Message: msgValidationError}
}

func meanPrice(cs []*Contribution) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range cs {
		sum = sum.Add(c.Price)
	}
	return sum.Div(decimal.NewFromInt(int64(len(cs))))
}
