package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/fiado_backend/config"
	"github.com/mmdatafocus/fiado_backend/models"
	"github.com/mmdatafocus/fiado_backend/models/reports"
	"github.com/mmdatafocus/fiado_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const tracerName = "github.com/mmdatafocus/fiado_backend/workflow"

// DebtLedger runs every command that creates or mutates customer debt.
// Each command is one database transaction.
type DebtLedger struct {
	DB     *gorm.DB
	Logger *logrus.Logger
	Locker *redislock.Client
	Clock  models.Clock
	Tracer trace.Tracer

	UseRedisLocks     bool
	LockTTL           time.Duration
	LockRetries       int
	LockRetryInterval time.Duration
	MaxAttempts       int
}

func NewDebtLedger(db *gorm.DB, logger *logrus.Logger) *DebtLedger {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &DebtLedger{
		DB:                db,
		Logger:            logger,
		Locker:            config.GetRedisLock(),
		Clock:             models.SystemClock{},
		Tracer:            otel.Tracer(tracerName),
		UseRedisLocks:     config.RedisDebtLocksEnabled(),
		LockTTL:           10 * time.Second,
		LockRetries:       20,
		LockRetryInterval: 50 * time.Millisecond,
		MaxAttempts:       config.DebtTxMaxAttempts(),
	}
}

func (l *DebtLedger) now() time.Time {
	if l.Clock == nil {
		return time.Now().UTC()
	}
	return l.Clock.Now().UTC()
}

func (l *DebtLedger) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := l.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return tracer.Start(ctx, "DebtLedger."+op, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// withRetry reruns fn while it fails with a concurrent modification, up to MaxAttempts times.
func (l *DebtLedger) withRetry(ctx context.Context, op string, fn func(attempt int) error) error {
	attempts := l.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn(attempt)
		if !errors.Is(err, models.ErrConcurrentModification) {
			return err
		}
		l.Logger.WithFields(logrus.Fields{
			"field":   op,
			"attempt": attempt,
		}).Warn("concurrent modification; retrying")
	}
	return err
}

// afterCommit drops cached debt reports. A cache failure never fails the command.
func (l *DebtLedger) afterCommit(op string) {
	if err := reports.InvalidateDebtReports(); err != nil {
		config.LogError(l.Logger, "DebtLedger", op, "invalidate debt reports", nil, err)
	}
}

// logFailure logs unexpected failures. Business rule errors are returned to the caller only.
func (l *DebtLedger) logFailure(ctx context.Context, op string, data any, err error) {
	if err == nil {
		return
	}
	var domainErr models.DomainError
	var validationErr *utils.ValidationError
	if errors.As(err, &domainErr) || errors.As(err, &validationErr) ||
		errors.Is(err, ErrIdempotencyKeyReused) || errors.Is(err, ErrIdempotencyInProgress) {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	config.LogError(l.Logger, "DebtLedger", op, cid, data, err)
}

// GetDebtInstance returns the instance with its entries.
func (l *DebtLedger) GetDebtInstance(ctx context.Context, id int) (*models.DebtInstance, error) {
	return models.FindDebtInstanceWithEntries(ctx, l.DB, id)
}
