package workflow

import (
	"errors"
	"strings"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/fiado_backend/models"
	"gorm.io/gorm"
)

var (
	ErrIdempotencyInProgress = errors.New("idempotency in progress")
	ErrIdempotencyKeyReused  = errors.New("idempotency key already used for a different target")
)

func isDuplicateKeyErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// BeginIdempotency inserts STARTED for (handlerName, key) inside tx.
// If SUCCEEDED exists for the same target, returns (true, nil) meaning "replay, don't apply again".
func BeginIdempotency(tx *gorm.DB, handlerName, key string, targetId int) (replay bool, err error) {
	row := models.IdempotencyKey{
		HandlerName:    handlerName,
		IdempotencyKey: key,
		Status:         models.IdempotencyStatusStarted,
		ResultId:       targetId,
	}
	if err := tx.Create(&row).Error; err == nil {
		return false, nil
	} else if !isDuplicateKeyErr(err) {
		return false, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("handler_name = ? AND idempotency_key = ?", handlerName, key).
		First(&existing).Error; err != nil {
		return false, err
	}
	if existing.ResultId != targetId {
		return false, ErrIdempotencyKeyReused
	}

	switch existing.Status {
	case models.IdempotencyStatusSucceeded:
		return true, nil
	case models.IdempotencyStatusStarted:
		// a live request holds it; a stale one is taken over
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return false, ErrIdempotencyInProgress
		}
	}
	return false, tx.Model(&models.IdempotencyKey{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusStarted, "last_error": nil}).Error
}

func MarkIdempotencySucceeded(tx *gorm.DB, handlerName, key string) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND idempotency_key = ?", handlerName, key).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusSucceeded, "last_error": nil}).Error
}

// MarkIdempotencyFailed records a failure outside the rolled back command transaction.
func MarkIdempotencyFailed(db *gorm.DB, handlerName, key string, targetId int, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	row := models.IdempotencyKey{
		HandlerName:    handlerName,
		IdempotencyKey: key,
		Status:         models.IdempotencyStatusFailed,
		ResultId:       targetId,
		LastError:      &msg,
	}
	if createErr := db.Create(&row).Error; createErr == nil {
		return nil
	} else if !isDuplicateKeyErr(createErr) {
		return createErr
	}
	return db.Model(&models.IdempotencyKey{}).
		Where("handler_name = ? AND idempotency_key = ? AND status <> ?", handlerName, key, models.IdempotencyStatusSucceeded).
		Updates(map[string]interface{}{"status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}

// errorsIsIdempotency is true for conflicts on the key itself. Those leave the stored row alone.
func errorsIsIdempotency(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyReused) || errors.Is(err, ErrIdempotencyInProgress)
}
