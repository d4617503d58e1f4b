package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"braidbook/infras/otel"
	"braidbook/infras/postgres"
	"braidbook/internal/domains/availability/model"
	bookingModel "braidbook/internal/domains/booking/model"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/logger"
	"braidbook/shared/timezone"
	gRepo "braidbook/shared/repository"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Availability interface {
	Publish(ctx context.Context, models []model.Availability) (int, error)
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Availability, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Availability, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Availability]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Availability {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Availability](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Publish inserts the given slots, leaving rows that already exist (and their booked state) untouched.
// Rows for slots that already hold a confirmed booking come out booked. It returns how many rows were new.
func (r *repositoryImpl) Publish(ctx context.Context, models []model.Availability) (published int, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".availability.Publish")
	defer scope.End()
	defer scope.TraceIfError(&err)

	query := r.InsertStatement(fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", model.FieldID))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, m := range models {
			result, err := tx.NamedExecContext(ctx, query, m)
			if err != nil {
				return fmt.Errorf("failed to publish slot %s: %w", m.ID, err)
			}

			affected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read affected rows: %w", err)
			}

			published += int(affected)
		}

		return markConfirmed(ctx, tx, models)
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return 0, fmt.Errorf("failed to publish availability: %w", err)
	}

	return published, nil
}

// markConfirmed books the given slots that a confirmed appointment already references, bumping the version
// of each row it flips.
func markConfirmed(ctx context.Context, tx *sqlx.Tx, models []model.Availability) error {
	if len(models) == 0 {
		return nil
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}

	query, args, err := sqlx.In(fmt.Sprintf(
		"UPDATE %[1]s SET %[2]s = ?, %[3]s = %[3]s + 1, %[4]s = ?, %[5]s = ? WHERE %[6]s IN (?) AND %[2]s = ? "+
			"AND EXISTS (SELECT 1 FROM %[7]s WHERE %[7]s.%[8]s = %[1]s.%[6]s AND %[7]s.%[9]s = ?)",
		model.TableName,
		model.FieldIsBooked,
		model.FieldVersion,
		constant.FieldModifiedAt,
		constant.FieldModifiedBy,
		model.FieldID,
		bookingModel.TableName,
		bookingModel.FieldSlotID,
		bookingModel.FieldStatus,
	), true, timezone.Now(), models[0].ModifiedBy, ids, false, bookingModel.StatusConfirmed.String())
	if err != nil {
		return fmt.Errorf("failed to build booked slot update: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to mark confirmed slots: %w", err)
	}

	return nil
}
