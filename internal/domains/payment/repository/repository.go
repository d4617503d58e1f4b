package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"braidbook/infras/otel"
	"braidbook/infras/postgres"
	"braidbook/internal/domains/payment/model"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/logger"
	gRepo "braidbook/shared/repository"
	"context"
	"fmt"
)

type PaymentEvent interface {
	Recorded(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, event model.PaymentEvent) error
}

type repositoryImpl struct {
	gRepo.Repository[model.PaymentEvent]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) PaymentEvent {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.PaymentEvent](model.EntityName, model.TableName, model.FieldEventID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) Recorded(ctx context.Context, eventID string) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".payment_event.Recorded")
	defer scope.End()

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldEventID,
				Operator: gDto.FilterOperatorEq,
				Value:    eventID,
				Table:    model.TableName,
			},
		},
	}

	return r.Exist(ctx, filter) //nolint:wrapcheck
}

// Record stores the event once. A concurrent delivery of the same event is absorbed.
func (r *repositoryImpl) Record(ctx context.Context, event model.PaymentEvent) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".payment_event.Record")
	defer scope.End()

	query := r.InsertStatement(fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", model.FieldEventID))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err := r.db.Write.NamedExecContext(ctx, query, event); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to record payment event %s: %w", event.EventID, err)
	}

	return nil
}
