package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"braidbook/infras/otel"
	"braidbook/infras/postgres"
	availabilityModel "braidbook/internal/domains/availability/model"
	"braidbook/internal/domains/booking/model"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/logger"
	gRepo "braidbook/shared/repository"
	"braidbook/shared/timezone"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrSlotTaken = errors.New("slot already has a live booking")

type Booking interface {
	Claim(ctx context.Context, booking model.Booking) error
	AttachPaymentSession(ctx context.Context, id, sessionID string) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	LiveExists(ctx context.Context, slotID string) (bool, error)
	LiveSlots(ctx context.Context, slotIDs []string) ([]string, error)
	ListPendingDeposit(ctx context.Context) ([]model.Booking, error)
	Confirm(ctx context.Context, id, user string) (bool, error)
	ConfirmManual(ctx context.Context, id, user string) (bool, error)
	Release(ctx context.Context, id, user string) (bool, error)
	Cancel(ctx context.Context, id, user string) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db        *postgres.Connection
	otel      otel.Otel
	claimStmt string
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	repo := &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}

	// The conflict target repeats the partial index predicate so both postgres and sqlite infer it.
	repo.claimStmt = repo.InsertStatement(fmt.Sprintf("ON CONFLICT (%s) WHERE %s IN (%s) DO NOTHING",
		model.FieldSlotID, model.FieldStatus, quotedLiveStatuses()))

	return repo
}

func quotedLiveStatuses() string {
	quoted := make([]string, len(model.LiveStatuses))
	for i, status := range model.LiveStatuses {
		quoted[i] = "'" + status.String() + "'"
	}

	return strings.Join(quoted, ", ")
}

func liveStatusValues() []string {
	values := make([]string, len(model.LiveStatuses))
	for i, status := range model.LiveStatuses {
		values[i] = status.String()
	}

	return values
}

// Claim inserts booking unless its slot already has a live booking, in which case it
// returns ErrSlotTaken. The decision is made by the unique index in a single statement.
func (r *repositoryImpl) Claim(ctx context.Context, booking model.Booking) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.Claim")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, r.claimStmt)

	result, err := r.db.Write.NamedExecContext(ctx, r.claimStmt, booking)
	if isUniqueViolation(err) {
		return ErrSlotTaken
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to claim slot %s: %w", booking.SlotID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return ErrSlotTaken
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
}

func (r *repositoryImpl) AttachPaymentSession(ctx context.Context, id, sessionID string) (err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.AttachPaymentSession")
	defer scope.End()
	defer scope.TraceIfError(&err)

	query := r.db.Write.Rebind(fmt.Sprintf("UPDATE %s SET %s = ?, %s = ? WHERE %s = ? AND %s = ?",
		model.TableName, model.FieldStripeSessionID, constant.FieldModifiedAt, model.FieldID, model.FieldStatus))
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	if _, err = r.db.Write.ExecContext(ctx, query, sessionID, timezone.Now(), id, model.StatusPendingDeposit.String()); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to attach payment session: %w", err)
	}

	return nil
}

func liveSlotFilter(slotIDs any, operator string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldSlotID,
				Operator: operator,
				Value:    slotIDs,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorIn,
				Value:    liveStatusValues(),
				Table:    model.TableName,
			},
		},
	}
}

// LiveExists reports whether slotID has a booking in a live status.
func (r *repositoryImpl) LiveExists(ctx context.Context, slotID string) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.LiveExists")
	defer scope.End()

	return r.Exist(ctx, liveSlotFilter(slotID, gDto.FilterOperatorEq)) //nolint:wrapcheck
}

// LiveSlots returns the subset of slotIDs that have a live booking.
func (r *repositoryImpl) LiveSlots(ctx context.Context, slotIDs []string) ([]string, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.LiveSlots")
	defer scope.End()

	if len(slotIDs) == 0 {
		return nil, nil
	}

	bookings, err := r.GetAll(ctx, gDto.QueryParams{}, liveSlotFilter(slotIDs, gDto.FilterOperatorIn), model.FieldSlotID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	taken := make([]string, len(bookings))
	for i, booking := range bookings {
		taken[i] = booking.SlotID
	}

	return taken, nil
}

// ListPendingDeposit returns every booking still waiting on its deposit, oldest first.
func (r *repositoryImpl) ListPendingDeposit(ctx context.Context) ([]model.Booking, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.ListPendingDeposit")
	defer scope.End()

	params := gDto.QueryParams{
		SortBy:  model.TableName + "." + constant.FieldCreatedAt,
		SortDir: gDto.SortDirAsc,
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldStatus,
				Operator: gDto.FilterOperatorEq,
				Value:    model.StatusPendingDeposit.String(),
				Table:    model.TableName,
			},
		},
	}

	return r.GetAll(ctx, params, filter) //nolint:wrapcheck
}

// Confirm moves a pending_deposit booking to confirmed and marks its availability booked.
// It reports false without error when the booking was not pending_deposit.
func (r *repositoryImpl) Confirm(ctx context.Context, id, user string) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.Confirm")
	defer scope.End()

	return r.confirmFrom(ctx, id, user, model.StatusPendingDeposit)
}

// ConfirmManual is the staff confirmation of a direct-flow pending booking.
func (r *repositoryImpl) ConfirmManual(ctx context.Context, id, user string) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.ConfirmManual")
	defer scope.End()

	return r.confirmFrom(ctx, id, user, model.StatusPending)
}

func (r *repositoryImpl) confirmFrom(ctx context.Context, id, user string, from model.Status) (changed bool, err error) {
	now := timezone.Now()

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed, err = transition(ctx, tx, id, user, now, model.StatusConfirmed, from)
		if err != nil || !changed {
			return err
		}

		return markAvailability(ctx, tx, id, user, now, true)
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to confirm booking %s: %w", id, err)
	}

	return changed, nil
}

// Release cancels a booking that is still waiting on its deposit, freeing the slot.
func (r *repositoryImpl) Release(ctx context.Context, id, user string) (changed bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.Release")
	defer scope.End()
	defer scope.TraceIfError(&err)

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed, err = transition(ctx, tx, id, user, timezone.Now(), model.StatusCancelled, model.StatusPendingDeposit)

		return err
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to release booking %s: %w", id, err)
	}

	return changed, nil
}

// Cancel moves any live booking to cancelled. A confirmed booking also frees its availability.
func (r *repositoryImpl) Cancel(ctx context.Context, id, user string) (changed bool, err error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.Cancel")
	defer scope.End()
	defer scope.TraceIfError(&err)

	now := timezone.Now()

	err = r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		changed, err = transition(ctx, tx, id, user, now, model.StatusCancelled, model.StatusConfirmed)
		if err != nil {
			return err
		}

		if changed {
			return markAvailability(ctx, tx, id, user, now, false)
		}

		changed, err = transition(ctx, tx, id, user, now, model.StatusCancelled, model.StatusPending, model.StatusPendingDeposit)

		return err
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to cancel booking %s: %w", id, err)
	}

	return changed, nil
}

// transition sets the booking status to "to" only while it is in one of "from".
func transition(ctx context.Context, tx *sqlx.Tx, id, user string, now any, to model.Status, from ...model.Status) (bool, error) {
	marks := make([]string, len(from))
	args := []any{to.String(), now, user, id}

	for i, status := range from {
		marks[i] = "?"
		args = append(args, status.String())
	}

	query := tx.Rebind(fmt.Sprintf("UPDATE %s SET %s = ?, %s = ?, %s = ? WHERE %s = ? AND %s IN (%s)",
		model.TableName, model.FieldStatus, constant.FieldModifiedAt, constant.FieldModifiedBy,
		model.FieldID, model.FieldStatus, strings.Join(marks, ", ")))

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// markAvailability flips is_booked for the booking's slot and bumps the version, but only
// when the flag actually changes. Slots without an availability row are left alone.
func markAvailability(ctx context.Context, tx *sqlx.Tx, bookingID, user string, now any, booked bool) error {
	query := tx.Rebind(fmt.Sprintf(
		"UPDATE %s SET %s = ?, %s = %s + 1, %s = ?, %s = ? WHERE %s = (SELECT %s FROM %s WHERE %s = ?) AND %s = ?",
		availabilityModel.TableName,
		availabilityModel.FieldIsBooked,
		availabilityModel.FieldVersion, availabilityModel.FieldVersion,
		constant.FieldModifiedAt, constant.FieldModifiedBy,
		availabilityModel.FieldID,
		model.FieldSlotID, model.TableName, model.FieldID,
		availabilityModel.FieldIsBooked,
	))

	if _, err := tx.ExecContext(ctx, query, booked, now, user, bookingID, !booked); err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}

	return nil
}
