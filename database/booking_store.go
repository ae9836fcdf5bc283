package database

import (
	"context"
	"errors"

	bookingModel "puja-booking/models/booking"
	"puja-booking/services/booking"
	"puja-booking/services/booking_event"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingStore persists bookings in PostgreSQL. Row locks taken by
// FindForUpdate serialise writers across processes.
type BookingStore struct {
	db *gorm.DB
}

func NewBookingStore(db *gorm.DB) *BookingStore {
	return &BookingStore{db: db}
}

func (s *BookingStore) WithTx(ctx context.Context, fn func(tx booking.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&BookingStore{db: tx})
	})
}

func (s *BookingStore) Create(ctx context.Context, b *bookingModel.Booking) error {
	return s.db.WithContext(ctx).Omit("Transitions").Create(b).Error
}

func (s *BookingStore) Find(ctx context.Context, number string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	if err := withHistory(s.db.WithContext(ctx)).Where("booking_number = ?", number).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// FindForUpdate locks the booking row until the surrounding transaction ends.
func (s *BookingStore) FindForUpdate(ctx context.Context, number string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	if err := lockedByNumber(withHistory(s.db.WithContext(ctx)), number).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *BookingStore) Save(ctx context.Context, b *bookingModel.Booking) error {
	db := s.db.WithContext(ctx)
	if b.VenueAddress.ID != 0 {
		if err := db.Save(&b.VenueAddress).Error; err != nil {
			return err
		}
	}
	return db.Omit(clause.Associations).Save(b).Error
}

func (s *BookingStore) AppendTransition(ctx context.Context, t *bookingModel.StatusTransition) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *BookingStore) PendingCancellation(ctx context.Context, bookingID uint) (*bookingModel.CancellationRequest, error) {
	var cr bookingModel.CancellationRequest
	err := s.db.WithContext(ctx).
		Where("booking_id = ? AND outcome = ?", bookingID, bookingModel.CancellationOutcomePending).
		Order("id DESC").
		First(&cr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (s *BookingStore) SaveCancellation(ctx context.Context, cr *bookingModel.CancellationRequest) error {
	return s.db.WithContext(ctx).Save(cr).Error
}

func (s *BookingStore) Cancellations(ctx context.Context, bookingID uint) ([]bookingModel.CancellationRequest, error) {
	var crs []bookingModel.CancellationRequest
	err := s.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("id ASC").Find(&crs).Error
	return crs, err
}

func (s *BookingStore) SnapshotEvent(ctx context.Context, b *bookingModel.Booking, eventType, actorID string) error {
	return booking_event.SnapshotBookingToEvent(s.db.WithContext(ctx), b, eventType, actorID)
}

func (s *BookingStore) ListByStatus(ctx context.Context, status bookingModel.BookingStatus) ([]bookingModel.Booking, error) {
	var bookings []bookingModel.Booking
	err := withHistory(s.db.WithContext(ctx)).Where("status = ?", status).Order("id ASC").Find(&bookings).Error
	return bookings, err
}

func withHistory(db *gorm.DB) *gorm.DB {
	return db.Preload("VenueAddress").Preload("Transitions", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq ASC")
	})
}

func lockedByNumber(db *gorm.DB, number string) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("booking_number = ?", number)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.ErrBookingNotFound
	}
	return err
}
