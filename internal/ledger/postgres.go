package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/base-14/examples/go/parking-rules/internal/parking"
)

type ParkingRecord struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Plate              string     `gorm:"not null" json:"plate"`
	PlateKey           string     `gorm:"not null;uniqueIndex:idx_parking_records_active_plate,where:exit_time IS NULL" json:"-"`
	Category           string     `gorm:"not null;index" json:"category"`
	EngineDisplacement int        `gorm:"not null;default:0" json:"engine_displacement"`
	EntryTime          time.Time  `gorm:"not null" json:"entry_time"`
	ExitTime           *time.Time `gorm:"index" json:"exit_time,omitempty"`
	AmountCharged      *int64     `json:"amount_charged,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ParkingRecord) TableName() string {
	return "parking_records"
}

func fromSlotRecord(rec *parking.SlotRecord) ParkingRecord {
	return ParkingRecord{
		ID:                 rec.ID,
		Plate:              rec.Vehicle.Plate(),
		PlateKey:           plateKey(rec.Vehicle.Plate()),
		Category:           rec.Vehicle.Category().String(),
		EngineDisplacement: rec.Vehicle.EngineDisplacement(),
		EntryTime:          rec.EntryTime,
		ExitTime:           rec.ExitTime,
		AmountCharged:      rec.AmountCharged,
	}
}

func (r ParkingRecord) toSlotRecord() (*parking.SlotRecord, error) {
	category, err := parking.ParseCategory(r.Category)
	if err != nil {
		return nil, err
	}

	vehicle, err := parking.NewVehicle(r.Plate, category, r.EngineDisplacement)
	if err != nil {
		return nil, err
	}

	return &parking.SlotRecord{
		ID:            r.ID,
		Vehicle:       *vehicle,
		EntryTime:     r.EntryTime,
		ExitTime:      r.ExitTime,
		AmountCharged: r.AmountCharged,
	}, nil
}

// Postgres stores stays in the parking_records table. Plates keep their
// original spelling; a partial unique index on the upper-cased plate_key
// keeps a single active record per plate.
type Postgres struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	return p.db.WithContext(ctx).AutoMigrate(&ParkingRecord{})
}

func (p *Postgres) Insert(ctx context.Context, rec *parking.SlotRecord) error {
	row := fromSlotRecord(rec)

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ParkingRecord{}).
			Where("plate_key = ? AND exit_time IS NULL", row.PlateKey).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check active plate: %w", err)
		}
		if count > 0 {
			return parking.ErrAlreadyParked
		}

		if err := tx.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return parking.ErrAlreadyParked
			}
			return fmt.Errorf("insert parking record: %w", err)
		}
		return nil
	})
}

func (p *Postgres) ListActive(ctx context.Context) ([]*parking.SlotRecord, error) {
	var rows []ParkingRecord
	if err := p.db.WithContext(ctx).
		Where("exit_time IS NULL").
		Order("entry_time ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list active records: %w", err)
	}
	return toSlotRecords(rows)
}

func (p *Postgres) FindActive(ctx context.Context, plate string) (*parking.SlotRecord, error) {
	var row ParkingRecord
	err := p.db.WithContext(ctx).
		Where("plate_key = ? AND exit_time IS NULL", plateKey(plate)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, parking.ErrNotFound
		}
		return nil, fmt.Errorf("find active record: %w", err)
	}
	return row.toSlotRecord()
}

func (p *Postgres) Complete(ctx context.Context, id uuid.UUID, exit time.Time, amount int64) error {
	result := p.db.WithContext(ctx).
		Model(&ParkingRecord{}).
		Where("id = ? AND exit_time IS NULL", id).
		Updates(map[string]any{
			"exit_time":      exit,
			"amount_charged": amount,
		})
	if result.Error != nil {
		return fmt.Errorf("complete parking record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return parking.ErrNotFound
	}
	return nil
}

func (p *Postgres) History(ctx context.Context, limit int) ([]*parking.SlotRecord, error) {
	query := p.db.WithContext(ctx).
		Where("exit_time IS NOT NULL").
		Order("exit_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []ParkingRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return toSlotRecords(rows)
}

func toSlotRecords(rows []ParkingRecord) ([]*parking.SlotRecord, error) {
	records := make([]*parking.SlotRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toSlotRecord()
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", row.ID, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// IsPostgresURL reports whether url selects the Postgres ledger.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
