package model

import "time"

// EquipmentVenue is the pseudo-venue used for equipment-only bookings.
const EquipmentVenue = "Equipment Reservation"

// Reservation records a request to use a lab venue (or equipment) on a
// given date.  It is stored in the `reservations` table and owns zero or
// more ReservationItem rows.
//
// Fields:
//  ID              – primary key identifier.
//  Venue           – lab room name or EquipmentVenue.
//  Date            – calendar day, formatted YYYY-MM-DD.
//  TimeFrom        – optional start time, HH:MM (empty when unknown).
//  TimeTo          – optional end time, HH:MM (empty when unknown).
//  Purpose         – free text.
//  Equipment       – combined display string, e.g. "Projector (x2), Cable (x1)".
//  PersonName      – requester display name as typed on the form.
//  PersonSignature – optional signature text carried over from legacy data.
//  CreatedBy       – owning user id; nil only on legacy rows.
//  Status          – lifecycle state, see Status.
//  CreatedAt       – creation timestamp (UTC).
//  Items           – itemized equipment, loaded by the repository.
//  OwnerID         – owner resolved at read time (CreatedBy or name match);
//                    never persisted.
type Reservation struct {
	ID              uint64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Venue           string            `gorm:"size:191;not null;index:idx_reservations_venue_date,priority:1" json:"venue"`
	Date            string            `gorm:"type:varchar(10);not null;index:idx_reservations_venue_date,priority:2" json:"date"`
	TimeFrom        string            `gorm:"type:varchar(5);not null;default:''" json:"time_from"`
	TimeTo          string            `gorm:"type:varchar(5);not null;default:''" json:"time_to"`
	Purpose         string            `gorm:"type:text" json:"purpose"`
	Equipment       string            `gorm:"type:text" json:"equipment"`
	PersonName      string            `gorm:"size:191;not null;default:''" json:"person_name"`
	PersonSignature string            `gorm:"size:191;not null;default:''" json:"person_signature,omitempty"`
	CreatedBy       *uint64           `gorm:"index" json:"created_by"`
	Status          Status            `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []ReservationItem `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	OwnerID         *uint64           `gorm:"-" json:"-"`
}

// TableName pins the table name used by the SQL store.
func (Reservation) TableName() string { return "reservations" }

// IsEquipment reports whether the reservation is an equipment-only booking.
func (r Reservation) IsEquipment() bool { return r.Venue == EquipmentVenue }

// OwnedBy reports whether the stored owner reference equals userID.
func (r Reservation) OwnedBy(userID uint64) bool {
	return r.CreatedBy != nil && *r.CreatedBy == userID
}

// ReservationItem is a single equipment line (name, quantity) belonging
// to exactly one reservation.  Items are removed with their reservation.
type ReservationItem struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement" json:"id"`   // reservation_items.id
	ReservationID uint64 `gorm:"not null;index" json:"reservation_id"` // reservation_items.reservation_id
	Name          string `gorm:"size:191;not null" json:"name"`        // reservation_items.name
	Quantity      int    `gorm:"not null;default:1" json:"quantity"`   // reservation_items.quantity
}

// TableName pins the table name used by the SQL store.
func (ReservationItem) TableName() string { return "reservation_items" }
