package model

import "time"

// User is a chat user identified by the transport sender ID.
type User struct {
	ID        string    `gorm:"primaryKey"`
	Name      string    `gorm:"type:text"`
	Timezone  string    `gorm:"not null;default:Europe/Kyiv"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Medicines []Medicine `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Medicine is a named medication owned by one user.
type Medicine struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	Name      string `gorm:"size:100;not null"`
	CreatedAt time.Time

	Reminders []Reminder `gorm:"foreignKey:MedicineID;constraint:OnDelete:CASCADE"`
}

// Reminder is a daily time-of-day schedule entry for a medicine.
// TimeOfDay is always canonical 24-hour "HH:MM".
type Reminder struct {
	ID         uint   `gorm:"primaryKey"`
	MedicineID uint   `gorm:"index;not null"`
	TimeOfDay  string `gorm:"size:5;not null"`
	Dosage     string `gorm:"size:50;not null"`
	Active     bool   `gorm:"not null;default:true"`
	CreatedAt  time.Time

	Deliveries []DeliveryLog `gorm:"foreignKey:ReminderID;constraint:OnDelete:CASCADE"`
}

// DeliveryLog records one delivered reminder occurrence. Rows are append-only.
type DeliveryLog struct {
	ID         uint      `gorm:"primaryKey"`
	ReminderID uint      `gorm:"index;not null"`
	SentAt     time.Time `gorm:"index;autoCreateTime"`
}

// ActiveReminder is the delivery engine's view of one active reminder joined
// with its medicine name and owner.
type ActiveReminder struct {
	ReminderID   uint
	TimeOfDay    string
	Dosage       string
	MedicineName string
	UserID       string
	Timezone     string
}

// ActiveCount returns how many of the medicine's reminders are active.
func (m Medicine) ActiveCount() int {
	n := 0
	for _, r := range m.Reminders {
		if r.Active {
			n++
		}
	}
	return n
}

// ActiveReminders returns the medicine's active reminders in stored order.
func (m Medicine) ActiveReminders() []Reminder {
	out := make([]Reminder, 0, len(m.Reminders))
	for _, r := range m.Reminders {
		if r.Active {
			out = append(out, r)
		}
	}
	return out
}
