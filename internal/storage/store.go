package storage

import (
	"errors"
	"log"
	"time"

	"github.com/pathakanu/medMinder/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps the database with the operations the conversation and delivery
// engines need. Every method fails closed: on error it logs the failure with
// the operation name and identifiers, then returns a zero value (nil, false,
// 0 or an empty slice) instead of propagating the error.
type Store struct {
	db     *gorm.DB
	logger *log.Logger
}

// New creates a Store over an open database handle.
func New(db *gorm.DB, logger *log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// User returns the user with the given ID, or nil when absent or on error.
func (s *Store) User(id string) *model.User {
	var user model.User
	err := s.db.First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Printf("store: get user %s: %v", id, err)
		return nil
	}
	return &user
}

// UpsertUser creates the user or updates its name and timezone in place,
// preserving the original creation timestamp.
func (s *Store) UpsertUser(id, name, timezone string) bool {
	user := model.User{ID: id, Name: name, Timezone: timezone}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "timezone"}),
	}).Create(&user).Error
	if err != nil {
		s.logger.Printf("store: upsert user %s: %v", id, err)
		return false
	}
	return true
}

// AddMedicine creates a medicine for the user and returns its ID.
func (s *Store) AddMedicine(userID, name string) (uint, bool) {
	med := model.Medicine{UserID: userID, Name: name}
	if err := s.db.Create(&med).Error; err != nil {
		s.logger.Printf("store: add medicine %q for user %s: %v", name, userID, err)
		return 0, false
	}
	return med.ID, true
}

// AddReminder attaches a reminder to an existing medicine.
func (s *Store) AddReminder(medicineID uint, timeOfDay, dosage string) bool {
	rem := model.Reminder{MedicineID: medicineID, TimeOfDay: timeOfDay, Dosage: dosage, Active: true}
	if err := s.db.Create(&rem).Error; err != nil {
		s.logger.Printf("store: add reminder %s for medicine %d: %v", timeOfDay, medicineID, err)
		return false
	}
	return true
}

// AddMedicineWithReminder creates the medicine and its first reminder in one
// transaction so a reminder write failure never leaves an orphaned medicine.
func (s *Store) AddMedicineWithReminder(userID, name, timeOfDay, dosage string) (uint, bool) {
	med := model.Medicine{UserID: userID, Name: name}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&med).Error; err != nil {
			return err
		}
		rem := model.Reminder{MedicineID: med.ID, TimeOfDay: timeOfDay, Dosage: dosage, Active: true}
		return tx.Create(&rem).Error
	})
	if err != nil {
		s.logger.Printf("store: add medicine %q with reminder %s for user %s: %v", name, timeOfDay, userID, err)
		return 0, false
	}
	return med.ID, true
}

// MedicinesWithReminders lists the user's medicines with reminders attached,
// medicines by name and reminders by time of day.
func (s *Store) MedicinesWithReminders(userID string) []model.Medicine {
	var medicines []model.Medicine
	err := s.db.
		Preload("Reminders", func(db *gorm.DB) *gorm.DB {
			return db.Order("time_of_day")
		}).
		Where("user_id = ?", userID).
		Order("name").
		Find(&medicines).Error
	if err != nil {
		s.logger.Printf("store: list medicines for user %s: %v", userID, err)
		return nil
	}
	return medicines
}

// DeleteMedicine removes the user's medicine together with its reminders and
// their delivery logs as a single transaction. It reports whether a medicine
// row was actually removed.
func (s *Store) DeleteMedicine(id uint, userID string) bool {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Ownership first, so a request for someone else's medicine touches
		// nothing at all.
		var owned int64
		if err := tx.Model(&model.Medicine{}).Where("id = ? AND user_id = ?", id, userID).Count(&owned).Error; err != nil {
			return err
		}
		if owned == 0 {
			return nil
		}
		reminderIDs := tx.Table("reminders").Select("id").Where("medicine_id = ?", id)
		if err := tx.Where("reminder_id IN (?)", reminderIDs).Delete(&model.DeliveryLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("medicine_id = ?", id).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.Medicine{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		s.logger.Printf("store: delete medicine %d for user %s: %v", id, userID, err)
		return false
	}
	return deleted
}

// DeleteReminder removes one reminder (ownership checked through its
// medicine) and its delivery logs.
func (s *Store) DeleteReminder(id uint, userID string) bool {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		owned := tx.Table("medicines").Select("id").Where("user_id = ?", userID)
		var n int64
		if err := tx.Model(&model.Reminder{}).Where("id = ? AND medicine_id IN (?)", id, owned).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := tx.Where("reminder_id = ?", id).Delete(&model.DeliveryLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		s.logger.Printf("store: delete reminder %d for user %s: %v", id, userID, err)
		return false
	}
	return deleted
}

// DeleteAllMedicines removes every medicine the user owns, cascading to
// reminders and delivery logs. It returns the number of medicines removed.
func (s *Store) DeleteAllMedicines(userID string) int {
	count := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Medicine{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		medicineIDs := tx.Table("medicines").Select("id").Where("user_id = ?", userID)
		reminderIDs := tx.Table("reminders").Select("id").Where("medicine_id IN (?)", medicineIDs)
		if err := tx.Where("reminder_id IN (?)", reminderIDs).Delete(&model.DeliveryLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("medicine_id IN (?)", medicineIDs).Delete(&model.Reminder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Medicine{}).Error; err != nil {
			return err
		}
		count = int(n)
		return nil
	})
	if err != nil {
		s.logger.Printf("store: delete all medicines for user %s: %v", userID, err)
		return 0
	}
	return count
}

// ActiveReminders returns every active reminder joined with its medicine
// name and owner, ordered by time of day.
func (s *Store) ActiveReminders() []model.ActiveReminder {
	var out []model.ActiveReminder
	err := s.db.
		Table("reminders").
		Select("reminders.id AS reminder_id, reminders.time_of_day, reminders.dosage, "+
			"medicines.name AS medicine_name, users.id AS user_id, users.timezone").
		Joins("JOIN medicines ON medicines.id = reminders.medicine_id").
		Joins("JOIN users ON users.id = medicines.user_id").
		Where("reminders.active = ?", true).
		Order("reminders.time_of_day").
		Scan(&out).Error
	if err != nil {
		s.logger.Printf("store: list active reminders: %v", err)
		return nil
	}
	return out
}

// RecordDelivery appends a delivery log entry for the reminder.
func (s *Store) RecordDelivery(reminderID uint) bool {
	entry := model.DeliveryLog{ReminderID: reminderID}
	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Printf("store: record delivery for reminder %d: %v", reminderID, err)
		return false
	}
	return true
}

// RecentDeliveries returns delivery log entries for the reminder newer than
// the dedup window, most recent first.
func (s *Store) RecentDeliveries(reminderID uint, window time.Duration) []model.DeliveryLog {
	var logs []model.DeliveryLog
	cutoff := time.Now().Add(-window)
	err := s.db.
		Where("reminder_id = ? AND sent_at > ?", reminderID, cutoff).
		Order("sent_at DESC").
		Find(&logs).Error
	if err != nil {
		s.logger.Printf("store: recent deliveries for reminder %d: %v", reminderID, err)
		return nil
	}
	return logs
}
