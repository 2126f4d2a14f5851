package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date calendar date, serialised as YYYY-MM-DD
type Date struct {
	time.Time
}

func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	d.Time = t
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(dateLayout), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
	case string:
		return d.UnmarshalJSON([]byte(v))
	case []byte:
		return d.UnmarshalJSON(v)
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// AgeOn full years between d and on
func (d Date) AgeOn(on time.Time) int {
	age := on.Year() - d.Year()
	if on.Month() < d.Month() || (on.Month() == d.Month() && on.Day() < d.Day()) {
		age--
	}
	return age
}

// UserProfile user_profiles 表
type UserProfile struct {
	UserID           string    `json:"user_id" db:"user_id"`
	DateOfBirth      Date      `json:"date_of_birth" db:"date_of_birth"`
	Gender           string    `json:"gender" db:"gender"`
	Address          *string   `json:"address" db:"address"`
	AddressDetail    *string   `json:"address_detail" db:"address_detail"`
	MedicalHistory   *string   `json:"medical_history" db:"medical_history"`
	SignificantNotes *string   `json:"significant_notes" db:"significant_notes"`
	CurrentStatus    *string   `json:"current_status" db:"current_status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	Age int `json:"age" db:"-"`
}

func (p *UserProfile) Decorate() {
	p.Age = p.DateOfBirth.AgeOn(time.Now().UTC())
}

type UserProfileCreateInput struct {
	DateOfBirth      Date    `json:"date_of_birth"`
	Gender           string  `json:"gender" validate:"required,oneof=male female other"`
	Address          *string `json:"address" validate:"omitempty,max=255"`
	AddressDetail    *string `json:"address_detail" validate:"omitempty,max=255"`
	MedicalHistory   *string `json:"medical_history"`
	SignificantNotes *string `json:"significant_notes"`
	CurrentStatus    *string `json:"current_status" validate:"omitempty,max=100"`
}

type UserProfileUpdateInput struct {
	DateOfBirth      *Date   `json:"date_of_birth" db:"date_of_birth"`
	Gender           *string `json:"gender" db:"gender" validate:"omitempty,oneof=male female other"`
	Address          *string `json:"address" db:"address" validate:"omitempty,max=255"`
	AddressDetail    *string `json:"address_detail" db:"address_detail" validate:"omitempty,max=255"`
	MedicalHistory   *string `json:"medical_history" db:"medical_history"`
	SignificantNotes *string `json:"significant_notes" db:"significant_notes"`
	CurrentStatus    *string `json:"current_status" db:"current_status" validate:"omitempty,max=100"`
}
