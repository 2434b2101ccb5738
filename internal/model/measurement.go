package model

import "time"

// Measurement is a single body-measurement sample owned by a user.
// Circumferences are optional.
type Measurement struct {
	ID                 int64     `json:"id" db:"id"`
	UserID             int64     `json:"userId" db:"user_id"`
	Weight             float64   `json:"weight" db:"weight"`
	Height             float64   `json:"height" db:"height"`
	ChestCircumference *float64  `json:"chestCircumference" db:"chest_circumference"`
	ArmCircumference   *float64  `json:"armCircumference" db:"arm_circumference"`
	LegCircumference   *float64  `json:"legCircumference" db:"leg_circumference"`
	WaistCircumference *float64  `json:"waistCircumference" db:"waist_circumference"`
	MeasurementDate    time.Time `json:"measurementDate" db:"measurement_date"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt" db:"updated_at"`
}
