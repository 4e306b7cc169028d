package models

import "time"

// Laboratorio is the supplier referenced by every medicamento.
type Laboratorio struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	NomeLaboratorio string    `json:"nome_laboratorio" gorm:"column:nome_laboratorio;type:varchar(150);uniqueIndex;not null" validate:"required,min=2,max=150"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Laboratorio) TableName() string {
	return "laboratorios"
}
