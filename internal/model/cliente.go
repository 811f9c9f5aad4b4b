package model

import (
	"time"

	"github.com/google/uuid"
)

type Cliente struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre         string    `gorm:"index;not null"`
	Telefono       *string   `gorm:"index"`
	Email          *string
	Direccion      *string
	Identificacion *string `gorm:"index"`
	Notas          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Cliente) TableName() string { return "clientes" }
