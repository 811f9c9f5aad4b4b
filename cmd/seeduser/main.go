// cmd/seeduser/main.go: crea/actualiza la sucursal principal y el administrador inicial.
// Uso: go run ./cmd/seeduser [password]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"restopos/internal/config"
	"restopos/internal/infra"
	"restopos/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	password := "admin1234"
	if len(os.Args) > 1 {
		password = os.Args[1]
	}
	email := "admin@restopos.local"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sucursal := model.Sucursal{Nombre: "Principal", Activo: true}
	if err := db.WithContext(ctx).
		Where(model.Sucursal{Nombre: sucursal.Nombre}).
		FirstOrCreate(&sucursal).Error; err != nil {
		log.Fatal().Err(err).Msg("sucursal insert error")
	}

	admin := model.Usuario{
		Username:       "admin",
		Identificacion: "0000000001",
		Nombre:         "Administrador",
		Email:          &email,
		PasswordHash:   string(hash),
		Rol:            model.RolAdministrador,
		SucursalID:     &sucursal.ID,
		Activo:         true,
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "email", "rol", "activo"}),
	}).Create(&admin).Error; err != nil {
		log.Fatal().Err(err).Msg("usuario insert error")
	}

	fmt.Printf("Usuario '%s' creado/actualizado en sucursal '%s' con password '%s'\n", admin.Username, sucursal.Nombre, password)
}
