package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/config"
	"restopos/internal/dto"
	"restopos/internal/infra"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	codigoTTL        = 10 * time.Minute
	resetTokenTTL    = 10 * time.Minute
	propositoReset   = "reset_password"
	msgCodigoEnviado = "Si la identificacion esta registrada, recibiras un codigo en tu correo"
	msgCodigoInvalid = "codigo invalido o expirado"
	msgTokenInvalido = "token invalido o expirado"
)

// ErrEnvioCodigo is returned when the recovery email could not be delivered.
var ErrEnvioCodigo = errors.New("no se pudo enviar el codigo de recuperacion")

// EmailQueue accepts post-commit notifications. Implemented by worker.Dispatcher.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, msg infra.Email) error
}

type RecuperacionService interface {
	SolicitarCodigo(ctx context.Context, identificacion string) (*dto.MensajeResponse, error)
	VerificarCodigo(ctx context.Context, req dto.VerificarCodigoRequest) (*dto.VerificarCodigoResponse, error)
	RestablecerPassword(ctx context.Context, req dto.RestablecerPasswordRequest) (*dto.MensajeResponse, error)
}

type recuperacionService struct {
	usuarios repository.UsuarioRepository
	codigos  repository.CodigoRecuperacionRepository
	sesiones repository.SesionRepository
	mailer   infra.Mailer
	cola     EmailQueue
	cfg      *config.Config
	now      func() time.Time
}

func NewRecuperacionService(
	usuarios repository.UsuarioRepository,
	codigos repository.CodigoRecuperacionRepository,
	sesiones repository.SesionRepository,
	mailer infra.Mailer,
	cola EmailQueue,
	cfg *config.Config,
) RecuperacionService {
	return &recuperacionService{
		usuarios: usuarios,
		codigos:  codigos,
		sesiones: sesiones,
		mailer:   mailer,
		cola:     cola,
		cfg:      cfg,
		now:      time.Now,
	}
}

// resetClaims are carried by the short-lived token that authorizes a password reset.
type resetClaims struct {
	UsuarioID string `json:"usuario_id"`
	CodigoID  string `json:"codigo_id"`
	Proposito string `json:"proposito"`
	jwt.RegisteredClaims
}

// generarCodigo returns a uniformly random 6-digit code.
func generarCodigo() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// esperar blocks for d or until ctx ends.
func esperar(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

func (s *recuperacionService) SolicitarCodigo(ctx context.Context, identificacion string) (*dto.MensajeResponse, error) {
	generico := &dto.MensajeResponse{Message: msgCodigoEnviado}

	dbCtx, cancel := withTimeout(ctx, s.cfg.DBTimeout)
	defer cancel()

	u, err := s.usuarios.FindByIdentificacion(dbCtx, identificacion)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if u == nil || !u.Activo || u.Email == nil || strings.TrimSpace(*u.Email) == "" {
		// Unknown, inactive and mail-less accounts look exactly like success.
		esperar(ctx, s.cfg.OTPNotFoundDelay)
		return generico, nil
	}

	valor, err := generarCodigo()
	if err != nil {
		return nil, err
	}
	now := s.now()
	codigo := &model.CodigoRecuperacion{
		ID:        uuid.New(),
		UsuarioID: u.ID,
		Codigo:    valor,
		ExpiresAt: now.Add(codigoTTL),
		CreatedAt: now,
	}
	txErr := runTx(dbCtx, s.codigos.DB(), func(tx *gorm.DB) error {
		if err := s.codigos.InvalidarPendientesTx(tx, u.ID, now); err != nil {
			return err
		}
		return s.codigos.CreateTx(tx, codigo)
	})
	if txErr != nil {
		return nil, txErr
	}

	mailCtx, cancelMail := withTimeout(ctx, s.cfg.EmailTimeout)
	defer cancelMail()
	msg := infra.Email{
		To:      *u.Email,
		Subject: "Codigo de recuperacion de contraseña",
		Text: fmt.Sprintf("Hola %s,\n\nTu codigo de recuperacion es %s. Vence en %d minutos.\n"+
			"Si no solicitaste este codigo, ignora este mensaje.", u.Nombre, valor, int(codigoTTL.Minutes())),
	}
	if err := s.mailer.Send(mailCtx, msg); err != nil {
		log.Error().Err(err).Str("usuario_id", u.ID.String()).Msg("fallo el envio del codigo de recuperacion")

		// A code nobody received must not stay redeemable.
		invCtx, cancelInv := withTimeout(context.WithoutCancel(ctx), s.cfg.DBTimeout)
		defer cancelInv()
		if _, invErr := s.codigos.MarcarUsado(invCtx, codigo.ID); invErr != nil {
			log.Error().Err(invErr).Str("usuario_id", u.ID.String()).Msg("no se pudo invalidar el codigo no enviado")
		}
		return nil, fmt.Errorf("%w: %v", ErrEnvioCodigo, err)
	}

	log.Info().Str("usuario_id", u.ID.String()).Msg("codigo de recuperacion enviado")
	return generico, nil
}

func (s *recuperacionService) VerificarCodigo(ctx context.Context, req dto.VerificarCodigoRequest) (*dto.VerificarCodigoResponse, error) {
	ctx, cancel := withTimeout(ctx, s.cfg.DBTimeout)
	defer cancel()

	u, err := s.usuarios.FindByIdentificacion(ctx, req.Identificacion)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.BadRequest(msgCodigoInvalid)
		}
		return nil, err
	}

	c, err := s.codigos.FindVigente(ctx, u.ID, req.Codigo, s.now())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if incErr := s.codigos.IncrementarIntentos(ctx, u.ID); incErr != nil {
			log.Error().Err(incErr).Str("usuario_id", u.ID.String()).Msg("no se pudo registrar el intento fallido")
		}
		return nil, apierror.BadRequest(msgCodigoInvalid)
	}

	if c.Intentos >= model.MaxIntentosCodigo {
		if _, err := s.codigos.MarcarUsado(ctx, c.ID); err != nil {
			return nil, err
		}
		return nil, apierror.RateLimited("demasiados intentos fallidos, solicita un nuevo codigo")
	}

	ok, err := s.codigos.MarcarUsado(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Another request redeemed it first.
		return nil, apierror.BadRequest(msgCodigoInvalid)
	}

	now := s.now()
	claims := resetClaims{
		UsuarioID: u.ID.String(),
		CodigoID:  c.ID.String(),
		Proposito: propositoReset,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, err
	}
	return &dto.VerificarCodigoResponse{ResetToken: token, ExpiresIn: int(resetTokenTTL.Seconds())}, nil
}

func (s *recuperacionService) parseResetToken(raw string) (*resetClaims, error) {
	claims := &resetClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Proposito != propositoReset {
		return nil, apierror.BadRequest(msgTokenInvalido)
	}
	return claims, nil
}

func (s *recuperacionService) RestablecerPassword(ctx context.Context, req dto.RestablecerPasswordRequest) (*dto.MensajeResponse, error) {
	if len(req.Password) < 6 {
		return nil, apierror.BadRequest("la contraseña debe tener al menos 6 caracteres")
	}
	claims, err := s.parseResetToken(req.Token)
	if err != nil {
		return nil, err
	}
	usuarioID, err := uuid.Parse(claims.UsuarioID)
	if err != nil {
		return nil, apierror.BadRequest(msgTokenInvalido)
	}

	ctx, cancel := withTimeout(ctx, s.cfg.DBTimeout)
	defer cancel()

	u, err := s.usuarios.FindByID(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.BadRequest("usuario no encontrado o inactivo")
		}
		return nil, err
	}
	if !u.Activo {
		return nil, apierror.BadRequest("usuario no encontrado o inactivo")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	txErr := runTx(ctx, s.usuarios.DB(), func(tx *gorm.DB) error {
		if err := s.usuarios.UpdatePasswordTx(tx, u.ID, string(hash)); err != nil {
			return err
		}
		if err := s.sesiones.RevokeAllTx(tx, u.ID); err != nil {
			return err
		}
		return s.codigos.InvalidarTodosTx(tx, u.ID)
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().Str("usuario_id", u.ID.String()).Msg("contraseña restablecida")
	s.notificarCambio(ctx, u)
	return &dto.MensajeResponse{Message: "Contraseña actualizada correctamente"}, nil
}

// notificarCambio queues the confirmation email; failures are only logged.
func (s *recuperacionService) notificarCambio(ctx context.Context, u *model.Usuario) {
	if s.cola == nil || u.Email == nil || *u.Email == "" {
		return
	}
	msg := infra.Email{
		To:      *u.Email,
		Subject: "Tu contraseña fue actualizada",
		Text: fmt.Sprintf("Hola %s,\n\nLa contraseña de tu cuenta fue cambiada el %s.\n"+
			"Si no fuiste tu, contacta al administrador.", u.Nombre, s.now().Format("02/01/2006 15:04")),
	}
	if err := s.cola.EnqueueEmail(ctx, msg); err != nil {
		log.Warn().Err(err).Str("usuario_id", u.ID.String()).Msg("no se pudo encolar el aviso de cambio de contraseña")
	}
}
