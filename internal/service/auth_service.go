package service

import (
	"context"
	"errors"
	"time"

	"restopos/internal/apierror"
	"restopos/internal/config"
	"restopos/internal/dto"
	"restopos/internal/model"
	"restopos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bcryptCost = 12

	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// SesionMeta describes the client that opened a session.
type SesionMeta struct {
	IP        string
	UserAgent string
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, meta SesionMeta) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, sesionID uuid.UUID) error
	// ValidarSesion fails with 401 unless the session exists, is not revoked and has not expired.
	ValidarSesion(ctx context.Context, sesionID uuid.UUID) error

	CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo     repository.UsuarioRepository
	sesiones repository.SesionRepository
	cfg      *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, sesiones repository.SesionRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, sesiones: sesiones, cfg: cfg}
}

// AuthClaims is the payload of access and refresh tokens.
type AuthClaims struct {
	UserID     string  `json:"user_id"`
	Username   string  `json:"username"`
	Rol        string  `json:"rol"`
	SucursalID *string `json:"sucursal_id"`
	SesionID   string  `json:"sid"`
	Tipo       string  `json:"tipo"`
	jwt.RegisteredClaims
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, meta SesionMeta) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Unauthorized("credenciales invalidas")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("credenciales invalidas")
	}

	sesion := &model.Sesion{
		ID:        uuid.New(),
		UsuarioID: user.ID,
		ExpiresAt: time.Now().Add(time.Duration(s.cfg.JWTRefreshHours) * time.Hour),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.sesiones.Create(ctx, sesion); err != nil {
		return nil, err
	}
	return s.emitirTokens(user, sesion)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	claims, err := ParseAuthToken(refreshToken, s.cfg.JWTSecret)
	if err != nil || claims.Tipo != tokenRefresh {
		return nil, apierror.Unauthorized("refresh token invalido o expirado")
	}
	sid, err := uuid.Parse(claims.SesionID)
	if err != nil {
		return nil, apierror.Unauthorized("token mal formado")
	}
	sesion, err := s.sesionActiva(ctx, sid)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, sesion.UsuarioID)
	if err != nil || !user.Activo {
		return nil, apierror.Unauthorized("usuario no encontrado o inactivo")
	}
	return s.emitirTokens(user, sesion)
}

func (s *authService) Logout(ctx context.Context, sesionID uuid.UUID) error {
	return s.sesiones.Revoke(ctx, sesionID)
}

func (s *authService) ValidarSesion(ctx context.Context, sesionID uuid.UUID) error {
	_, err := s.sesionActiva(ctx, sesionID)
	return err
}

func (s *authService) sesionActiva(ctx context.Context, sid uuid.UUID) (*model.Sesion, error) {
	sesion, err := s.sesiones.FindByID(ctx, sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Unauthorized("sesion invalida")
		}
		return nil, err
	}
	if !sesion.Activa(time.Now()) {
		return nil, apierror.Unauthorized("sesion expirada o revocada")
	}
	return sesion, nil
}

func (s *authService) emitirTokens(user *model.Usuario, sesion *model.Sesion) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, sesion, tokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, sesion, tokenRefresh, time.Until(sesion.ExpiresAt))
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         mapUsuario(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, sesion *model.Sesion, tipo string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		UserID:     user.ID.String(),
		Username:   user.Username,
		Rol:        user.Rol,
		SucursalID: optString(user.SucursalID),
		SesionID:   sesion.ID.String(),
		Tipo:       tipo,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// ParseAuthToken verifies an HS256 token signed with secret and returns its claims.
func ParseAuthToken(raw, secret string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (s *authService) CrearUsuario(ctx context.Context, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	sucursalID, err := parseOptID(req.SucursalID, "sucursal_id")
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		ID:             uuid.New(),
		Username:       req.Username,
		Identificacion: req.Identificacion,
		Nombre:         req.Nombre,
		Email:          req.Email,
		PasswordHash:   string(hash),
		Rol:            req.Rol,
		SucursalID:     sucursalID,
		Activo:         true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("ya existe un usuario con ese username o identificacion")
		}
		return nil, err
	}
	resp := mapUsuario(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, incluirInactivos bool) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, incluirInactivos)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = mapUsuario(&users[i])
	}
	return resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "usuario no encontrado")
	}
	if req.Nombre != "" {
		user.Nombre = req.Nombre
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Rol != "" {
		user.Rol = req.Rol
	}
	if req.SucursalID != nil {
		if user.SucursalID, err = parseOptID(req.SucursalID, "sucursal_id"); err != nil {
			return nil, err
		}
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := mapUsuario(user)
	return &resp, nil
}

// DesactivarUsuario also revokes every open session of the user.
func (s *authService) DesactivarUsuario(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "usuario no encontrado")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.sesiones.RevokeAllTx(tx, id)
	})
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "usuario no encontrado")
	}
	return s.repo.Reactivar(ctx, id)
}
