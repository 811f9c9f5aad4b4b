package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// LoginRequest accepts the username or the email in Username.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CrearUsuarioRequest struct {
	Username       string  `json:"username"       validate:"required,min=1,max=150"`
	Identificacion string  `json:"identificacion" validate:"required,min=4,max=20,numeric"`
	Nombre         string  `json:"nombre"         validate:"required,min=2,max=100"`
	Email          *string `json:"email"          validate:"omitempty,email"`
	Password       string  `json:"password"       validate:"required,min=6"`
	Rol            string  `json:"rol"            validate:"required,oneof=mesero cajero cocina administrador"`
	SucursalID     *string `json:"sucursal_id"    validate:"omitempty,uuid"`
}

type ActualizarUsuarioRequest struct {
	Nombre     string  `json:"nombre"      validate:"omitempty,min=2,max=100"`
	Email      *string `json:"email"       validate:"omitempty,email"`
	Rol        string  `json:"rol"         validate:"omitempty,oneof=mesero cajero cocina administrador"`
	SucursalID *string `json:"sucursal_id" validate:"omitempty,uuid"`
	Password   string  `json:"password"    validate:"omitempty,min=6"`
}

// ─── Password recovery ───────────────────────────────────────────────────────

type SolicitarCodigoRequest struct {
	Identificacion string `json:"identificacion" validate:"required,min=4,max=20"`
}

type VerificarCodigoRequest struct {
	Identificacion string `json:"identificacion" validate:"required,min=4,max=20"`
	Codigo         string `json:"codigo"         validate:"required,len=6,numeric"`
}

type RestablecerPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	Identificacion string  `json:"identificacion"`
	Nombre         string  `json:"nombre"`
	Email          *string `json:"email"`
	Rol            string  `json:"rol"`
	SucursalID     *string `json:"sucursal_id"`
	Activo         bool    `json:"activo"`
}

type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int             `json:"expires_in"` // seconds
	User         UsuarioResponse `json:"user"`
}

type MensajeResponse struct {
	Message string `json:"message"`
}

type VerificarCodigoResponse struct {
	ResetToken string `json:"reset_token"`
	ExpiresIn  int    `json:"expires_in"` // seconds
}
