package dto

type CrearClienteRequest struct {
	Nombre         string  `json:"nombre"         validate:"required,min=2,max=120"`
	Telefono       *string `json:"telefono"       validate:"omitempty,max=30"`
	Email          *string `json:"email"          validate:"omitempty,email"`
	Direccion      *string `json:"direccion"      validate:"omitempty,max=255"`
	Identificacion *string `json:"identificacion" validate:"omitempty,max=20"`
	Notas          *string `json:"notas"`
}

type ActualizarClienteRequest struct {
	Nombre         *string `json:"nombre"         validate:"omitempty,min=2,max=120"`
	Telefono       *string `json:"telefono"       validate:"omitempty,max=30"`
	Email          *string `json:"email"          validate:"omitempty,email"`
	Direccion      *string `json:"direccion"      validate:"omitempty,max=255"`
	Identificacion *string `json:"identificacion" validate:"omitempty,max=20"`
	Notas          *string `json:"notas"`
}

// ClienteFilter: Q matches nombre, telefono or identificacion.
type ClienteFilter struct {
	Q     string `form:"q"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type ClienteResponse struct {
	ID             string  `json:"id"`
	Nombre         string  `json:"nombre"`
	Telefono       *string `json:"telefono"`
	Email          *string `json:"email"`
	Direccion      *string `json:"direccion"`
	Identificacion *string `json:"identificacion"`
	Notas          *string `json:"notas"`
}

type ClienteListResponse struct {
	Data       []ClienteResponse `json:"data"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}
