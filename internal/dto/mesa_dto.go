package dto

type CrearMesaRequest struct {
	SucursalID string  `json:"sucursal_id" validate:"required,uuid"`
	Numero     int     `json:"numero"      validate:"required,min=1"`
	Capacidad  int     `json:"capacidad"   validate:"required,min=1,max=50"`
	Ubicacion  *string `json:"ubicacion"   validate:"omitempty,max=60"`
	Notas      *string `json:"notas"`
}

type ActualizarMesaRequest struct {
	Numero    *int    `json:"numero"    validate:"omitempty,min=1"`
	Capacidad *int    `json:"capacidad" validate:"omitempty,min=1,max=50"`
	Ubicacion *string `json:"ubicacion" validate:"omitempty,max=60"`
	Notas     *string `json:"notas"`
}

type LiberarMesaRequest struct {
	UsuarioID string `json:"usuario_id" validate:"required,uuid"`
}

type MesaFilter struct {
	SucursalID  string `form:"sucursal_id" validate:"omitempty,uuid"`
	Disponibles bool   `form:"disponibles"`
}

type MesaResponse struct {
	ID            string  `json:"id"`
	SucursalID    string  `json:"sucursal_id"`
	Numero        int     `json:"numero"`
	Capacidad     int     `json:"capacidad"`
	Disponible    bool    `json:"disponible"`
	Ubicacion     *string `json:"ubicacion"`
	Notas         *string `json:"notas"`
	OrdenActualID *string `json:"orden_actual_id"`
}

type LiberarMesaResponse struct {
	Mesa    MesaResponse `json:"mesa"`
	OrdenID string       `json:"orden_id"`
	Estado  string       `json:"estado"`
}
