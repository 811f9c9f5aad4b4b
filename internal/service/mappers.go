package service

import (
	"time"

	"restopos/internal/dto"
	"restopos/internal/model"
)

func mapMesa(m *model.Mesa) dto.MesaResponse {
	return dto.MesaResponse{
		ID:            m.ID.String(),
		SucursalID:    m.SucursalID.String(),
		Numero:        m.Numero,
		Capacidad:     m.Capacidad,
		Disponible:    m.Disponible,
		Ubicacion:     m.Ubicacion,
		Notas:         m.Notas,
		OrdenActualID: optString(m.OrdenActualID),
	}
}

func mapCliente(c *model.Cliente) dto.ClienteResponse {
	return dto.ClienteResponse{
		ID:             c.ID.String(),
		Nombre:         c.Nombre,
		Telefono:       c.Telefono,
		Email:          c.Email,
		Direccion:      c.Direccion,
		Identificacion: c.Identificacion,
		Notas:          c.Notas,
	}
}

func mapUsuario(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:             u.ID.String(),
		Username:       u.Username,
		Identificacion: u.Identificacion,
		Nombre:         u.Nombre,
		Email:          u.Email,
		Rol:            u.Rol,
		SucursalID:     optString(u.SucursalID),
		Activo:         u.Activo,
	}
}

func mapOrden(o *model.Orden) dto.OrdenResponse {
	resp := dto.OrdenResponse{
		ID:               o.ID.String(),
		SucursalID:       o.SucursalID.String(),
		Tipo:             o.Tipo,
		Estado:           o.Estado,
		UsuarioID:        o.UsuarioID.String(),
		DireccionEntrega: o.DireccionEntrega,
		Items:            make([]dto.ItemOrdenResponse, 0, len(o.Items)),
		Subtotal:         o.Subtotal,
		Descuento:        o.Descuento,
		CostoEnvio:       o.CostoEnvio,
		CostoAdicional:   o.CostoAdicional,
		Total:            o.Total,
		Notas:            o.Notas,
		CreadaOffline:    o.CreadaOffline,
		Sincronizada:     o.Sincronizada,
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        o.UpdatedAt.Format(time.RFC3339),
	}
	if o.Mesa != nil {
		m := mapMesa(o.Mesa)
		resp.Mesa = &m
	}
	if o.Cliente != nil {
		c := mapCliente(o.Cliente)
		resp.Cliente = &c
	}
	if o.Usuario != nil {
		resp.Mesero = o.Usuario.Nombre
	}
	for _, it := range o.Items {
		item := dto.ItemOrdenResponse{
			ID:             it.ID.String(),
			ProductoID:     it.ProductoID.String(),
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
			Notas:          it.Notas,
		}
		if it.Producto != nil {
			item.Producto = it.Producto.Nombre
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
