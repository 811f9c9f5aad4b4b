package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	EventoOrdenCreada      = "orden.creada"
	EventoOrdenActualizada = "orden.actualizada"
	EventoOrdenEliminada   = "orden.eliminada"
)

// EventoOrden is the message kitchen and floor displays receive.
type EventoOrden struct {
	Evento     string  `json:"event"`
	OrdenID    string  `json:"orden_id"`
	SucursalID string  `json:"sucursal_id"`
	Estado     string  `json:"estado"`
	MesaID     *string `json:"mesa_id"`
	At         string  `json:"at"`
}

// CanalSucursal is the pub/sub channel carrying one branch's order events.
func CanalSucursal(sucursalID uuid.UUID) string {
	return "eventos:sucursal:" + sucursalID.String()
}

// EventPublisher fans order events out through Redis pub/sub.
type EventPublisher struct {
	rdb *redis.Client
}

func NewEventPublisher(rdb *redis.Client) *EventPublisher {
	return &EventPublisher{rdb: rdb}
}

func (p *EventPublisher) PublicarOrden(ctx context.Context, sucursalID uuid.UUID, ev EventoOrden) error {
	if ev.At == "" {
		ev.At = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, CanalSucursal(sucursalID), data).Err()
}

// Suscribir opens a subscription owned by the caller; close it when done.
func (p *EventPublisher) Suscribir(ctx context.Context, sucursalID uuid.UUID) *redis.PubSub {
	return p.rdb.Subscribe(ctx, CanalSucursal(sucursalID))
}
