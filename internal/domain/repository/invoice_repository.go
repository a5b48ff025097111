package repository

import (
	"time"

	"github.com/jhoicas/Contable-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para las facturas
// extraídas y su avance por el pipeline.
type InvoiceRepository interface {
	Create(invoice *entity.InvoiceRecord) error
	// UpdateStatus avanza el estado del pipeline sin tocar los campos de
	// extracción (inmutables tras Create).
	UpdateStatus(id, status string) error
	// SetRemote registra el ID asignado por el sistema contable externo
	// junto con el estado que corresponda.
	SetRemote(id, remoteID, status string) error
	GetByID(id string) (*entity.InvoiceRecord, error)
	// ListByStatus trae hasta limit facturas en el estado dado, de la más
	// antigua a la más reciente (el barredor reintenta en ese orden).
	ListByStatus(status string, limit int) ([]*entity.InvoiceRecord, error)
	// ListByDateRange trae las facturas del rango para los reportes de cartera.
	ListByDateRange(from, to time.Time) ([]*entity.InvoiceRecord, error)
}
