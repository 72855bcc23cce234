package services

import (
	"context"
	"strings"
	"time"

	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/money"
	"github.com/pagos-app/payment-manager/internal/store"
	"github.com/pagos-app/payment-manager/validation"
)

type DocumentInput struct {
	ClienteID uint    `json:"clienteId"`
	Tipo      string  `json:"tipo"`
	Numero    string  `json:"numero"`
	Empresa   string  `json:"empresa"`
	Monto     float64 `json:"monto"`
	Fecha     *string `json:"fecha"`
}

type DocumentService struct {
	db store.Adapter
}

func NewDocumentService(db store.Adapter) *DocumentService {
	return &DocumentService{db: db}
}

func (s *DocumentService) List(ctx context.Context) ([]models.Document, error) {
	docs := []models.Document{}
	err := s.db.All(ctx, &docs, "SELECT * FROM documentos ORDER BY fecha DESC, id DESC")
	return docs, storage("list documents", err)
}

// ListPending returns the client's documents that still have something to
// collect.
func (s *DocumentService) ListPending(ctx context.Context, clienteID uint) ([]models.Document, error) {
	docs := []models.Document{}
	err := s.db.All(ctx, &docs,
		"SELECT * FROM documentos WHERE cliente_id = ? AND saldo_pendiente > 0 ORDER BY fecha DESC, id DESC", clienteID)
	return docs, storage("list pending documents", err)
}

func (s *DocumentService) Get(ctx context.Context, id uint) (*models.Document, error) {
	return getDocument(ctx, s.db, id)
}

func getDocument(ctx context.Context, db store.Adapter, id uint) (*models.Document, error) {
	var d models.Document
	found, err := db.Get(ctx, &d, "SELECT * FROM documentos WHERE id = ?", id)
	if err != nil {
		return nil, storage("get document", err)
	}
	if !found {
		return nil, notFound("documento_no_encontrado")
	}
	return &d, nil
}

// Create stores a new document whose outstanding amount starts at its
// full (rounded) amount.
func (s *DocumentService) Create(ctx context.Context, in DocumentInput) (*models.Document, error) {
	in.Tipo, in.Numero, in.Empresa = strings.TrimSpace(in.Tipo), strings.TrimSpace(in.Numero), strings.TrimSpace(in.Empresa)
	v := validation.Violations{}
	if in.ClienteID == 0 {
		v["clienteId"] = "required"
	}
	validation.Required("tipo", in.Tipo, v)
	validation.Required("numero", in.Numero, v)
	validation.Required("empresa", in.Empresa, v)
	if in.Monto == 0 {
		v["monto"] = "required"
	}
	if !v.Empty() {
		return nil, invalid("campos_requeridos", v)
	}
	validation.OneOf("tipo", in.Tipo, models.DocumentTypes, v)
	validation.PositiveFloat("monto", money.Round2(in.Monto), v)
	if !v.Empty() {
		return nil, invalid("validation_failed", v)
	}
	monto := money.Round2(in.Monto)

	var id int64
	err := s.db.Transaction(ctx, func(tx store.Adapter) error {
		if _, err := getClient(ctx, tx, in.ClienteID); err != nil {
			return err
		}
		res, err := tx.Run(ctx, `
			INSERT INTO documentos (cliente_id, tipo, numero, empresa, monto, saldo_pendiente, fecha, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			in.ClienteID, in.Tipo, in.Numero, in.Empresa, monto, monto, optional(in.Fecha), time.Now().UTC())
		if err != nil {
			return storage("insert document", err)
		}
		id = res.LastInsertID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, uint(id))
}

// UpdateOutstanding is the only edit allowed on a document: amount, type
// and number are fixed once entered.
func (s *DocumentService) UpdateOutstanding(ctx context.Context, id uint, saldoPendiente float64) (*models.Document, error) {
	if saldoPendiente < 0 {
		return nil, invalid("validation_failed", validation.Violations{"saldoPendiente": "out_of_range"})
	}
	res, err := s.db.Run(ctx, "UPDATE documentos SET saldo_pendiente = ? WHERE id = ?", money.Round2(saldoPendiente), id)
	if err != nil {
		return nil, storage("update document", err)
	}
	if res.Changes == 0 {
		return nil, notFound("documento_no_encontrado")
	}
	return s.Get(ctx, id)
}

// Delete removes the document. Payments that pointed at it keep their
// effect on the client and lose the reference.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	res, err := s.db.Run(ctx, "DELETE FROM documentos WHERE id = ?", id)
	if err != nil {
		return storage("delete document", err)
	}
	if res.Changes == 0 {
		return notFound("documento_no_encontrado")
	}
	return nil
}
