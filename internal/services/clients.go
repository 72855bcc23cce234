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

// ClientInput is used for create and update. A nil field means "not sent".
type ClientInput struct {
	Nombre          *string  `json:"nombre"`
	Empresa         *string  `json:"empresa"`
	TipoDocumento   *string  `json:"tipoDocumento"`
	NumeroDocumento *string  `json:"numeroDocumento"`
	Saldo           *float64 `json:"saldo"`
	Fecha           *string  `json:"fecha"`
}

type ClientService struct {
	db store.Adapter
}

func NewClientService(db store.Adapter) *ClientService {
	return &ClientService{db: db}
}

func (s *ClientService) List(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	err := s.db.All(ctx, &clients, "SELECT * FROM clientes ORDER BY created_at DESC, id DESC")
	return clients, storage("list clients", err)
}

func (s *ClientService) Get(ctx context.Context, id uint) (*models.Client, error) {
	return getClient(ctx, s.db, id)
}

func getClient(ctx context.Context, db store.Adapter, id uint) (*models.Client, error) {
	var c models.Client
	found, err := db.Get(ctx, &c, "SELECT * FROM clientes WHERE id = ?", id)
	if err != nil {
		return nil, storage("get client", err)
	}
	if !found {
		return nil, notFound("cliente_no_encontrado")
	}
	return &c, nil
}

// Create inserts a client after the duplicate checks. The unique index
// is the final word: a violation on insert is reported as a duplicate too.
func (s *ClientService) Create(ctx context.Context, in ClientInput) (*models.Client, error) {
	nombre, empresa := trimmed(in.Nombre), trimmed(in.Empresa)
	if nombre == "" || empresa == "" {
		v := validation.Violations{}
		validation.Required("nombre", nombre, v)
		validation.Required("empresa", empresa, v)
		return nil, invalid("cliente_campos_requeridos", v)
	}
	tipo := models.TipoFactura
	if t := trimmed(in.TipoDocumento); t != "" {
		tipo = t
	}
	if !models.IsDocumentType(tipo) {
		return nil, invalid("validation_failed", validation.Violations{"tipoDocumento": "invalid_choice"})
	}
	numero := optional(in.NumeroDocumento)
	var saldo float64
	if in.Saldo != nil {
		saldo = money.Round2(*in.Saldo)
	}

	var id int64
	err := s.db.Transaction(ctx, func(tx store.Adapter) error {
		if err := checkClientUnique(ctx, tx, nombre, empresa, tipo, numero, 0); err != nil {
			return err
		}
		now := time.Now().UTC()
		res, err := tx.Run(ctx, `
			INSERT INTO clientes (nombre, empresa, tipo_documento, numero_documento, saldo, fecha, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			nombre, empresa, tipo, numero, saldo, optional(in.Fecha), now, now)
		if err != nil {
			if tx.IsConstraintViolation(err) {
				return duplicate("cliente_duplicado", err)
			}
			return storage("insert client", err)
		}
		id = res.LastInsertID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, uint(id))
}

// Update merges in over the stored client. Saldo may be overwritten
// directly; balances otherwise only move through the ledger.
func (s *ClientService) Update(ctx context.Context, id uint, in ClientInput) (*models.Client, error) {
	err := s.db.Transaction(ctx, func(tx store.Adapter) error {
		cur, err := getClient(ctx, tx, id)
		if err != nil {
			return err
		}
		if n := trimmed(in.Nombre); n != "" {
			cur.Nombre = n
		}
		if e := trimmed(in.Empresa); e != "" {
			cur.Empresa = e
		}
		if t := trimmed(in.TipoDocumento); t != "" {
			if !models.IsDocumentType(t) {
				return invalid("validation_failed", validation.Violations{"tipoDocumento": "invalid_choice"})
			}
			cur.TipoDocumento = t
		}
		numero := optional(in.NumeroDocumento)
		if numero != nil {
			cur.NumeroDocumento = numero
		}
		if in.Saldo != nil {
			cur.Saldo = money.Round2(*in.Saldo)
		}
		if f := optional(in.Fecha); f != nil {
			cur.Fecha = f
		}
		if err := checkClientUnique(ctx, tx, cur.Nombre, cur.Empresa, cur.TipoDocumento, numero, id); err != nil {
			return err
		}
		_, err = tx.Run(ctx, `
			UPDATE clientes
			SET nombre = ?, empresa = ?, tipo_documento = ?, numero_documento = ?, saldo = ?, fecha = ?, updated_at = ?
			WHERE id = ?`,
			cur.Nombre, cur.Empresa, cur.TipoDocumento, cur.NumeroDocumento, cur.Saldo, cur.Fecha, time.Now().UTC(), id)
		if err != nil {
			if tx.IsConstraintViolation(err) {
				return duplicate("cliente_duplicado", err)
			}
			return storage("update client", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the client; its documents and payments go with it.
func (s *ClientService) Delete(ctx context.Context, id uint) error {
	res, err := s.db.Run(ctx, "DELETE FROM clientes WHERE id = ?", id)
	if err != nil {
		return storage("delete client", err)
	}
	if res.Changes == 0 {
		return notFound("cliente_no_encontrado")
	}
	return nil
}

// checkClientUnique is the fast-path duplicate check. numero is only
// checked when supplied. self is excluded (0 on create).
func checkClientUnique(ctx context.Context, db store.Adapter, nombre, empresa, tipo string, numero *string, self uint) error {
	var hit int64
	found, err := db.Get(ctx, &hit,
		"SELECT id FROM clientes WHERE nombre = ? AND empresa = ? AND id <> ? LIMIT 1", nombre, empresa, self)
	if err != nil {
		return storage("check client", err)
	}
	if found {
		return duplicate("cliente_duplicado", nil)
	}
	if numero == nil {
		return nil
	}
	found, err = db.Get(ctx, &hit,
		"SELECT id FROM clientes WHERE tipo_documento = ? AND numero_documento = ? AND id <> ? LIMIT 1", tipo, *numero, self)
	if err != nil {
		return storage("check document number", err)
	}
	if found {
		return duplicate("numero_documento_duplicado", nil)
	}
	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// optional returns nil for absent or blank strings.
func optional(s *string) *string {
	t := trimmed(s)
	if t == "" {
		return nil
	}
	return &t
}
