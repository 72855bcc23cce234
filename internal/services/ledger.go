package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pagos-app/payment-manager/internal/logger"
	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/money"
	"github.com/pagos-app/payment-manager/internal/store"
	"github.com/pagos-app/payment-manager/validation"
)

func init() {
	if err := validation.RegisterChoice("forma_pago", models.PaymentMethods); err != nil {
		panic(fmt.Sprintf("services: forma_pago validation: %v", err))
	}
}

// DetailInput is one payment method line of a new payment.
type DetailInput struct {
	FormaPago string  `json:"formaPago" validate:"required,forma_pago"`
	Monto     float64 `json:"monto" validate:"gt=0"`
}

type PaymentInput struct {
	ClienteID   uint          `json:"clienteId"`
	DocumentoID *uint         `json:"documentoId"`
	Monto       float64       `json:"monto" validate:"gt=0"`
	FormaPago   string        `json:"formaPago" validate:"forma_pago"`
	Fecha       string        `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Descripcion string        `json:"descripcion"`
	Detalles    []DetailInput `json:"detallesPago" validate:"dive"`
}

// PaymentUpdate overwrites the payment's own fields. Nil keeps the stored
// value.
type PaymentUpdate struct {
	Monto       *float64 `json:"monto" validate:"omitempty,gt=0"`
	FormaPago   *string  `json:"formaPago" validate:"omitempty,forma_pago"`
	Fecha       *string  `json:"fecha" validate:"omitempty,datetime=2006-01-02"`
	Descripcion *string  `json:"descripcion"`
	DocumentoID *uint    `json:"documentoId"`
}

// Ledger applies payments to client balances and document outstanding
// amounts. Each operation runs in one transaction with the touched rows
// locked, so concurrent payments cannot lose updates.
type Ledger struct {
	db     store.Adapter
	policy ReversalPolicy
	now    func() time.Time
	log    zerolog.Logger
}

func NewLedger(db store.Adapter, policy ReversalPolicy) *Ledger {
	return &Ledger{db: db, policy: policy, now: time.Now, log: logger.WithComponent("ledger")}
}

func (l *Ledger) Policy() ReversalPolicy { return l.policy }

// Create records a payment and its detail lines, lowers the client balance
// by the amount and lowers the document outstanding (never below zero).
func (l *Ledger) Create(ctx context.Context, in PaymentInput) (*models.PaymentView, error) {
	if in.ClienteID == 0 || in.Monto == 0 {
		v := validation.Violations{}
		if in.ClienteID == 0 {
			v["clienteId"] = "required"
		}
		if in.Monto == 0 {
			v["monto"] = "required"
		}
		return nil, invalid("pago_campos_requeridos", v)
	}
	v := validation.Struct(in)
	if v.Empty() {
		// amounts are stored with two decimals; 0.004 would become 0
		validation.PositiveFloat("monto", money.Round2(in.Monto), v)
		for i, line := range in.Detalles {
			validation.PositiveFloat(fmt.Sprintf("detallesPago[%d].monto", i), money.Round2(line.Monto), v)
		}
	}
	if !v.Empty() {
		return nil, invalid("validation_failed", v)
	}

	monto := money.Round2(in.Monto)
	formaPago := in.FormaPago
	if formaPago == "" {
		formaPago = models.DefaultFormaPago
	}
	fecha := in.Fecha
	if fecha == "" {
		fecha = l.now().Format("2006-01-02")
	}
	lines := in.Detalles
	if len(lines) == 0 {
		lines = []DetailInput{{FormaPago: formaPago, Monto: monto}}
	}

	var paymentID int64
	err := l.db.Transaction(ctx, func(tx store.Adapter) error {
		client, err := lockClient(ctx, tx, in.ClienteID)
		if err != nil {
			return err
		}
		var doc *models.Document
		if in.DocumentoID != nil && *in.DocumentoID != 0 {
			if doc, err = lockDocument(ctx, tx, *in.DocumentoID); err != nil {
				return err
			}
		}
		var docID *uint
		if doc != nil {
			docID = &doc.ID
		}

		res, err := tx.Run(ctx, `
			INSERT INTO pagos (cliente_id, documento_id, monto, forma_pago, fecha, descripcion, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			client.ID, docID, monto, formaPago, fecha, in.Descripcion, l.now().UTC())
		if err != nil {
			return storage("insert payment", err)
		}
		paymentID = res.LastInsertID

		for _, line := range lines {
			_, err := tx.Run(ctx, "INSERT INTO pagos_detalle (pago_id, forma_pago, monto) VALUES (?, ?, ?)",
				paymentID, line.FormaPago, money.Round2(line.Monto))
			if err != nil {
				return storage("insert payment detail", err)
			}
		}

		if err := setClientSaldo(ctx, tx, client.ID, money.Sub(client.Saldo, monto)); err != nil {
			return err
		}
		if doc != nil {
			if err := setDocumentSaldo(ctx, tx, doc.ID, money.SubFloor(doc.SaldoPendiente, monto)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	view, err := getPayment(ctx, l.db, uint(paymentID))
	if err != nil {
		return nil, err
	}
	if !money.Equal(view.DetailSum(), view.Monto) {
		l.log.Warn().Uint("pago_id", view.ID).Float64("monto", view.Monto).Float64("detalles", view.DetailSum()).
			Msg("payment details do not add up to the total")
	}
	l.log.Info().Uint("pago_id", view.ID).Uint("cliente_id", view.ClienteID).Float64("monto", view.Monto).Msg("payment created")
	return view, nil
}

// Delete removes a payment and reverses its balance effects according to
// the configured policy.
func (l *Ledger) Delete(ctx context.Context, id uint) error {
	err := l.db.Transaction(ctx, func(tx store.Adapter) error {
		var pay models.Payment
		err := tx.Locking(tx.ORM(ctx)).Take(&pay, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("pago_no_encontrado")
		}
		if err != nil {
			return storage("load payment", err)
		}
		if err := l.policy.Reverse(ctx, tx, &pay); err != nil {
			return err
		}
		if _, err := tx.Run(ctx, "DELETE FROM pagos_detalle WHERE pago_id = ?", id); err != nil {
			return storage("delete payment details", err)
		}
		if _, err := tx.Run(ctx, "DELETE FROM pagos WHERE id = ?", id); err != nil {
			return storage("delete payment", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.log.Info().Uint("pago_id", id).Str("policy", l.policy.String()).Msg("payment deleted")
	return nil
}

// Update overwrites the payment's own fields. Balances are left as they
// are, even when the amount changes.
func (l *Ledger) Update(ctx context.Context, id uint, in PaymentUpdate) (*models.PaymentView, error) {
	v := validation.Struct(in)
	if v.Empty() && in.Monto != nil {
		validation.PositiveFloat("monto", money.Round2(*in.Monto), v)
	}
	if !v.Empty() {
		return nil, invalid("validation_failed", v)
	}
	var monto *float64
	if in.Monto != nil {
		m := money.Round2(*in.Monto)
		monto = &m
	}
	docID := in.DocumentoID
	if docID != nil && *docID == 0 {
		docID = nil
	}
	formaPago, fecha := optional(in.FormaPago), optional(in.Fecha)

	err := l.db.Transaction(ctx, func(tx store.Adapter) error {
		var exists int64
		found, err := tx.Get(ctx, &exists, "SELECT id FROM pagos WHERE id = ?", id)
		if err != nil {
			return storage("load payment", err)
		}
		if !found {
			return notFound("pago_no_encontrado")
		}
		if docID != nil {
			if _, err := getDocument(ctx, tx, *docID); err != nil {
				return err
			}
		}
		_, err = tx.Run(ctx, `
			UPDATE pagos
			SET monto = COALESCE(?, monto),
			    forma_pago = COALESCE(?, forma_pago),
			    fecha = COALESCE(?, fecha),
			    descripcion = COALESCE(?, descripcion),
			    documento_id = COALESCE(?, documento_id)
			WHERE id = ?`,
			monto, formaPago, fecha, in.Descripcion, docID, id)
		return storage("update payment", err)
	})
	if err != nil {
		return nil, err
	}
	return getPayment(ctx, l.db, id)
}
