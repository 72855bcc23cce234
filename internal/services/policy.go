package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pagos-app/payment-manager/internal/models"
	"github.com/pagos-app/payment-manager/internal/money"
	"github.com/pagos-app/payment-manager/internal/store"
)

// ReversalPolicy decides what deleting a payment gives back. The client
// balance is always restored. RestoreDocument also gives the amount back to
// the attached document, never above the document's original amount.
type ReversalPolicy struct {
	RestoreDocument bool
}

var (
	// LegacyReversal restores the client only; the document keeps the
	// reduced outstanding amount.
	LegacyReversal = ReversalPolicy{}
	FullReversal   = ReversalPolicy{RestoreDocument: true}
)

// PolicyFor maps the configuration toggle to a policy.
func PolicyFor(restoreDocument bool) ReversalPolicy {
	if restoreDocument {
		return FullReversal
	}
	return LegacyReversal
}

func (p ReversalPolicy) String() string {
	if p.RestoreDocument {
		return "full"
	}
	return "legacy"
}

// Reverse undoes the balance effects of pay inside tx.
func (p ReversalPolicy) Reverse(ctx context.Context, tx store.Adapter, pay *models.Payment) error {
	client, err := lockClient(ctx, tx, pay.ClienteID)
	if err != nil {
		return err
	}
	if err := setClientSaldo(ctx, tx, client.ID, money.Add(client.Saldo, pay.Monto)); err != nil {
		return err
	}
	if !p.RestoreDocument || pay.DocumentoID == nil {
		return nil
	}
	doc, err := lockDocument(ctx, tx, *pay.DocumentoID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	restored := money.Add(doc.SaldoPendiente, pay.Monto)
	if restored > doc.Monto {
		restored = doc.Monto
	}
	return setDocumentSaldo(ctx, tx, doc.ID, restored)
}

func lockClient(ctx context.Context, tx store.Adapter, id uint) (*models.Client, error) {
	var c models.Client
	err := tx.Locking(tx.ORM(ctx)).Take(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("cliente_no_encontrado")
	}
	if err != nil {
		return nil, storage("lock client", err)
	}
	return &c, nil
}

func lockDocument(ctx context.Context, tx store.Adapter, id uint) (*models.Document, error) {
	var d models.Document
	err := tx.Locking(tx.ORM(ctx)).Take(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("documento_no_encontrado")
	}
	if err != nil {
		return nil, storage("lock document", err)
	}
	return &d, nil
}

func setClientSaldo(ctx context.Context, tx store.Adapter, id uint, saldo float64) error {
	_, err := tx.Run(ctx, "UPDATE clientes SET saldo = ? WHERE id = ?", money.Round2(saldo), id)
	return storage("update client balance", err)
}

func setDocumentSaldo(ctx context.Context, tx store.Adapter, id uint, saldo float64) error {
	_, err := tx.Run(ctx, "UPDATE documentos SET saldo_pendiente = ? WHERE id = ?", money.Round2(saldo), id)
	return storage("update document outstanding", err)
}
