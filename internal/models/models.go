// Package models holds the persisted ledger entities.
package models

import (
	"time"
)

// Document types.
const (
	TipoFactura = "Factura"
	TipoRemito  = "Remito"
)

// DefaultFormaPago is used when a payment arrives without a method.
const DefaultFormaPago = "Transferencia"

// DocumentTypes lists the accepted values of Document.Tipo and
// Client.TipoDocumento.
var DocumentTypes = []string{TipoFactura, TipoRemito}

// PaymentMethods lists the accepted values of Payment.FormaPago and
// PaymentDetail.FormaPago.
var PaymentMethods = []string{
	"Transferencia",
	"Efectivo",
	"Deposito",
	"Cheque",
	"E-Cheq",
	"Ret Ganancias",
	"Ret IIBB",
	"A/Cta",
}

func IsDocumentType(s string) bool { return contains(DocumentTypes, s) }

func IsPaymentMethod(s string) bool { return contains(PaymentMethods, s) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Client is a billable counterparty. Saldo > 0 means the client owes money.
type Client struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Nombre          string    `gorm:"not null" json:"nombre"`
	Empresa         string    `gorm:"not null" json:"empresa"`
	TipoDocumento   string    `gorm:"default:Factura" json:"tipoDocumento"`
	NumeroDocumento *string   `json:"numeroDocumento"`
	Saldo           float64   `gorm:"default:0" json:"saldo"`
	Fecha           *string   `json:"fecha"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	Documents []Document `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"-"`
	Payments  []Payment  `gorm:"foreignKey:ClienteID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Client) TableName() string { return "clientes" }

// Document is an invoice or delivery note owned by one client.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ClienteID      uint      `gorm:"not null;index" json:"clienteId"`
	Tipo           string    `gorm:"not null" json:"tipo"`
	Numero         string    `gorm:"not null" json:"numero"`
	Empresa        string    `gorm:"not null" json:"empresa"`
	Monto          float64   `gorm:"not null" json:"monto"`
	SaldoPendiente float64   `gorm:"not null" json:"saldoPendiente"`
	Fecha          *string   `json:"fecha"`
	CreatedAt      time.Time `json:"createdAt"`

	Payments []Payment `gorm:"foreignKey:DocumentoID;constraint:OnDelete:SET NULL" json:"-"`
}

func (Document) TableName() string { return "documentos" }

// Payment is one monetary event against a client, optionally tied to a
// document. FormaPago is the legacy single-method label; the breakdown
// lives in Detalles.
type Payment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ClienteID   uint      `gorm:"not null;index" json:"clienteId"`
	DocumentoID *uint     `gorm:"index" json:"documentoId"`
	Monto       float64   `gorm:"not null" json:"monto"`
	FormaPago   string    `gorm:"default:Transferencia" json:"formaPago"`
	Descripcion string    `json:"descripcion"`
	Fecha       string    `json:"fecha"`
	CreatedAt   time.Time `json:"createdAt"`

	Detalles []PaymentDetail `gorm:"foreignKey:PagoID;constraint:OnDelete:CASCADE" json:"detallesPago,omitempty"`
}

func (Payment) TableName() string { return "pagos" }

// PaymentDetail is one (method, amount) line of a payment.
type PaymentDetail struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	PagoID    uint    `gorm:"not null;index" json:"pagoId"`
	FormaPago string  `gorm:"not null" json:"formaPago"`
	Monto     float64 `gorm:"not null" json:"monto"`
}

func (PaymentDetail) TableName() string { return "pagos_detalle" }

// All lists the models in creation order (parents first).
func All() []any {
	return []any{&Client{}, &Document{}, &Payment{}, &PaymentDetail{}}
}

// PaymentView is the joined read projection of a payment.
type PaymentView struct {
	ID               uint         `json:"id"`
	Monto            float64      `json:"monto"`
	FormaPago        string       `json:"formaPago"`
	Descripcion      string       `json:"descripcion"`
	Fecha            string       `json:"fecha"`
	DocumentoID      *uint        `json:"documentoId"`
	ClienteNombre    string       `json:"clienteNombre"`
	ClienteID        uint         `json:"clienteId"`
	DocumentoTipo    *string      `json:"documentoTipo"`
	DocumentoNumero  *string      `json:"documentoNumero"`
	DocumentoEmpresa *string      `json:"documentoEmpresa"`
	DetallesPago     []DetailView `gorm:"-" json:"detallesPago"`
}

// DetailView is a detail line as shown inside a PaymentView.
type DetailView struct {
	ID        uint    `json:"id"`
	PagoID    uint    `json:"-"`
	FormaPago string  `json:"formaPago"`
	Monto     float64 `json:"monto"`
}

// DetailSum reports the total of the detail lines.
func (v PaymentView) DetailSum() float64 {
	var s float64
	for _, d := range v.DetallesPago {
		s += d.Monto
	}
	return s
}
