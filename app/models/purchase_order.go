package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the status of a purchase order
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pendiente"
	OrderStatusReceived OrderStatus = "recibido"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s *OrderStatus) Scan(value interface{}) error {
	*s = OrderStatus(value.(string))
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Line statuses for OrderLine
const (
	LineStatusOK           = "consolidado"
	LineStatusVariance     = "varianza"
	LineStatusNotDelivered = "no-entregado"
)

// Supplier represents a purchase supplier
type Supplier struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;index" json:"nombre"`
	Phone     string         `json:"telefono"`
	Email     string         `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// PurchaseOrder represents an order placed with a supplier. Orders are
// created pending; the transition to received is a single atomic event and
// is never attempted twice for the same order.
type PurchaseOrder struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SupplierID    uint           `gorm:"not null;index" json:"proveedor_id"`
	OrderDate     time.Time      `json:"fecha"`
	Status        OrderStatus    `gorm:"default:pendiente" json:"estado"`
	ReceivedAt    *time.Time     `json:"fecha_recepcion,omitempty"`
	TotalOrdered  float64        `gorm:"default:0" json:"total_pedido"`
	TotalReceived float64        `gorm:"default:0" json:"total_recibido"`
	Variance      float64        `gorm:"default:0" json:"varianza"`
	Lines         []OrderLine    `gorm:"foreignKey:OrderID" json:"lineas"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Supplier *Supplier `gorm:"foreignKey:SupplierID" json:"proveedor,omitempty"`
}

// OrderLine carries the ordered vs. received quantities and prices for one
// ingredient of a purchase order.
type OrderLine struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OrderID      uint    `gorm:"not null;index" json:"pedido_id"`
	IngredientID uint    `gorm:"not null;index" json:"ingrediente_id"`
	Ordered      float64 `gorm:"not null" json:"cantidad"`
	Received     float64 `json:"cantidadRecibida"`
	OrderedPrice float64 `json:"precioUnitario"`
	RealPrice    float64 `json:"precioReal"`
	Status       string  `gorm:"default:consolidado" json:"estado"` // consolidado, varianza, no-entregado

	// Relations
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingrediente,omitempty"`
}

// purchaseOrderAlias accepts the supplier reference under both persisted
// spellings.
type purchaseOrderAlias struct {
	ID            uint        `json:"id"`
	SupplierID    uint        `json:"proveedor_id"`
	SupplierIDAlt uint        `json:"proveedorId"`
	OrderDate     time.Time   `json:"fecha"`
	Status        OrderStatus `json:"estado"`
	ReceivedAt    *time.Time  `json:"fecha_recepcion"`
	TotalOrdered  float64     `json:"total_pedido"`
	TotalReceived float64     `json:"total_recibido"`
	Variance      float64     `json:"varianza"`
	Lines         []OrderLine `json:"lineas"`
}

// UnmarshalJSON normalizes proveedor_id / proveedorId into the canonical
// supplier reference.
func (o *PurchaseOrder) UnmarshalJSON(data []byte) error {
	var a purchaseOrderAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	o.ID = a.ID
	o.SupplierID = a.SupplierID
	if o.SupplierID == 0 {
		o.SupplierID = a.SupplierIDAlt
	}
	o.OrderDate = a.OrderDate
	o.Status = a.Status
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	o.ReceivedAt = a.ReceivedAt
	o.TotalOrdered = a.TotalOrdered
	o.TotalReceived = a.TotalReceived
	o.Variance = a.Variance
	o.Lines = a.Lines
	return nil
}

// orderLineAlias accepts the ordered price under both persisted spellings
// and applies the reception defaults: received quantity defaults to the
// ordered quantity and the real price to the ordered price until the
// operator enters actual values.
type orderLineAlias struct {
	ID              uint     `json:"id"`
	OrderID         uint     `json:"pedido_id"`
	IngredientID    uint     `json:"ingrediente_id"`
	IngredientIDAlt uint     `json:"ingredienteId"`
	Ordered         float64  `json:"cantidad"`
	Received        *float64 `json:"cantidadRecibida"`
	OrderedPrice    float64  `json:"precioUnitario"`
	OrderedPriceAlt float64  `json:"precio_unitario"`
	RealPrice       *float64 `json:"precioReal"`
	Status          string   `json:"estado"`
}

func (l *OrderLine) UnmarshalJSON(data []byte) error {
	var a orderLineAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	l.ID = a.ID
	l.OrderID = a.OrderID
	l.IngredientID = a.IngredientID
	if l.IngredientID == 0 {
		l.IngredientID = a.IngredientIDAlt
	}
	l.Ordered = a.Ordered
	l.OrderedPrice = a.OrderedPrice
	if l.OrderedPrice == 0 {
		l.OrderedPrice = a.OrderedPriceAlt
	}

	if a.Received != nil {
		l.Received = *a.Received
	} else {
		l.Received = a.Ordered
	}
	if a.RealPrice != nil {
		l.RealPrice = *a.RealPrice
	} else {
		l.RealPrice = l.OrderedPrice
	}

	l.Status = a.Status
	if l.Status == "" {
		l.Status = LineStatusOK
	}
	return nil
}

// TableName specifies the table name for Supplier
func (Supplier) TableName() string {
	return "suppliers"
}

// TableName specifies the table name for PurchaseOrder
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// TableName specifies the table name for OrderLine
func (OrderLine) TableName() string {
	return "order_lines"
}
