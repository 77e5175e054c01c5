package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PRODUCT USECASE

// ProductReq — входная проекция товара для создания и обновления.
// Цена проверяется отдельно от тегов валидатора (см. delivery).
type ProductReq struct {
	Name        string          `json:"name" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"required,min=10,max=500"`
	Price       decimal.Decimal `json:"price" validate:"-"`
	Quantity    *int            `json:"quantity" validate:"required,min=0,max=10000"`
	Category    string          `json:"category" validate:"required"`
}

// ProductRes — выходная проекция товара.
// Цена сериализуется строкой, точно сохраняющей два знака после запятой.
type ProductRes struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product.created"
	ProductUpdated OutboxEventType = "product.updated"
	ProductDeleted OutboxEventType = "product.deleted"
)

// OutboxEvent — событие жизненного цикла товара, записываемое в одной
// транзакции с изменением и публикуемое воркером в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(eventType OutboxEventType, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

// INFRASTRUCTURE

// WriteRawMessageReq — запрос на публикацию готового payload в Kafka.
type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{ProductID: productID, Payload: payload}
}
