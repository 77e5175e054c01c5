// Package converter преобразует модели PostgreSQL в сущности и обратно.
// Отображения написаны явно: каждое поле переносится по имени,
// добавление колонки требует осознанной правки обеих функций.
package converter

import (
	"github.com/iheb-heni/product-management/internal/domain"
	"github.com/iheb-heni/product-management/internal/usecase"
)

func ProductToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		Price:       model.Price,
		Quantity:    model.Quantity,
		Category:    model.Category,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func ProductToArrEntity(models []ProductModel) []domain.Product {
	result := make([]domain.Product, 0, len(models))
	for i := range models {
		result = append(result, *ProductToEntity(&models[i]))
	}
	return result
}

func OutboxEventToModel(event *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          event.ID,
		EventID:     event.EventID,
		EventType:   string(event.EventType),
		ProductID:   event.ProductID,
		Payload:     event.Payload,
		Status:      string(event.Status),
		CreatedAt:   event.CreatedAt,
		ProcessedAt: event.ProcessedAt,
	}
}

func OutboxEventToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func OutboxEventToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, OutboxEventToEntity(model))
	}
	return result
}
