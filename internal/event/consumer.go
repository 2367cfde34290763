package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SumedhKolte/ReWear-sub000/internal/domain"
	"github.com/SumedhKolte/ReWear-sub000/internal/service"
	pkgkafka "github.com/SumedhKolte/ReWear-sub000/pkg/kafka"
)

// Kafka topic constants for item domain events consumed by the search service.
var (
	TopicItemCreated = pkgkafka.Topic("item", "created")
	TopicItemUpdated = pkgkafka.Topic("item", "updated")
	TopicItemDeleted = pkgkafka.Topic("item", "deleted")
)

// ItemEventData represents the payload from item domain events published by
// the listing service.
type ItemEventData struct {
	ID          string    `json:"id"`
	UploaderID  string    `json:"uploader_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Type        string    `json:"type"`
	Size        string    `json:"size"`
	Condition   string    `json:"condition"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemDeletedData represents the payload from an item.deleted event.
type ItemDeletedData struct {
	ID string `json:"id"`
}

// Consumer handles Kafka events related to item changes for search indexing.
type Consumer struct {
	searchService *service.SearchService
	logger        *slog.Logger
}

// NewConsumer creates a new event consumer for the search service.
func NewConsumer(searchService *service.SearchService, logger *slog.Logger) *Consumer {
	return &Consumer{
		searchService: searchService,
		logger:        logger,
	}
}

// Handle processes a Kafka event based on its type. Index operations are
// upserts, so replayed created and updated events are idempotent.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicItemCreated, TopicItemUpdated:
		return c.handleItemUpserted(ctx, event)
	case TopicItemDeleted:
		return c.handleItemDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleItemUpserted indexes a created or updated item.
func (c *Consumer) handleItemUpserted(ctx context.Context, event *pkgkafka.Event) error {
	var data ItemEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}

	item := &domain.Item{
		ID:          data.ID,
		UploaderID:  data.UploaderID,
		Title:       data.Title,
		Description: data.Description,
		Category:    data.Category,
		Type:        data.Type,
		Size:        data.Size,
		Condition:   data.Condition,
		Tags:        data.Tags,
		Images:      data.Images,
		Status:      data.Status,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}

	if err := c.searchService.IndexItem(ctx, item); err != nil {
		return fmt.Errorf("index item from %s event: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed item from event",
		slog.String("item_id", data.ID),
		slog.String("event_type", event.EventType),
	)

	return nil
}

// handleItemDeleted removes a deleted item from the index.
func (c *Consumer) handleItemDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ItemDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal item.deleted data: %w", err)
	}

	if err := c.searchService.DeleteItem(ctx, data.ID); err != nil {
		return fmt.Errorf("delete item from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted item from event",
		slog.String("item_id", data.ID),
	)

	return nil
}
