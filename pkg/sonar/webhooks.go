package sonar

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Webhook is a global or project webhook.
type Webhook struct {
	Key            string           `json:"key"                      yaml:"key"`
	Name           string           `json:"name"                     yaml:"name"`
	URL            string           `json:"url"                      yaml:"url"`
	HasSecret      bool             `json:"hasSecret"                yaml:"has_secret"`
	LatestDelivery *WebhookDelivery `json:"latestDelivery,omitempty" yaml:"latest_delivery,omitempty"`
}

// WebhooksListResponse lists webhooks.
type WebhooksListResponse struct {
	Webhooks []Webhook `json:"webhooks" yaml:"webhooks"`
}

// WebhookCreateRequest creates a webhook. An empty Project creates a global
// webhook.
type WebhookCreateRequest struct {
	Name         string `json:"name"                   yaml:"name"`
	URL          string `json:"url"                    yaml:"url"`
	Project      string `json:"project,omitempty"      yaml:"project,omitempty"`
	Secret       string `json:"secret,omitempty"       yaml:"-"`
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty"`
}

// Validate implements validation.Validatable.
func (r *WebhookCreateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.URL, validation.Required, validation.Length(1, 512), is.URL),
		validation.Field(&r.Secret, validation.Length(16, 200)),
	)
}

// WebhookResponse wraps a created webhook.
type WebhookResponse struct {
	Webhook Webhook `json:"webhook" yaml:"webhook"`
}

// WebhookUpdateRequest replaces the name, URL and secret of a webhook.
type WebhookUpdateRequest struct {
	Webhook string `json:"webhook"          yaml:"webhook"`
	Name    string `json:"name"             yaml:"name"`
	URL     string `json:"url"              yaml:"url"`
	Secret  string `json:"secret,omitempty" yaml:"-"`
}

// Validate implements validation.Validatable.
func (r *WebhookUpdateRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Webhook, validation.Required),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.URL, validation.Required, validation.Length(1, 512), is.URL),
		validation.Field(&r.Secret, validation.Length(16, 200)),
	)
}

// WebhookDelivery is one call of a webhook.
type WebhookDelivery struct {
	ID              string `json:"id"                        yaml:"id"`
	ComponentKey    string `json:"componentKey,omitempty"    yaml:"component_key,omitempty"`
	CETaskID        string `json:"ceTaskId,omitempty"        yaml:"ce_task_id,omitempty"`
	Name            string `json:"name,omitempty"            yaml:"name,omitempty"`
	URL             string `json:"url,omitempty"             yaml:"url,omitempty"`
	At              string `json:"at"                        yaml:"at"`
	Success         bool   `json:"success"                   yaml:"success"`
	HTTPStatus      int    `json:"httpStatus,omitempty"      yaml:"http_status,omitempty"`
	DurationMs      int    `json:"durationMs,omitempty"      yaml:"duration_ms,omitempty"`
	Payload         string `json:"payload,omitempty"         yaml:"payload,omitempty"`
	ErrorStacktrace string `json:"errorStacktrace,omitempty" yaml:"error_stacktrace,omitempty"`
}

// WebhookDeliveriesResponse is a page of /api/webhooks/deliveries.
type WebhookDeliveriesResponse struct {
	PageEnvelope

	Deliveries []WebhookDelivery `json:"deliveries" yaml:"deliveries"`
}

// PageItems implements Pager.
func (r *WebhookDeliveriesResponse) PageItems() []WebhookDelivery { return r.Deliveries }

// WebhookDeliveriesBuilder lists recent deliveries. One of webhook,
// componentKey or ceTaskId is required.
type WebhookDeliveriesBuilder struct {
	Builder[*WebhookDeliveriesBuilder, WebhookDelivery, *WebhookDeliveriesResponse]
}

// NewWebhookDeliveriesBuilder creates a builder for /api/webhooks/deliveries.
func NewWebhookDeliveriesBuilder(requester Requester) *WebhookDeliveriesBuilder {
	b := &WebhookDeliveriesBuilder{}
	b.Builder = NewBuilder[*WebhookDeliveriesBuilder, WebhookDelivery](b, requester, "/api/webhooks/deliveries",
		func() *WebhookDeliveriesResponse { return &WebhookDeliveriesResponse{} })
	b.AddCheck(func(params *QueryParams) error {
		if !params.Has("webhook") && !params.Has("componentKey") && !params.Has("ceTaskId") {
			return NewValidationError("webhook", "webhook, componentKey or ceTaskId is required")
		}

		return nil
	})

	return b
}

// Webhook selects deliveries of one webhook.
func (b *WebhookDeliveriesBuilder) Webhook(key string) *WebhookDeliveriesBuilder {
	return b.WithParam("webhook", key)
}

// ComponentKey selects deliveries triggered by a project.
func (b *WebhookDeliveriesBuilder) ComponentKey(key string) *WebhookDeliveriesBuilder {
	return b.WithParam("componentKey", key)
}

// CETaskID selects deliveries triggered by a background task.
func (b *WebhookDeliveriesBuilder) CETaskID(id string) *WebhookDeliveriesBuilder {
	return b.WithParam("ceTaskId", id)
}

// WebhookDeliveryResponse wraps one delivery with its payload.
type WebhookDeliveryResponse struct {
	Delivery WebhookDelivery `json:"delivery" yaml:"delivery"`
}

// WebhooksClient manages webhooks. An empty project means global webhooks.
type WebhooksClient interface {
	List(ctx context.Context, project string) ([]Webhook, error)
	Create(ctx context.Context, request *WebhookCreateRequest) (*Webhook, error)
	Update(ctx context.Context, request *WebhookUpdateRequest) error
	Delete(ctx context.Context, key string) error
	Deliveries() *WebhookDeliveriesBuilder
	Delivery(ctx context.Context, id string) (*WebhookDelivery, error)
}
