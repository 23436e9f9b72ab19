package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// WebhooksClient implements sonar.WebhooksClient.
type WebhooksClient struct {
	requester *requester
}

// NewWebhooksClient creates a new webhooks client.
func NewWebhooksClient(r *requester) *WebhooksClient {
	return &WebhooksClient{requester: r}
}

// List implements sonar.WebhooksClient.List.
func (c *WebhooksClient) List(ctx context.Context, project string) ([]sonar.Webhook, error) {
	var resp sonar.WebhooksListResponse

	err := c.requester.GetJSON(ctx, "/api/webhooks/list", newForm().set("project", project).values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}

	return resp.Webhooks, nil
}

// Create implements sonar.WebhooksClient.Create.
func (c *WebhooksClient) Create(ctx context.Context, request *sonar.WebhookCreateRequest) (*sonar.Webhook, error) {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return nil, err
	}

	values := newForm().
		set("name", request.Name).
		set("url", request.URL).
		set("project", request.Project).
		set("secret", request.Secret).
		set("organization", request.Organization)

	var resp sonar.WebhookResponse

	err = c.requester.postForm(ctx, "/api/webhooks/create", values.values(), &resp)
	if err != nil {
		return nil, fmt.Errorf("creating webhook: %w", err)
	}

	return &resp.Webhook, nil
}

// Update implements sonar.WebhooksClient.Update.
func (c *WebhooksClient) Update(ctx context.Context, request *sonar.WebhookUpdateRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("webhook", request.Webhook).
		set("name", request.Name).
		set("url", request.URL).
		set("secret", request.Secret)

	err = c.requester.postForm(ctx, "/api/webhooks/update", values.values(), nil)
	if err != nil {
		return fmt.Errorf("updating webhook: %w", err)
	}

	return nil
}

// Delete implements sonar.WebhooksClient.Delete.
func (c *WebhooksClient) Delete(ctx context.Context, key string) error {
	err := c.requester.postRequired(ctx, "/api/webhooks/delete", map[string]string{"webhook": key})
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	return nil
}

// Deliveries implements sonar.WebhooksClient.Deliveries.
func (c *WebhooksClient) Deliveries() *sonar.WebhookDeliveriesBuilder {
	return sonar.NewWebhookDeliveriesBuilder(c.requester)
}

// Delivery implements sonar.WebhooksClient.Delivery.
func (c *WebhooksClient) Delivery(ctx context.Context, id string) (*sonar.WebhookDelivery, error) {
	err := requireKey("deliveryId", id)
	if err != nil {
		return nil, err
	}

	var resp sonar.WebhookDeliveryResponse

	err = c.requester.GetJSON(ctx, "/api/webhooks/delivery", url.Values{"deliveryId": {id}}, &resp)
	if err != nil {
		return nil, fmt.Errorf("getting webhook delivery: %w", err)
	}

	return &resp.Delivery, nil
}
