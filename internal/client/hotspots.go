package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/fivetwenty-io/sonar-client/pkg/sonar"
)

// HotspotsClient implements sonar.HotspotsClient.
type HotspotsClient struct {
	requester *requester
}

// NewHotspotsClient creates a new hotspots client.
func NewHotspotsClient(r *requester) *HotspotsClient {
	return &HotspotsClient{requester: r}
}

// Search implements sonar.HotspotsClient.Search.
func (c *HotspotsClient) Search() *sonar.HotspotsSearchBuilder {
	return sonar.NewHotspotsSearchBuilder(c.requester)
}

// Show implements sonar.HotspotsClient.Show.
func (c *HotspotsClient) Show(ctx context.Context, hotspot string) (*sonar.HotspotDetails, error) {
	err := requireKey("hotspot", hotspot)
	if err != nil {
		return nil, err
	}

	var details sonar.HotspotDetails

	err = c.requester.GetJSON(ctx, "/api/hotspots/show", url.Values{"hotspot": {hotspot}}, &details)
	if err != nil {
		return nil, fmt.Errorf("getting hotspot: %w", err)
	}

	return &details, nil
}

// ChangeStatus implements sonar.HotspotsClient.ChangeStatus.
func (c *HotspotsClient) ChangeStatus(ctx context.Context, request *sonar.HotspotChangeStatusRequest) error {
	err := sonar.ValidateRequest(request)
	if err != nil {
		return err
	}

	values := newForm().
		set("hotspot", request.Hotspot).
		set("status", request.Status).
		set("resolution", request.Resolution).
		set("comment", request.Comment)

	err = c.requester.postForm(ctx, "/api/hotspots/change_status", values.values(), nil)
	if err != nil {
		return fmt.Errorf("changing hotspot status: %w", err)
	}

	return nil
}
