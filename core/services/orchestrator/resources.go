package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	null "gopkg.in/guregu/null.v4"
)

// serviceResourcesTimeout bounds each capability probe; resource endpoints
// answer from local state and should be fast.
const serviceResourcesTimeout = 30 * time.Second

// CollectServiceResources queries each configured container's
// /service-resources endpoint in parallel and returns the results keyed by
// container ID. When modelID is set, containers are asked whether they
// serve that model instead. Containers whose probe fails are logged at
// warn level and omitted from the result.
func (o *Orchestrator) CollectServiceResources(ctx context.Context, modelID null.String) (map[string]map[string]interface{}, error) {
	client := &http.Client{Timeout: serviceResourcesTimeout}

	var (
		mu        sync.Mutex
		resources = make(map[string]map[string]interface{})
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, cfg := range o.manager.Configs() {
		cfg := cfg
		endpoint := fmt.Sprintf("http://%s:%d/service-resources", o.host, cfg.Port)
		if modelID.Valid {
			endpoint = fmt.Sprintf("%s?model_id=%s", endpoint, url.QueryEscape(modelID.String))
		}

		g.Go(func() error {
			result, err := o.fetchResources(ctx, client, endpoint)
			if err != nil {
				o.lggr.Warnw("Error fetching container resources", "container", cfg.ID, "url", endpoint, "err", err)
				return nil
			}
			mu.Lock()
			resources[cfg.ID] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return resources, nil
}

func (o *Orchestrator) fetchResources(ctx context.Context, client *http.Client, endpoint string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("container returned status %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decoding service resources")
	}
	return result, nil
}
