// Package orchestrator executes jobs by chaining container invocations
// over HTTP and recording their status in the data store.
package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tidwall/gjson"

	"github.com/mcieric/infernet-node/core/logger"
	"github.com/mcieric/infernet-node/core/store/models"
)

//go:generate mockery --name ContainerManager --output ./mocks/ --case=underscore --structname ContainerManager --filename container_manager.go
//go:generate mockery --name DataStore --output ./mocks/ --case=underscore --structname DataStore --filename data_store.go

const (
	// serviceOutputTimeout bounds each container invocation; containers
	// advertise a 180-second SLA on /service_output.
	serviceOutputTimeout = 180 * time.Second

	dockerHost = "host.docker.internal"
	localHost  = "localhost"
)

var promJobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "orchestrator_jobs_processed_total",
	Help: "Number of jobs processed by the orchestrator, by terminal status",
}, []string{"status"})

// ContainerStatus is the terminal status recorded for a single container
// invocation.
type ContainerStatus string

const (
	ContainerStatusSuccess ContainerStatus = "success"
	ContainerStatusFailed  ContainerStatus = "failed"
)

type (
	// ContainerManager resolves container IDs to their local TCP ports and
	// lists the static container configuration. The port map is read-only
	// after initialization; container lifecycle is managed externally.
	ContainerManager interface {
		GetPort(container string) (int, error)
		Configs() []ContainerConfig
	}

	// ContainerConfig is one entry of the static container listing.
	ContainerConfig struct {
		ID   string `json:"id"`
		Port int    `json:"port"`
	}

	// DataStore is the sink for job and container status bookkeeping. Its
	// operations are atomic and safe for concurrent use. A nil message
	// means the job has no off-chain record to update.
	DataStore interface {
		SetRunning(msg *models.OffchainJobMessage)
		SetSuccess(msg *models.OffchainJobMessage, results []models.ContainerResult)
		SetFailed(msg *models.OffchainJobMessage, results []models.ContainerResult)
		TrackContainerStatus(container string, status ContainerStatus)
	}

	// Config is the configuration surface the orchestrator consumes.
	Config interface {
		Runtime() string
	}

	// The Orchestrator manages bi-directional communication with
	// containers. It calls the containers of a job in order, passing each
	// container's output as the next container's input; the first failure
	// marks the job failed and aborts the remainder. Jobs are isolated from
	// one another and may run concurrently.
	Orchestrator struct {
		manager ContainerManager
		store   DataStore
		host    string
		lggr    *logger.Logger
	}
)

// NewOrchestrator creates a new Orchestrator. The container host is
// resolved once here: the Docker gateway alias when running containerized,
// localhost otherwise.
func NewOrchestrator(manager ContainerManager, store DataStore, config Config, lggr *logger.Logger) *Orchestrator {
	return &Orchestrator{
		manager: manager,
		store:   store,
		host:    hostFromRuntime(config.Runtime()),
		lggr:    lggr.Named("Orchestrator"),
	}
}

func hostFromRuntime(runtime string) string {
	if runtime == "docker" {
		return dockerHost
	}
	return localHost
}

// ProcessChainProcessorJob processes a job dispatched by the chain
// processor. Status is tracked per container only; on-chain jobs have no
// off-chain record to update.
func (o *Orchestrator) ProcessChainProcessorJob(
	ctx context.Context,
	jobID interface{},
	jobInput models.JobInput,
	containers []string,
	requiresProof bool,
) ([]models.ContainerResult, error) {
	return o.runJob(ctx, jobID, jobInput, containers, nil, requiresProof)
}

// ProcessOffchainJob processes a job message received through the node's
// off-chain API.
func (o *Orchestrator) ProcessOffchainJob(ctx context.Context, msg models.OffchainJobMessage) error {
	_, err := o.runJob(
		ctx,
		msg.ID,
		models.JobInput{
			Source:      models.JobLocationOffchain,
			Destination: models.JobLocationOffchain,
			Data:        msg.Data,
		},
		msg.Containers,
		&msg,
		msg.RequiresProof,
	)
	return err
}

// runJob calls the job's containers in order, threading each container's
// output into the next container's input. The first container failure
// marks the job failed and aborts the remainder; results accumulated
// before the failure are preserved. An error return means a precondition
// violation (empty container list, unknown container), not a container
// failure.
func (o *Orchestrator) runJob(
	ctx context.Context,
	jobID interface{},
	jobInput models.JobInput,
	containers []string,
	msg *models.OffchainJobMessage,
	requiresProof bool,
) ([]models.ContainerResult, error) {
	if len(containers) == 0 {
		return nil, errors.New("no containers specified")
	}

	o.store.SetRunning(msg)

	results := make([]models.ContainerResult, 0, len(containers))

	input := models.ContainerInput{
		Source:        jobInput.Source,
		Destination:   chainDestination(jobInput.Destination, 0, len(containers)),
		Data:          jobInput.Data,
		RequiresProof: requiresProof,
	}

	// Each invocation owns its own client; sessions are never shared
	// across jobs.
	client := &http.Client{Timeout: serviceOutputTimeout}

	for i, container := range containers {
		port, err := o.manager.GetPort(container)
		if err != nil {
			return results, errors.Wrapf(err, "resolving port for container %s", container)
		}
		url := fmt.Sprintf("http://%s:%d/service_output", o.host, port)

		output, err := o.invokeContainer(ctx, client, url, input)
		if err != nil {
			results = append(results, models.ContainerError{Container: container, Error: err.Error()})
			o.lggr.Errorw("Container error", "id", jobID, "container", container, "err", err.Error())

			o.store.SetFailed(msg, results)
			o.store.TrackContainerStatus(container, ContainerStatusFailed)
			promJobsProcessed.WithLabelValues(string(ContainerStatusFailed)).Inc()
			return results, nil
		}

		results = append(results, models.ContainerOutput{Container: container, Output: output})
		o.store.TrackContainerStatus(container, ContainerStatusSuccess)

		input = models.ContainerInput{
			Source:        models.JobLocationOffchain,
			Destination:   chainDestination(jobInput.Destination, i+1, len(containers)),
			Data:          output,
			RequiresProof: requiresProof,
		}
	}

	o.store.SetSuccess(msg, results)
	promJobsProcessed.WithLabelValues(string(ContainerStatusSuccess)).Inc()
	return results, nil
}

// chainDestination returns the destination for the container at the given
// position in a chain: only the final container delivers to the job
// destination, every upstream hop hands off off-chain.
func chainDestination(jobDestination models.JobLocation, position, total int) models.JobLocation {
	if position == total-1 {
		return jobDestination
	}
	return models.JobLocationOffchain
}

// invokeContainer POSTs the input to a container's service_output endpoint
// and parses the JSON response. The returned error carries the container's
// diagnostic: the raw body text for non-2xx or non-JSON responses, the
// transport error otherwise.
func (o *Orchestrator) invokeContainer(
	ctx context.Context,
	client *http.Client,
	url string,
	input models.ContainerInput,
) (map[string]interface{}, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New(string(raw))
	}
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsObject() {
		// A non-JSON body is the container's error text.
		return nil, errors.New(string(raw))
	}

	var output map[string]interface{}
	if err := json.Unmarshal(raw, &output); err != nil {
		return nil, errors.New(string(raw))
	}
	return output, nil
}
