package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mcieric/infernet-node/core/store/models"
)

// streamReadSize is the read buffer size for streaming responses. Chunks
// handed to the consumer are at most this large.
const streamReadSize = 4096

// ProcessStreamingJob runs a streaming job against the first container of
// the message; additional containers are tolerated and ignored, streaming
// jobs do not chain.
//
// Each chunk read from the container is handed to yield before the next
// read, so the consumer's consumption rate gates the producer. On
// completion the concatenated output is stored as the job result. An empty
// container list or an unresolvable port is returned as an error without
// touching the data store; once the job is marked running, any failure
// marks the job failed and the error is returned to the consumer.
func (o *Orchestrator) ProcessStreamingJob(ctx context.Context, msg models.OffchainJobMessage, yield func(chunk []byte) error) error {
	if len(msg.Containers) == 0 {
		return errors.New("no containers specified")
	}
	container := msg.Containers[0]

	port, err := o.manager.GetPort(container)
	if err != nil {
		return errors.Wrapf(err, "resolving port for container %s", container)
	}
	url := fmt.Sprintf("http://%s:%d/service_output", o.host, port)

	o.store.SetRunning(&msg)

	// Chunks are buffered so the full output can be stored once the stream
	// completes.
	var buf bytes.Buffer
	err = o.streamContainer(ctx, url, msg.Data, &buf, yield)
	if err != nil {
		o.lggr.Errorw("Container error", "id", msg.ID, "container", container, "err", err.Error())
		o.store.SetFailed(&msg, []models.ContainerResult{
			models.ContainerError{Container: container, Error: err.Error()},
		})
		o.store.TrackContainerStatus(container, ContainerStatusFailed)
		promJobsProcessed.WithLabelValues(string(ContainerStatusFailed)).Inc()
		return err
	}

	o.store.SetSuccess(&msg, []models.ContainerResult{
		models.ContainerOutput{
			Container: container,
			Output:    map[string]interface{}{"output": buf.String()},
		},
	})
	o.store.TrackContainerStatus(container, ContainerStatusSuccess)
	promJobsProcessed.WithLabelValues(string(ContainerStatusSuccess)).Inc()
	return nil
}

func (o *Orchestrator) streamContainer(ctx context.Context, url string, data interface{}, buf *bytes.Buffer, yield func(chunk []byte) error) error {
	input := models.JobInput{
		Source:      models.JobLocationOffchain,
		Destination: models.JobLocationStream,
		Data:        data,
	}
	body, err := json.Marshal(input)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: serviceOutputTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("container returned status %d", resp.StatusCode)
	}

	chunk := make([]byte, streamReadSize)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			// Copy before yielding; the read buffer is reused.
			out := make([]byte, n)
			copy(out, chunk[:n])
			if err := yield(out); err != nil {
				return err
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
