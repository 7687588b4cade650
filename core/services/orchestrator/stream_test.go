package orchestrator_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcieric/infernet-node/core/services/orchestrator"
	"github.com/mcieric/infernet-node/core/store/models"
)

func TestOrchestrator_StreamingJob(t *testing.T) {
	o, tm := setup(t)

	var (
		mu   sync.Mutex
		seen models.JobInput
	)
	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		mu.Lock()
		defer mu.Unlock()
		require.NoError(t, c.BindJSON(&seen))
		c.Status(http.StatusOK)
		_, _ = c.Writer.WriteString("hel")
		c.Writer.Flush()
		_, _ = c.Writer.WriteString("lo")
		c.Writer.Flush()
	})

	msg := models.OffchainJobMessage{
		ID:         uuid.New(),
		Containers: []string{"A"},
		Data:       "prompt",
	}

	var stored []models.ContainerResult
	tm.store.On("SetRunning", mock.Anything).Once()
	tm.store.On("SetSuccess", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]models.ContainerResult)
		}).
		Once()
	tm.store.On("TrackContainerStatus", "A", orchestrator.ContainerStatusSuccess).Once()

	var chunks []string
	err := o.ProcessStreamingJob(context.Background(), msg, func(chunk []byte) error {
		chunks = append(chunks, string(chunk))
		return nil
	})
	require.NoError(t, err)

	// Chunk boundaries depend on network buffering, but ordering and
	// content are guaranteed.
	assert.Equal(t, "hello", strings.Join(chunks, ""))
	assert.NotEmpty(t, chunks)

	require.Len(t, stored, 1)
	assert.Equal(t, models.ContainerOutput{
		Container: "A",
		Output:    map[string]interface{}{"output": "hello"},
	}, stored[0])

	// Streaming requests are marked for stream delivery.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, models.JobLocationOffchain, seen.Source)
	assert.Equal(t, models.JobLocationStream, seen.Destination)
	assert.Equal(t, "prompt", seen.Data)
}

func TestOrchestrator_StreamingJobIgnoresExtraContainers(t *testing.T) {
	o, tm := setup(t)

	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		c.Status(http.StatusOK)
		_, _ = c.Writer.WriteString("only A")
	})

	msg := models.OffchainJobMessage{
		ID:         uuid.New(),
		Containers: []string{"A", "B"},
	}

	tm.store.On("SetRunning", mock.Anything).Once()
	tm.store.On("SetSuccess", mock.Anything, mock.Anything).Once()
	tm.store.On("TrackContainerStatus", "A", orchestrator.ContainerStatusSuccess).Once()

	err := o.ProcessStreamingJob(context.Background(), msg, func([]byte) error { return nil })
	require.NoError(t, err)

	tm.manager.AssertNotCalled(t, "GetPort", "B")
}

func TestOrchestrator_StreamingJobFailurePropagates(t *testing.T) {
	o, tm := setup(t)

	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		c.String(http.StatusServiceUnavailable, "no capacity")
	})

	msg := models.OffchainJobMessage{
		ID:         uuid.New(),
		Containers: []string{"A"},
	}

	var stored []models.ContainerResult
	tm.store.On("SetRunning", mock.Anything).Once()
	tm.store.On("SetFailed", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).([]models.ContainerResult)
		}).
		Once()
	tm.store.On("TrackContainerStatus", "A", orchestrator.ContainerStatusFailed).Once()

	err := o.ProcessStreamingJob(context.Background(), msg, func([]byte) error {
		t.Fatal("no chunks expected from a failed stream")
		return nil
	})
	require.Error(t, err)

	require.Len(t, stored, 1)
	result, ok := stored[0].(models.ContainerError)
	require.True(t, ok)
	assert.Equal(t, "A", result.ContainerID())
}
