package orchestrator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	uuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcieric/infernet-node/core/logger"
	"github.com/mcieric/infernet-node/core/services/orchestrator"
	omocks "github.com/mcieric/infernet-node/core/services/orchestrator/mocks"
	"github.com/mcieric/infernet-node/core/store/models"
)

type testConfig struct {
	runtime string
}

func (c testConfig) Runtime() string { return c.runtime }

// testMocks defines the mock collaborators used by the orchestrator
type testMocks struct {
	manager *omocks.ContainerManager
	store   *omocks.DataStore
}

func setupMocks(t *testing.T) *testMocks {
	t.Helper()

	tm := &testMocks{
		manager: new(omocks.ContainerManager),
		store:   new(omocks.DataStore),
	}
	t.Cleanup(func() {
		tm.manager.AssertExpectations(t)
		tm.store.AssertExpectations(t)
	})
	return tm
}

func setup(t *testing.T) (*orchestrator.Orchestrator, *testMocks) {
	t.Helper()

	tm := setupMocks(t)
	o := orchestrator.NewOrchestrator(tm.manager, tm.store, testConfig{}, logger.CreateTestLogger())
	return o, tm
}

// newFakeContainer starts an HTTP service standing in for a compute
// container and registers its port with the manager mock.
func newFakeContainer(t *testing.T, tm *testMocks, name string, handler gin.HandlerFunc) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/service_output", handler)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	tm.manager.On("GetPort", name).Return(serverPort(t, server), nil)
}

func serverPort(t *testing.T, server *httptest.Server) int {
	t.Helper()

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}

// storeEvents records the order of data store calls
type storeEvents struct {
	mu     sync.Mutex
	events []string
}

func (se *storeEvents) record(event string) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.events = append(se.events, event)
}

func (se *storeEvents) snapshot() []string {
	se.mu.Lock()
	defer se.mu.Unlock()
	return append([]string(nil), se.events...)
}

func recordStore(tm *testMocks) *storeEvents {
	se := new(storeEvents)
	tm.store.On("SetRunning", mock.Anything).Run(func(mock.Arguments) {
		se.record("running")
	}).Maybe()
	tm.store.On("SetSuccess", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		se.record("success")
	}).Maybe()
	tm.store.On("SetFailed", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		se.record("failed")
	}).Maybe()
	tm.store.On("TrackContainerStatus", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		se.record("container:" + args.String(0) + ":" + string(args.Get(1).(orchestrator.ContainerStatus)))
	}).Maybe()
	return se
}

func TestOrchestrator_TwoContainerJobSuccess(t *testing.T) {
	o, tm := setup(t)
	events := recordStore(tm)

	var (
		mu    sync.Mutex
		seenB models.ContainerInput
	)

	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"x": 1})
	})
	newFakeContainer(t, tm, "B", func(c *gin.Context) {
		var input models.ContainerInput
		require.NoError(t, c.BindJSON(&input))
		mu.Lock()
		seenB = input
		mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"y": 2})
	})

	jobInput := models.JobInput{
		Source:      models.JobLocationOnchain,
		Destination: models.JobLocationOnchain,
		Data:        map[string]interface{}{"prompt": "hello"},
	}

	results, err := o.ProcessChainProcessorJob(context.Background(), 1, jobInput, []string{"A", "B"}, true)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, models.ContainerOutput{Container: "A", Output: map[string]interface{}{"x": float64(1)}}, results[0])
	assert.Equal(t, models.ContainerOutput{Container: "B", Output: map[string]interface{}{"y": float64(2)}}, results[1])

	// B sees A's output as its input, handed off off-chain, delivered to
	// the job destination.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, models.JobLocationOffchain, seenB.Source)
	assert.Equal(t, models.JobLocationOnchain, seenB.Destination)
	assert.Equal(t, map[string]interface{}{"x": float64(1)}, seenB.Data)
	assert.True(t, seenB.RequiresProof)

	assert.Equal(t, []string{
		"running",
		"container:A:success",
		"container:B:success",
		"success",
	}, events.snapshot())
}

func TestOrchestrator_SingleContainerKeepsJobDestination(t *testing.T) {
	o, tm := setup(t)
	recordStore(tm)

	var (
		mu   sync.Mutex
		seen models.ContainerInput
	)
	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		var input models.ContainerInput
		require.NoError(t, c.BindJSON(&input))
		mu.Lock()
		seen = input
		mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	jobInput := models.JobInput{
		Source:      models.JobLocationOnchain,
		Destination: models.JobLocationOnchain,
		Data:        "data",
	}

	_, err := o.ProcessChainProcessorJob(context.Background(), 1, jobInput, []string{"A"}, false)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, models.JobLocationOnchain, seen.Source)
	assert.Equal(t, models.JobLocationOnchain, seen.Destination)
}

func TestOrchestrator_MidChainFailureAbortsRemainder(t *testing.T) {
	o, tm := setup(t)
	events := recordStore(tm)

	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"x": 1})
	})
	newFakeContainer(t, tm, "B", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "overload")
	})

	jobInput := models.JobInput{
		Source:      models.JobLocationOffchain,
		Destination: models.JobLocationOffchain,
	}

	results, err := o.ProcessChainProcessorJob(context.Background(), 7, jobInput, []string{"A", "B", "C"}, false)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, models.ContainerOutput{Container: "A", Output: map[string]interface{}{"x": float64(1)}}, results[0])
	assert.Equal(t, models.ContainerError{Container: "B", Error: "overload"}, results[1])

	// C's port is never even resolved.
	tm.manager.AssertNotCalled(t, "GetPort", "C")

	assert.Equal(t, []string{
		"running",
		"container:A:success",
		"failed",
		"container:B:failed",
	}, events.snapshot())
}

func TestOrchestrator_NonJSONResponseFailsJob(t *testing.T) {
	o, tm := setup(t)
	recordStore(tm)

	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		c.String(http.StatusOK, "gibberish output")
	})

	results, err := o.ProcessChainProcessorJob(
		context.Background(),
		1,
		models.JobInput{Source: models.JobLocationOffchain, Destination: models.JobLocationOffchain},
		[]string{"A"},
		false,
	)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, models.ContainerError{Container: "A", Error: "gibberish output"}, results[0])
}

func TestOrchestrator_ConnectionFailureFailsJob(t *testing.T) {
	o, tm := setup(t)
	recordStore(tm)

	// A port with nothing listening on it.
	tm.manager.On("GetPort", "A").Return(1, nil)

	results, err := o.ProcessChainProcessorJob(
		context.Background(),
		1,
		models.JobInput{Source: models.JobLocationOffchain, Destination: models.JobLocationOffchain},
		[]string{"A"},
		false,
	)
	require.NoError(t, err)

	require.Len(t, results, 1)
	result, ok := results[0].(models.ContainerError)
	require.True(t, ok)
	assert.Equal(t, "A", result.ContainerID())
	assert.NotEmpty(t, result.Error)
}

func TestOrchestrator_EmptyContainerListFailsFast(t *testing.T) {
	o, tm := setup(t)

	_, err := o.ProcessChainProcessorJob(
		context.Background(),
		1,
		models.JobInput{},
		nil,
		false,
	)
	require.Error(t, err)
	tm.store.AssertNotCalled(t, "SetRunning", mock.Anything)
}

func TestOrchestrator_ProcessOffchainJob(t *testing.T) {
	o, tm := setup(t)

	msg := models.OffchainJobMessage{
		ID:         uuid.New(),
		Containers: []string{"A"},
		Data:       map[string]interface{}{"prompt": "hi"},
	}

	var (
		mu   sync.Mutex
		seen models.ContainerInput
	)
	newFakeContainer(t, tm, "A", func(c *gin.Context) {
		var input models.ContainerInput
		require.NoError(t, c.BindJSON(&input))
		mu.Lock()
		seen = input
		mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	tm.store.On("SetRunning", &msg).Once()
	tm.store.On("TrackContainerStatus", "A", orchestrator.ContainerStatusSuccess).Once()
	tm.store.On("SetSuccess", &msg, mock.Anything).Once()

	require.NoError(t, o.ProcessOffchainJob(context.Background(), msg))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, models.JobLocationOffchain, seen.Source)
	assert.Equal(t, models.JobLocationOffchain, seen.Destination)
	assert.Equal(t, map[string]interface{}{"prompt": "hi"}, seen.Data)
}
