package eventlog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"landcycle/internal/ecosim/eventlog"
)

// TestLog_AppendAndQuery exercises the event log against a real MongoDB
// instance, standing up a disposable container rather than mocking the
// driver.
func TestLog_AppendAndQuery(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Skipping integration test: docker unavailable: %v", err)
		return
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)
	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(ctx) })
	require.NoError(t, client.Ping(ctx, nil))

	db := client.Database("ecosim_test")
	log := eventlog.NewLog(db)

	entries := []eventlog.Entry{
		{Scenario: "ridge-1", Year: 1, Kind: "lightning", CellX: 2, CellY: 2, Timestamp: time.Now()},
		{Scenario: "ridge-1", Year: 1, Kind: "wind", CellX: 3, CellY: 3, Cascaded: true, Timestamp: time.Now()},
		{Scenario: "ridge-1", Year: 2, Kind: "lightning", CellX: 4, CellY: 1, Timestamp: time.Now()},
	}
	require.NoError(t, log.AppendBatch(ctx, entries))

	all, err := log.ForScenario(ctx, "ridge-1")
	require.NoError(t, err)
	require.Len(t, all, 3)

	yearOne, err := log.ForYearRange(ctx, "ridge-1", 1, 1)
	require.NoError(t, err)
	require.Len(t, yearOne, 2)

	lightningOnly, err := log.ForKind(ctx, "ridge-1", "lightning", 10)
	require.NoError(t, err)
	require.Len(t, lightningOnly, 2)

	counts, err := log.CountByKind(ctx, "ridge-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), counts["lightning"])
	require.Equal(t, int64(1), counts["wind"])
}
