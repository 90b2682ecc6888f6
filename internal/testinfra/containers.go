//go:build integration

// Package testinfra starts throwaway MongoDB and Redis containers for the
// integration tests.
package testinfra

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if Docker daemon is running and accessible.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// Endpoint is a started container and the host:port it listens on.
type Endpoint struct {
	Container testcontainers.Container
	Address   string
}

// StartMongo starts a single-node MongoDB and returns its connection URI.
func StartMongo(t *testing.T, ctx context.Context) string {
	t.Helper()
	ep := start(t, ctx, "mongo:7.0", "27017/tcp", "Waiting for connections")
	return "mongodb://" + ep.Address
}

// StartRedis starts Redis and returns host:port.
func StartRedis(t *testing.T, ctx context.Context) string {
	t.Helper()
	ep := start(t, ctx, "redis:7-alpine", "6379/tcp", "Ready to accept connections")
	return ep.Address
}

func start(t *testing.T, ctx context.Context, image, port, readyLog string) *Endpoint {
	t.Helper()
	SkipIfNoDocker(t)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{port},
			WaitingFor:   wait.ForLog(readyLog).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s: %v", image, err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	// the container exposes a single port
	address, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to resolve container endpoint: %v", err)
	}

	return &Endpoint{Container: container, Address: address}
}
