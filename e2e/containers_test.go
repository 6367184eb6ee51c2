package e2e_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	minioImage     = "minio/minio:RELEASE.2025-04-22T22-12-26Z"
	minioAccessKey = "minioadmin"
	minioSecretKey = "minioadmin123"
)

var (
	containersMu sync.Mutex
	containers   []testcontainers.Container

	minioOnce     sync.Once
	minioEndpoint string
	minioErr      error

	postgresOnce sync.Once
	postgresDSN  string
	postgresErr  error
)

func track(c testcontainers.Container) {
	containersMu.Lock()
	defer containersMu.Unlock()
	containers = append(containers, c)
}

func stopSharedContainers() {
	containersMu.Lock()
	defer containersMu.Unlock()
	for _, c := range containers {
		_ = testcontainers.TerminateContainer(c)
	}
	containers = nil
}

// getSharedMinIO starts one MinIO container per test run and returns its
// host:port endpoint.
func getSharedMinIO(t *testing.T) string {
	t.Helper()

	minioOnce.Do(func() {
		ctx := context.Background()

		c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        minioImage,
				ExposedPorts: []string{"9000/tcp"},
				Env: map[string]string{
					"MINIO_ROOT_USER":     minioAccessKey,
					"MINIO_ROOT_PASSWORD": minioSecretKey,
				},
				Cmd:        []string{"server", "/data"},
				WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp"),
			},
			Started: true,
		})
		if err != nil {
			minioErr = fmt.Errorf("start minio container: %w", err)
			return
		}
		track(c)

		host, err := c.Host(ctx)
		if err != nil {
			minioErr = fmt.Errorf("minio host: %w", err)
			return
		}

		port, err := c.MappedPort(ctx, "9000/tcp")
		if err != nil {
			minioErr = fmt.Errorf("minio port: %w", err)
			return
		}

		minioEndpoint = fmt.Sprintf("%s:%s", host, port.Port())
	})

	if minioErr != nil {
		t.Fatalf("%v", minioErr)
	}
	return minioEndpoint
}

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by every test in the run.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	postgresOnce.Do(func() {
		ctx := context.Background()

		pg, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("testdb"),
			pgcontainer.WithUsername("testuser"),
			pgcontainer.WithPassword("testpass"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			postgresErr = fmt.Errorf("start postgres container: %w", err)
			return
		}
		track(pg)

		postgresDSN, postgresErr = pg.ConnectionString(ctx, "sslmode=disable")
	})

	if postgresErr != nil {
		t.Fatalf("%v", postgresErr)
	}
	return postgresDSN
}
