//go:build integration

package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"joa_realtime/pkg/config"
	"joa_realtime/pkg/database"
	"joa_realtime/pkg/logger"
	testtool "joa_realtime/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestImageRepository_PresignAgainstMinIO(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	// **啟動 MinIO**
	container, host, port, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		Cmd:        []string{"server", "/data"},
		WaitingFor: wait.ForHTTP("/minio/health/ready").WithPort("9000/tcp"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	cfg := config.ImageStoreConfig{
		Endpoint:      fmt.Sprintf("%s:%s", host, port),
		AccessKey:     "minioadmin",
		SecretKey:     "minioadmin",
		Bucket:        "joa-profile",
		Region:        "us-east-1",
		PresignExpiry: time.Minute,
		DefaultImage:  "me.png",
	}
	store, err := database.NewMinIOConnection(ctx, database.MinIOConnection{
		Endpoint:      cfg.Endpoint,
		User:          cfg.AccessKey,
		Password:      cfg.SecretKey,
		BucketName:    cfg.Bucket,
		Region:        cfg.Region,
		RetryCount:    5,
		RetryInterval: time.Second,
	})
	require.NoError(t, err)

	body := "png-bytes"
	require.NoError(t, store.PutObject(ctx, "me.png", strings.NewReader(body), int64(len(body)), "image/png"))

	repo := NewImageRepository(store, cfg)
	u, err := repo.ResolveURL(ctx, "")
	require.NoError(t, err)

	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, body, string(got))
}
