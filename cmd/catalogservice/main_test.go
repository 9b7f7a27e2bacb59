package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"catalog-service/internal/config"
	"catalog-service/internal/store"
	"catalog-service/pkg/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func memoryStores(closed *atomic.Bool) *stores {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &stores{
		titles:   store.NewMemoryTitleStore(logger),
		accounts: store.NewMemoryAccountStore(auth.NewBcryptHasher(bcrypt.MinCost), logger),
		closer: func(context.Context) error {
			closed.Store(true)
			return nil
		},
	}
}

// busyPort holds a listener on every interface and returns its port.
func busyPort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = lis.Close() })
	return strconv.Itoa(lis.Addr().(*net.TCPAddr).Port)
}

func testConfig(httpPort string, grpcEnabled bool, grpcPort string) *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Port: httpPort, ShutdownTimeout: time.Second},
		GRPC: config.GRPCConfig{Enable: grpcEnabled, Port: grpcPort},
	}
}

func TestServe_GRPCListenFailureClosesStore(t *testing.T) {
	var closed atomic.Bool
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := serve(context.Background(), testConfig("0", true, busyPort(t)), memoryStores(&closed), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen for gRPC")
	assert.True(t, closed.Load())
}

func TestServe_HTTPListenFailureShutsDown(t *testing.T) {
	var closed atomic.Bool
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := serve(context.Background(), testConfig(busyPort(t), true, "0"), memoryStores(&closed), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server")
	assert.True(t, closed.Load())
}

func TestServe_StopsWhenContextIsDone(t *testing.T) {
	var closed atomic.Bool
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, serve(ctx, testConfig("0", true, "0"), memoryStores(&closed), logger))
	assert.True(t, closed.Load())
}
