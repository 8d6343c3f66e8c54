package service_test

import (
	"auth-session-server/config"
	"auth-session-server/internal/service"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Service_LocalRequiresCredentials(t *testing.T) {
	svc, err := service.NewS3Service(context.Background(), &config.S3Config{
		Bucket:   "audit",
		Region:   "us-east-1",
		Endpoint: "http://127.0.0.1:1",
		Local:    true,
	})

	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "access_key")
}
