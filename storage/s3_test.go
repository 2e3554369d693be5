package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageServiceRequiresBucket(t *testing.T) {
	_, err := NewStorageService(context.Background(), Options{Region: "ap-south-1"})
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	svc, err := NewStorageService(context.Background(), Options{
		Region:          "ap-south-1",
		Bucket:          "fee-reports",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://fee-reports.s3.amazonaws.com/reports/2024/02/a.xlsx", svc.URL("/reports/2024/02/a.xlsx"))
}
