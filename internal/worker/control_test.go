// internal/worker/control_test.go
package worker

import (
	"context"
	"testing"

	"urpark-realtime/internal/common/database"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControl_SkipWaiting_PublishesEnvelope(t *testing.T) {
	db, mock := redismock.NewClientMock()
	control := NewControl(&database.RedisClient{Client: db}, testControlChannel)

	mock.ExpectPublish(testControlChannel, []byte(`{"type":"skipWaiting"}`)).SetVal(1)

	require.NoError(t, control.SkipWaiting(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestControl_SkipWaiting_PublishFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	control := NewControl(&database.RedisClient{Client: db}, testControlChannel)

	mock.ExpectPublish(testControlChannel, []byte(`{"type":"skipWaiting"}`)).SetErr(assert.AnError)

	assert.Error(t, control.SkipWaiting(context.Background()))
}
