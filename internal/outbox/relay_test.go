package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakePublisher struct {
	err       error
	published []string
}

func (f *fakePublisher) PublishMessage(_ context.Context, exchange, routingKey string, _ []byte, _ bool) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, exchange+"/"+routingKey)
	return nil
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	return gdb, mock
}

var outboxColumns = []string{"id", "aggregate_id", "event_type", "payload", "target_exchange", "target_routing_key", "status", "retry_count", "created_at"}

func TestProcessPendingMessagesEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	relay := NewMessageRelay(db, &fakePublisher{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `outbox_messages`").WillReturnRows(sqlmock.NewRows(outboxColumns))
	mock.ExpectCommit()

	n, err := relay.ProcessPendingMessages(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPendingMessagesPublishes(t *testing.T) {
	db, mock := newMockDB(t)
	pub := &fakePublisher{}
	relay := NewMessageRelay(db, pub, WithBatchSize(5))

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `outbox_messages`").WillReturnRows(sqlmock.NewRows(outboxColumns).
		AddRow(1, "run-1", "evaluation.run.finished", `{"run_id":"run-1"}`, "progress_exchange", "run.succeeded", "PENDING", 0, time.Now()))
	mock.ExpectExec("UPDATE `outbox_messages`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := relay.ProcessPendingMessages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"progress_exchange/run.succeeded"}, pub.published)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPendingMessagesPublishFailureKeepsPending(t *testing.T) {
	db, mock := newMockDB(t)
	relay := NewMessageRelay(db, &fakePublisher{err: errors.New("channel closed")})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `outbox_messages`").WillReturnRows(sqlmock.NewRows(outboxColumns).
		AddRow(2, "run-2", "evaluation.run.finished", `{}`, "progress_exchange", "run.failed", "PENDING", 1, time.Now()))
	mock.ExpectExec("UPDATE `outbox_messages` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := relay.ProcessPendingMessages(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
