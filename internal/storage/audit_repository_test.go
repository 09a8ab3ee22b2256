package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"ats-evaluator/internal/processor"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockMySQL(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	m, err := NewMySQLWithDB(gdb, "ats_test")
	require.NoError(t, err)
	return m, mock
}

func sampleRecord() processor.RunRecord {
	return processor.RunRecord{
		RunID:          "0190c9a4-7b1e-7cc2-9a51-2f4d1c3b5e6f",
		JDHash:         "5d41402abc4b2a76b9719d911017c592ae3b1f7b5d41402abc4b2a76b9719d91",
		DocumentCount:  3,
		ApplicantCount: 2,
		Status:         processor.RunStatusSucceeded,
		StartedAt:      time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
		Duration:       42 * time.Second,
		StageDurations: map[string]time.Duration{processor.StageKeywords: time.Second},
	}
}

func TestAuditRepositoryRecordRunWithOutbox(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))

	m, mock := newMockMySQL(t)
	repo := NewAuditRepository(m, "progress_exchange")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `evaluation_runs`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `outbox_messages`").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RecordRun(context.Background(), sampleRecord()))
	assert.NoError(t, mock.ExpectationsWereMet())

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Contains(t, names, "INSERT evaluation_runs")
	assert.Contains(t, names, "INSERT outbox_messages")
}

func TestAuditRepositoryRecordRunWithoutExchange(t *testing.T) {
	m, mock := newMockMySQL(t)
	repo := NewAuditRepository(m, "")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `evaluation_runs`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.RecordRun(context.Background(), sampleRecord()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryRollsBackOnError(t *testing.T) {
	m, mock := newMockMySQL(t)
	repo := NewAuditRepository(m, "progress_exchange")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `evaluation_runs`").WillReturnError(errors.New("duplicate entry"))
	mock.ExpectRollback()

	err := repo.RecordRun(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}
