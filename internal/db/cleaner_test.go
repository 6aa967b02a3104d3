package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const purgeQuery = `DELETE FROM recipients WHERE deleted = true AND removed_at < $1`

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newPurger(t *testing.T, log *zap.Logger) (*RecipientPurger, sqlmock.Sqlmock) {
	t.Helper()
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { dbMock.Close() })

	p := NewRecipientPurger(dbMock, 24*time.Hour, log)
	p.Now = func() time.Time { return fixedNow }
	return p, mock
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPurge_ReturnsCount(t *testing.T) {
	p, mock := newPurger(t, nil)

	mock.ExpectExec(regexp.QuoteMeta(purgeQuery)).
		WithArgs(fixedNow.Add(-24 * time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := p.Purge(context.Background())
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 3 {
		t.Errorf("Purge = %d; want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPurge_Error(t *testing.T) {
	p, mock := newPurger(t, nil)

	wantErr := errors.New("db fail")
	mock.ExpectExec(regexp.QuoteMeta(purgeQuery)).WillReturnError(wantErr)

	if _, err := p.Purge(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Purge error = %v; want %v", err, wantErr)
	}
}

func TestRun_LogsEachOutcome(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p, mock := newPurger(t, zap.New(core))

	mock.ExpectExec(regexp.QuoteMeta(purgeQuery)).WillReturnError(errors.New("db fail"))
	mock.ExpectExec(regexp.QuoteMeta(purgeQuery)).WillReturnResult(sqlmock.NewResult(0, 2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	waitFor(t, func() bool {
		return logs.FilterMessage("purged removed recipients").Len() > 0
	})
	cancel()
	<-done

	if logs.FilterMessage("failed to purge removed recipients").Len() == 0 {
		t.Errorf("error log missing: %v", logs.All())
	}
	entry := logs.FilterMessage("purged removed recipients").All()[0]
	if got := entry.ContextMap()["count"]; got != int64(2) {
		t.Errorf("count = %v; want 2", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	p, mock := newPurger(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		p.Run(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected sql calls: %v", err)
	}
}
