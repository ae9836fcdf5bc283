package logger

import (
	"testing"
	"time"

	"puja-booking/types"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestAsyncLogger_DrainsOnClose(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=puja dbname=puja sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	l := NewAsyncLogger(db)
	go l.ProcessLog()
	for i := 0; i < 10; i++ {
		l.Log(types.LogEntry{Method: "GET", URL: "/healthz", StatusCode: 200, CreatedAt: time.Now()})
	}

	done := make(chan struct{})
	go func() {
		l.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	if len(l.channel) != 0 {
		t.Fatalf("%d entries left unwritten", len(l.channel))
	}

	// late entries and a second Close are ignored
	l.Log(types.LogEntry{Method: "GET", URL: "/late"})
	l.Close()
}
