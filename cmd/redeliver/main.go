// redeliver scans the dispatch log for failed notification deliveries and
// re-attempts them once. It is an operator tool: the service itself never
// retries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/bugboard/api/internal/config"
	"github.com/bugboard/api/internal/model"
	"github.com/bugboard/api/internal/notify"
	"github.com/samber/lo"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	since := flag.Duration("since", 24*time.Hour, "Only consider dispatches newer than this")
	dryRun := flag.Bool("dry-run", false, "List failed deliveries without re-sending")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-recipient send timeout")
	flag.Parse()

	cfg := config.Load()
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cutoff := time.Now().Add(-*since)

	var records []model.DispatchRecord
	if err := db.Where("created_at > ?", cutoff).Order("created_at").Find(&records).Error; err != nil {
		log.Fatalf("Failed to load dispatch records: %v", err)
	}

	failed := lo.Filter(records, func(r model.DispatchRecord, _ int) bool {
		return len(r.FailedRecipients()) > 0
	})

	log.Printf("Scanned %d dispatch records since %s, %d with failures",
		len(records), cutoff.Format(time.RFC3339), len(failed))

	if len(failed) == 0 {
		return
	}

	transport := notify.NewSMTPTransport(cfg)
	ctx := context.Background()

	resent := 0
	stillFailing := 0

	for _, rec := range failed {
		for _, recipient := range rec.FailedRecipients() {
			if *dryRun {
				log.Printf("[dry-run] would resend bug #%d %s to %s", rec.BugID, rec.Event, recipient)
				continue
			}

			sendCtx, cancel := context.WithTimeout(ctx, *timeout)
			err := transport.Send(sendCtx, recipient, rec.Subject, redeliveryBody(rec))
			cancel()

			if err != nil {
				log.Printf("Resend to %s failed for bug #%d: %v", recipient, rec.BugID, err)
				stillFailing++
				continue
			}
			resent++
		}
	}

	if !*dryRun {
		log.Printf("Redelivery complete. Resent: %d, still failing: %d", resent, stillFailing)
	}
}

func redeliveryBody(rec model.DispatchRecord) string {
	if rec.Event == model.EventBugClosed {
		return fmt.Sprintf("Bug #%d has been closed.", rec.BugID)
	}
	return fmt.Sprintf("Bug #%d has been moved to status %q.", rec.BugID, rec.Status)
}
