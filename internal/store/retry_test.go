package store_test

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
)

const insertRetryStm = "INSERT INTO retry_queue_entries (item_id, item_type, feedback_id, status, retry_count, max_retries, scheduled_at, created_at) VALUES ('%s', '%s', '%s', '%s', %d, 3, '%s', CURRENT_TIMESTAMP);"

var _ = Describe("retry store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.Migrate()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from retry_queue_entries;")
	})

	sqlTime := func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04:05")
	}

	Context("max retry count", func() {
		It("is 0 with no entries", func() {
			used, err := s.Retry().MaxRetryCount(context.TODO(), uuid.New(), model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(used).To(Equal(0))
		})

		It("returns the highest retry_count for the item", func() {
			itemID := uuid.New()
			for i := 1; i <= 3; i++ {
				tx := gormdb.Exec(fmt.Sprintf(insertRetryStm, itemID, model.ItemTypeUtterance, uuid.New(), model.RetryStatusCompleted, i, sqlTime(time.Now())))
				Expect(tx.Error).To(BeNil())
			}

			used, err := s.Retry().MaxRetryCount(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(used).To(Equal(3))
		})

		It("does not count another item's entries", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertRetryStm, uuid.New(), model.ItemTypeUtterance, uuid.New(), model.RetryStatusPending, 2, sqlTime(time.Now())))
			Expect(tx.Error).To(BeNil())

			used, err := s.Retry().MaxRetryCount(context.TODO(), uuid.New(), model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(used).To(Equal(0))
		})
	})

	Context("list due entries", func() {
		It("returns only pending entries scheduled in the past", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertRetryStm, itemID, model.ItemTypeUtterance, uuid.New(), model.RetryStatusPending, 1, sqlTime(time.Now().Add(-time.Minute))))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertRetryStm, itemID, model.ItemTypeUtterance, uuid.New(), model.RetryStatusPending, 2, sqlTime(time.Now().Add(time.Hour))))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertRetryStm, itemID, model.ItemTypeUtterance, uuid.New(), model.RetryStatusCompleted, 3, sqlTime(time.Now().Add(-time.Minute))))
			Expect(tx.Error).To(BeNil())

			due, err := s.Retry().List(context.TODO(), store.NewRetryQueryFilter().
				ByStatus(model.RetryStatusPending).
				DueBefore(time.Now()))
			Expect(err).To(BeNil())
			Expect(due).To(HaveLen(1))
			Expect(due[0].RetryCount).To(Equal(1))
		})
	})

	Context("update status", func() {
		It("claims a pending entry exactly once", func() {
			entry, err := s.Retry().Create(context.TODO(), model.RetryQueueEntry{
				ItemID:      uuid.New(),
				ItemType:    model.ItemTypeUtterance,
				FeedbackID:  uuid.New(),
				Status:      model.RetryStatusPending,
				RetryCount:  1,
				MaxRetries:  3,
				ScheduledAt: time.Now(),
			})
			Expect(err).To(BeNil())

			err = s.Retry().UpdateStatus(context.TODO(), entry.ID, model.RetryStatusPending, model.RetryStatusProcessing, nil)
			Expect(err).To(BeNil())

			// second claim loses
			err = s.Retry().UpdateStatus(context.TODO(), entry.ID, model.RetryStatusPending, model.RetryStatusProcessing, nil)
			Expect(err).To(Equal(store.ErrStaleRecord))
		})

		It("stamps processed_at on terminal statuses", func() {
			entry, err := s.Retry().Create(context.TODO(), model.RetryQueueEntry{
				ItemID:      uuid.New(),
				ItemType:    model.ItemTypeUtterance,
				FeedbackID:  uuid.New(),
				Status:      model.RetryStatusProcessing,
				RetryCount:  1,
				MaxRetries:  3,
				ScheduledAt: time.Now(),
			})
			Expect(err).To(BeNil())

			msg := "transformer unreachable"
			err = s.Retry().UpdateStatus(context.TODO(), entry.ID, model.RetryStatusProcessing, model.RetryStatusFailed, &msg)
			Expect(err).To(BeNil())

			got, err := s.Retry().Get(context.TODO(), entry.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(model.RetryStatusFailed))
			Expect(got.ProcessedAt).ToNot(BeNil())
			Expect(*got.ErrorMessage).To(Equal(msg))
		})
	})

	Context("count pending", func() {
		It("counts only pending entries", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertRetryStm, itemID, model.ItemTypeUtterance, uuid.New(), model.RetryStatusPending, 1, sqlTime(time.Now())))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertRetryStm, itemID, model.ItemTypeUtterance, uuid.New(), model.RetryStatusCompleted, 2, sqlTime(time.Now())))
			Expect(tx.Error).To(BeNil())

			count, err := s.Retry().CountPending(context.TODO())
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(1)))
		})
	})
})
