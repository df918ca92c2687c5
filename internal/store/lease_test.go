package store_test

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/store"
)

var _ = Describe("lease store", Ordered, func() {
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
		gormdb.Exec("DELETE from work_leases;")
	})

	Context("acquire", func() {
		It("successfully acquires a free lease", func() {
			lease, err := s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(BeNil())
			Expect(lease.WorkID).To(Equal("utterance:item-1"))

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from work_leases;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(1))
		})

		It("fails to acquire a held lease", func() {
			_, err := s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(BeNil())

			_, err = s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(Equal(store.ErrDuplicateKey))
		})

		It("grants the lease to exactly one of many concurrent callers", func() {
			workers := 10
			wins := make(chan struct{}, workers)
			losses := make(chan struct{}, workers)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := s.Lease().Acquire(context.TODO(), "document:contended"); err == nil {
						wins <- struct{}{}
					} else {
						losses <- struct{}{}
					}
				}()
			}
			wg.Wait()

			Expect(wins).To(HaveLen(1))
			Expect(losses).To(HaveLen(workers - 1))
		})

		It("acquires independent work units independently", func() {
			_, err := s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(BeNil())
			_, err = s.Lease().Acquire(context.TODO(), "utterance:item-2")
			Expect(err).To(BeNil())
		})
	})

	Context("release", func() {
		It("successfully releases a held lease", func() {
			_, err := s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(BeNil())

			Expect(s.Lease().Release(context.TODO(), "utterance:item-1")).To(BeNil())

			count := 0
			Expect(gormdb.Raw("SELECT COUNT(*) from work_leases;").Scan(&count).Error).To(BeNil())
			Expect(count).To(Equal(0))
		})

		It("releases an unheld lease without error", func() {
			Expect(s.Lease().Release(context.TODO(), "utterance:ghost")).To(BeNil())
		})

		It("allows re-acquisition after release", func() {
			_, err := s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(BeNil())
			Expect(s.Lease().Release(context.TODO(), "utterance:item-1")).To(BeNil())

			_, err = s.Lease().Acquire(context.TODO(), "utterance:item-1")
			Expect(err).To(BeNil())
		})
	})

	Context("reclaim", func() {
		It("reclaims leases older than the staleness window", func() {
			_, err := s.Lease().Acquire(context.TODO(), "utterance:stale")
			Expect(err).To(BeNil())

			time.Sleep(10 * time.Millisecond)
			reclaimed, err := s.Lease().ReclaimStale(context.TODO(), time.Millisecond)
			Expect(err).To(BeNil())
			Expect(reclaimed).To(Equal(int64(1)))

			_, err = s.Lease().Acquire(context.TODO(), "utterance:stale")
			Expect(err).To(BeNil())
		})

		It("leaves fresh leases alone", func() {
			_, err := s.Lease().Acquire(context.TODO(), "utterance:fresh")
			Expect(err).To(BeNil())

			reclaimed, err := s.Lease().ReclaimStale(context.TODO(), time.Hour)
			Expect(err).To(BeNil())
			Expect(reclaimed).To(Equal(int64(0)))

			_, err = s.Lease().Get(context.TODO(), "utterance:fresh")
			Expect(err).To(BeNil())
		})
	})
})
