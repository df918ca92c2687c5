package service_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/gates"
	"github.com/lingualab/curator/internal/service"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
)

func passingGate(name string, blocking bool) gates.Spec {
	return gates.Spec{
		Name:     name,
		Blocking: blocking,
		Check: func(ctx context.Context, c gates.Candidate) (gates.Result, error) {
			return gates.Result{Passed: true}, nil
		},
	}
}

func failingGate(name string, blocking bool) gates.Spec {
	return gates.Spec{
		Name:     name,
		Blocking: blocking,
		Check: func(ctx context.Context, c gates.Candidate) (gates.Result, error) {
			return gates.Result{Passed: false}, nil
		},
	}
}

var _ = Describe("gate service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		srv    *service.GateService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.Migrate()).To(BeNil())

		srv = service.NewGateService(s, 10)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from quality_gate_results;")
	})

	candidate := func() gates.Candidate {
		return gates.Candidate{
			EntityType:     model.ItemTypeUtterance,
			EntityID:       uuid.New(),
			Language:       "es",
			Level:          "A1",
			NormalizedText: "hola que tal",
		}
	}

	Context("evaluate", func() {
		It("runs gates in caller order and records every result", func() {
			outcome, err := srv.Evaluate(context.TODO(), candidate(), []gates.Spec{
				passingGate("first", true),
				passingGate("second", true),
				passingGate("third", false),
			})
			Expect(err).To(BeNil())
			Expect(outcome.AllPassed).To(BeTrue())
			Expect(outcome.Results).To(HaveLen(3))
			Expect(outcome.Results[0].GateName).To(Equal("first"))
			Expect(outcome.Results[1].GateName).To(Equal("second"))
			Expect(outcome.Results[2].GateName).To(Equal("third"))
		})

		It("stops after a failing blocking gate", func() {
			outcome, err := srv.Evaluate(context.TODO(), candidate(), []gates.Spec{
				passingGate("first", true),
				failingGate("blocker", true),
				passingGate("never-runs", true),
			})
			Expect(err).To(BeNil())
			Expect(outcome.AllPassed).To(BeFalse())
			Expect(outcome.Results).To(HaveLen(2))
			Expect(outcome.Results[1].GateName).To(Equal("blocker"))
			Expect(outcome.Results[1].Status).To(Equal(model.GateStatusFailed))
		})

		It("keeps going past a failing non-blocking gate", func() {
			outcome, err := srv.Evaluate(context.TODO(), candidate(), []gates.Spec{
				failingGate("advisory", false),
				passingGate("still-runs", true),
			})
			Expect(err).To(BeNil())
			Expect(outcome.AllPassed).To(BeFalse())
			Expect(outcome.Results).To(HaveLen(2))
			Expect(outcome.Results[1].Status).To(Equal(model.GateStatusPassed))
		})

		It("records a gate error as a failed result", func() {
			spec := gates.Spec{
				Name:     "broken",
				Blocking: true,
				Check: func(ctx context.Context, c gates.Candidate) (gates.Result, error) {
					return gates.Result{}, errors.New("reference corpus unavailable")
				},
			}
			outcome, err := srv.Evaluate(context.TODO(), candidate(), []gates.Spec{spec})
			Expect(err).To(BeNil())
			Expect(outcome.AllPassed).To(BeFalse())
			Expect(outcome.Results[0].Status).To(Equal(model.GateStatusFailed))
			Expect(*outcome.Results[0].ErrorMessage).To(Equal("reference corpus unavailable"))
		})

		It("survives a panicking gate", func() {
			spec := gates.Spec{
				Name:     "panicky",
				Blocking: true,
				Check: func(ctx context.Context, c gates.Candidate) (gates.Result, error) {
					panic("boom")
				},
			}
			outcome, err := srv.Evaluate(context.TODO(), candidate(), []gates.Spec{spec})
			Expect(err).To(BeNil())
			Expect(outcome.Results[0].Status).To(Equal(model.GateStatusFailed))
			Expect(*outcome.Results[0].ErrorMessage).To(ContainSubstring("panicked"))
		})
	})

	Context("attempt numbers", func() {
		It("assigns contiguous attempts across evaluations", func() {
			c := candidate()
			for i := 0; i < 3; i++ {
				_, err := srv.Evaluate(context.TODO(), c, []gates.Spec{failingGate("flaky", true)})
				Expect(err).To(BeNil())
			}

			results, err := s.Gate().ListForGate(context.TODO(), c.EntityType, c.EntityID, "flaky")
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(3))
			for i, result := range results {
				Expect(result.AttemptNumber).To(Equal(i + 1))
			}
		})

		It("fails the evaluation past the attempt ceiling", func() {
			limited := service.NewGateService(s, 2)
			c := candidate()

			for i := 0; i < 2; i++ {
				_, err := limited.Evaluate(context.TODO(), c, []gates.Spec{failingGate("flaky", true)})
				Expect(err).To(BeNil())
			}

			_, err := limited.Evaluate(context.TODO(), c, []gates.Spec{failingGate("flaky", true)})

			var ceiling *service.ErrAttemptLimitExceeded
			Expect(err).To(BeAssignableToTypeOf(ceiling))

			// no result recorded past the ceiling
			results, lerr := s.Gate().ListForGate(context.TODO(), c.EntityType, c.EntityID, "flaky")
			Expect(lerr).To(BeNil())
			Expect(results).To(HaveLen(2))
		})
	})

	Context("results for entity", func() {
		It("returns the full history", func() {
			c := candidate()
			_, err := srv.Evaluate(context.TODO(), c, []gates.Spec{
				passingGate("first", true),
				failingGate("second", false),
			})
			Expect(err).To(BeNil())

			results, err := srv.ResultsForEntity(context.TODO(), c.EntityType, c.EntityID)
			Expect(err).To(BeNil())
			Expect(results).To(HaveLen(2))
			Expect(results[0].GateName).To(Equal("first"))
		})
	})
})
