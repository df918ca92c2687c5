package store_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
)

const (
	insertItemStm        = "INSERT INTO curation_items (item_id, item_type, state, language, created_at) VALUES ('%s', '%s', '%s', '%s', CURRENT_TIMESTAMP);"
	insertDeprecationStm = "INSERT INTO deprecations (item_id, item_type, reason, created_at) VALUES ('%s', '%s', 'obsolete', CURRENT_TIMESTAMP);"
)

var _ = Describe("item store", Ordered, func() {
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
		gormdb.Exec("DELETE from state_transition_events;")
		gormdb.Exec("DELETE from deprecations;")
		gormdb.Exec("DELETE from curation_items;")
	})

	Context("create and get", func() {
		It("successfully creates an item in DRAFT", func() {
			itemID := uuid.New()
			_, err := s.Item().Create(context.TODO(), model.CurationItem{
				ItemID:   itemID,
				ItemType: model.ItemTypeUtterance,
				State:    model.ItemStateDraft,
				Language: "es",
				Level:    "A1",
				Content:  model.MakeJSONField(map[string]any{"text": "hola"}),
			})
			Expect(err).To(BeNil())

			item, err := s.Item().Get(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(item.State).To(Equal(model.ItemStateDraft))
			Expect(item.Content.Data["text"]).To(Equal("hola"))
		})

		It("fails to create the same item twice", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, "DRAFT", "es"))
			Expect(tx.Error).To(BeNil())

			_, err := s.Item().Create(context.TODO(), model.CurationItem{
				ItemID:   itemID,
				ItemType: model.ItemTypeUtterance,
				State:    model.ItemStateDraft,
				Language: "es",
			})
			Expect(err).To(Equal(store.ErrDuplicateKey))
		})

		It("get returns ErrRecordNotFound for a missing item", func() {
			_, err := s.Item().Get(context.TODO(), uuid.New(), model.ItemTypeUtterance)
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})

		It("the same id may exist under different item types", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, "DRAFT", "es"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeExercise, "DRAFT", "es"))
			Expect(tx.Error).To(BeNil())

			_, err := s.Item().Get(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			_, err = s.Item().Get(context.TODO(), itemID, model.ItemTypeExercise)
			Expect(err).To(BeNil())
		})
	})

	Context("list", func() {
		It("filters by state, type and language", func() {
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, uuid.New(), model.ItemTypeUtterance, "DRAFT", "es"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertItemStm, uuid.New(), model.ItemTypeUtterance, "APPROVED", "es"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertItemStm, uuid.New(), model.ItemTypeExercise, "APPROVED", "fr"))
			Expect(tx.Error).To(BeNil())

			items, err := s.Item().List(context.TODO(), store.NewItemQueryFilter().ByState(model.ItemStateApproved))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(2))

			items, err = s.Item().List(context.TODO(), store.NewItemQueryFilter().ByState(model.ItemStateApproved).ByLanguage("es"))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(1))

			items, err = s.Item().List(context.TODO(), store.NewItemQueryFilter().ByType(model.ItemTypeExercise))
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(1))
		})

		It("excludes deprecated items when asked", func() {
			keptID := uuid.New()
			deprecatedID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, keptID, model.ItemTypeUtterance, "APPROVED", "es"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertItemStm, deprecatedID, model.ItemTypeUtterance, "APPROVED", "es"))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertDeprecationStm, deprecatedID, model.ItemTypeUtterance))
			Expect(tx.Error).To(BeNil())

			items, err := s.Item().List(context.TODO(), store.NewItemQueryFilter().ByState(model.ItemStateApproved).WithoutDeprecated())
			Expect(err).To(BeNil())
			Expect(items).To(HaveLen(1))
			Expect(items[0].ItemID).To(Equal(keptID))
		})
	})

	Context("update state", func() {
		It("successfully updates with a matching guard", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, "DRAFT", "es"))
			Expect(tx.Error).To(BeNil())

			err := s.Item().UpdateState(context.TODO(), itemID, model.ItemTypeUtterance, model.ItemStateDraft, model.ItemStateCandidate)
			Expect(err).To(BeNil())

			item, err := s.Item().Get(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(item.State).To(Equal(model.ItemStateCandidate))
			Expect(item.UpdatedAt).ToNot(BeNil())
		})

		It("returns ErrStaleRecord when the guard does not match", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, "CANDIDATE", "es"))
			Expect(tx.Error).To(BeNil())

			err := s.Item().UpdateState(context.TODO(), itemID, model.ItemTypeUtterance, model.ItemStateDraft, model.ItemStateCandidate)
			Expect(err).To(Equal(store.ErrStaleRecord))

			// state unchanged
			item, err := s.Item().Get(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(item.State).To(Equal(model.ItemStateCandidate))
		})
	})

	Context("update content", func() {
		It("replaces content and normalized text", func() {
			itemID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, "DRAFT", "es"))
			Expect(tx.Error).To(BeNil())

			err := s.Item().UpdateContent(context.TODO(), itemID, model.ItemTypeUtterance, map[string]any{"text": "buenos dias"}, "buenos dias")
			Expect(err).To(BeNil())

			item, err := s.Item().Get(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(item.NormalizedText).To(Equal("buenos dias"))
			Expect(item.Content.Data["text"]).To(Equal("buenos dias"))
		})

		It("returns ErrRecordNotFound for a missing item", func() {
			err := s.Item().UpdateContent(context.TODO(), uuid.New(), model.ItemTypeUtterance, map[string]any{}, "")
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})
	})

	Context("transition events", func() {
		It("appends events and lists them oldest first", func() {
			itemID := uuid.New()

			_, err := s.Transition().Append(context.TODO(), model.StateTransitionEvent{
				ItemID:    itemID,
				ItemType:  model.ItemTypeUtterance,
				FromState: model.ItemStateDraft,
				ToState:   model.ItemStateCandidate,
			})
			Expect(err).To(BeNil())
			_, err = s.Transition().Append(context.TODO(), model.StateTransitionEvent{
				ItemID:    itemID,
				ItemType:  model.ItemTypeUtterance,
				FromState: model.ItemStateCandidate,
				ToState:   model.ItemStateValidated,
			})
			Expect(err).To(BeNil())

			log, err := s.Transition().ListForItem(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(log).To(HaveLen(2))
			Expect(log[0].ToState).To(Equal(model.ItemStateCandidate))
			Expect(log[1].ToState).To(Equal(model.ItemStateValidated))

			latest, err := s.Transition().Latest(context.TODO(), itemID, model.ItemTypeUtterance)
			Expect(err).To(BeNil())
			Expect(latest.ToState).To(Equal(model.ItemStateValidated))
		})
	})
})
