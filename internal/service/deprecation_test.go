package service_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/lingualab/curator/internal/config"
	"github.com/lingualab/curator/internal/service"
	"github.com/lingualab/curator/internal/service/mappers"
	"github.com/lingualab/curator/internal/store"
	"github.com/lingualab/curator/internal/store/model"
)

var _ = Describe("deprecation service", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
		srv    *service.DeprecationService
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.Migrate()).To(BeNil())

		srv = service.NewDeprecationService(s)
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE from deprecations;")
		gormdb.Exec("DELETE from curation_items;")
	})

	newForm := func(itemID uuid.UUID) mappers.DeprecationForm {
		return mappers.DeprecationForm{
			ItemID:   itemID,
			ItemType: model.ItemTypeUtterance,
			Reason:   "superseded by a clearer phrasing",
		}
	}

	It("deprecates an approved item", func() {
		itemID := uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, model.ItemStateApproved, "es"))
		Expect(tx.Error).To(BeNil())

		deprecation, err := srv.Deprecate(context.TODO(), newForm(itemID))
		Expect(err).To(BeNil())
		Expect(deprecation.ItemID).To(Equal(itemID))
		Expect(deprecation.Reason).To(Equal("superseded by a clearer phrasing"))
	})

	It("refuses an item that is not approved", func() {
		itemID := uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, model.ItemStateCandidate, "es"))
		Expect(tx.Error).To(BeNil())

		_, err := srv.Deprecate(context.TODO(), newForm(itemID))

		var illegal *service.ErrIllegalTransition
		Expect(err).To(BeAssignableToTypeOf(illegal))
	})

	It("refuses a missing item", func() {
		_, err := srv.Deprecate(context.TODO(), newForm(uuid.New()))

		var notFound *service.ErrResourceNotFound
		Expect(err).To(BeAssignableToTypeOf(notFound))
	})

	It("refuses a second deprecation of the same item", func() {
		itemID := uuid.New()
		tx := gormdb.Exec(fmt.Sprintf(insertItemStm, itemID, model.ItemTypeUtterance, model.ItemStateApproved, "es"))
		Expect(tx.Error).To(BeNil())

		_, err := srv.Deprecate(context.TODO(), newForm(itemID))
		Expect(err).To(BeNil())

		_, err = srv.Deprecate(context.TODO(), newForm(itemID))

		var deprecated *service.ErrItemDeprecated
		Expect(err).To(BeAssignableToTypeOf(deprecated))
	})

	It("rejects an invalid form", func() {
		form := newForm(uuid.New())
		form.Reason = ""

		_, err := srv.Deprecate(context.TODO(), form)

		var invalid *service.ErrInvalidFeedback
		Expect(err).To(BeAssignableToTypeOf(invalid))
	})
})
