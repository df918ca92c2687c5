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
	insertPipelineStm = "INSERT INTO pipelines (id, name, status, total_tasks, completed_tasks, failed_tasks, progress_percentage, created_at) VALUES ('%s', '%s', '%s', %d, %d, %d, %d, CURRENT_TIMESTAMP);"
	insertTaskStm     = "INSERT INTO pipeline_tasks (id, pipeline_id, kind, status, created_at) VALUES ('%s', '%s', '%s', '%s', CURRENT_TIMESTAMP);"
)

var _ = Describe("pipeline store", Ordered, func() {
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
		gormdb.Exec("DELETE from pipeline_tasks;")
		gormdb.Exec("DELETE from pipelines;")
	})

	Context("pipelines", func() {
		It("creates and fetches a pipeline with its tasks", func() {
			pipelineID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertPipelineStm, pipelineID, "textbook-es-1", model.PipelineStatusProcessing, 0, 0, 0, 0))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertTaskStm, uuid.New(), pipelineID, "extract", model.TaskStatusPending))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertTaskStm, uuid.New(), pipelineID, "validate", model.TaskStatusPending))
			Expect(tx.Error).To(BeNil())

			pipeline, err := s.Pipeline().Get(context.TODO(), pipelineID)
			Expect(err).To(BeNil())
			Expect(pipeline.Name).To(Equal("textbook-es-1"))
			Expect(pipeline.Tasks).To(HaveLen(2))
		})

		It("get returns ErrRecordNotFound for a missing pipeline", func() {
			_, err := s.Pipeline().Get(context.TODO(), uuid.New())
			Expect(err).To(Equal(store.ErrRecordNotFound))
		})
	})

	Context("aggregate", func() {
		It("overwrites the cached counters", func() {
			pipelineID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertPipelineStm, pipelineID, "p", model.PipelineStatusProcessing, 0, 0, 0, 0))
			Expect(tx.Error).To(BeNil())

			err := s.Pipeline().UpdateAggregate(context.TODO(), pipelineID, 4, 3, 0, 75, model.PipelineStatusProcessing)
			Expect(err).To(BeNil())

			pipeline, err := s.Pipeline().Get(context.TODO(), pipelineID)
			Expect(err).To(BeNil())
			Expect(pipeline.TotalTasks).To(Equal(4))
			Expect(pipeline.CompletedTasks).To(Equal(3))
			Expect(pipeline.ProgressPercentage).To(Equal(75))

			// a later recompute replaces, never adds
			err = s.Pipeline().UpdateAggregate(context.TODO(), pipelineID, 4, 4, 0, 100, model.PipelineStatusCompleted)
			Expect(err).To(BeNil())

			pipeline, err = s.Pipeline().Get(context.TODO(), pipelineID)
			Expect(err).To(BeNil())
			Expect(pipeline.CompletedTasks).To(Equal(4))
			Expect(pipeline.ProgressPercentage).To(Equal(100))
			Expect(pipeline.Status).To(Equal(model.PipelineStatusCompleted))
		})
	})

	Context("tasks", func() {
		It("updates task status with an error message", func() {
			pipelineID := uuid.New()
			taskID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertPipelineStm, pipelineID, "p", model.PipelineStatusProcessing, 1, 0, 0, 0))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertTaskStm, taskID, pipelineID, "extract", model.TaskStatusProcessing))
			Expect(tx.Error).To(BeNil())

			msg := "chunk missing"
			err := s.Pipeline().UpdateTaskStatus(context.TODO(), taskID, model.TaskStatusFailed, &msg)
			Expect(err).To(BeNil())

			task, err := s.Pipeline().GetTask(context.TODO(), taskID)
			Expect(err).To(BeNil())
			Expect(task.Status).To(Equal(model.TaskStatusFailed))
			Expect(*task.ErrorMessage).To(Equal(msg))
		})

		It("lists only the pipeline's own tasks", func() {
			pipelineID := uuid.New()
			otherID := uuid.New()
			tx := gormdb.Exec(fmt.Sprintf(insertPipelineStm, pipelineID, "p1", model.PipelineStatusProcessing, 0, 0, 0, 0))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertPipelineStm, otherID, "p2", model.PipelineStatusProcessing, 0, 0, 0, 0))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertTaskStm, uuid.New(), pipelineID, "extract", model.TaskStatusPending))
			Expect(tx.Error).To(BeNil())
			tx = gormdb.Exec(fmt.Sprintf(insertTaskStm, uuid.New(), otherID, "extract", model.TaskStatusPending))
			Expect(tx.Error).To(BeNil())

			tasks, err := s.Pipeline().ListTasks(context.TODO(), pipelineID)
			Expect(err).To(BeNil())
			Expect(tasks).To(HaveLen(1))
		})
	})
})
