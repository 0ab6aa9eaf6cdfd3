package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	queue "github.com/okian/outreach/internal/adapters/mq/queue"
	worker "github.com/okian/outreach/internal/adapters/mq/worker"
	"github.com/okian/outreach/internal/adapters/repository"
	"github.com/okian/outreach/internal/domain/contact"
	"github.com/okian/outreach/internal/domain/model"
	"github.com/okian/outreach/internal/domain/pipeline"
	logging "github.com/okian/outreach/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHistory struct {
	years []model.FundingYear
	err   error
}

func (f *fakeHistory) FetchFundingHistory(_ context.Context, _ string) ([]model.FundingYear, error) {
	return f.years, f.err
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (r *recordingEnqueuer) Enqueue(_ context.Context, j queue.Job) bool { //nolint:gocritic // hugeParam: Job is passed by value
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, j)
	return true
}

type recordingForgetter struct{ keys []string }

func (r *recordingForgetter) Unrecord(_ context.Context, key string) { r.keys = append(r.keys, key) }

// failingStore rejects every insert with a non-duplicate error.
type failingStore struct{ *repository.MemoryStore }

func (failingStore) InsertFiling(context.Context, model.Filing) (model.Filing, error) {
	return model.Filing{}, errors.New("disk full")
}

// hookedStore runs each hook once at a fixed point of a store call, so tests
// can land a concurrent write inside the handler's read-then-write window.
type hookedStore struct {
	*repository.MemoryStore
	beforeInsert func()
	afterList    func()
}

func (s *hookedStore) InsertFiling(ctx context.Context, f model.Filing) (model.Filing, error) { //nolint:gocritic // hugeParam: matches Store
	if hook := s.beforeInsert; hook != nil {
		s.beforeInsert = nil
		hook()
	}
	return s.MemoryStore.InsertFiling(ctx, f)
}

func (s *hookedStore) FilingsByProvider(ctx context.Context, hcpNumber string) ([]model.Filing, error) {
	fs, err := s.MemoryStore.FilingsByProvider(ctx, hcpNumber)
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		hook()
	}
	return fs, err
}

func rawFiling(hcp, clinic string) model.Filing {
	return model.Filing{
		HCPNumber:          hcp,
		ClinicName:         clinic,
		Address:            "1 Main St",
		FilingDate:         "2025-01-15",
		ContactEmail:       "it@clinic.org",
		MailContactEmail:   "ops@consult.com",
		MailContactOrgName: "Consult Co",
		ServiceTypeRaw:     "Voice",
	}
}

func TestHandler_Ingest(t *testing.T) {
	Convey("Given a handler over a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()

		history := &fakeHistory{}
		enq := &recordingEnqueuer{}
		h := worker.NewHandler(store, pipeline.New(),
			worker.WithHistorySource(history),
			worker.WithEnqueuer(enq),
			worker.WithHandlerLogger(logging.NewNop()),
		)

		Convey("When a filing is ingested", func() {
			err := h.Process(ctx, queue.IngestJob(rawFiling("H1", "North"), false))
			So(err, ShouldBeNil)

			Convey("Then it is classified and stored", func() {
				fs, err := store.FilingsByProvider(ctx, "H1")
				So(err, ShouldBeNil)
				So(fs, ShouldHaveLength, 1)
				So(fs[0].DedupHash, ShouldNotBeEmpty)
				So(fs[0].IsConsultant, ShouldBeTrue)
				So(fs[0].ConsultantEmailDomain, ShouldEqual, "consult.com")
				So(fs[0].ServiceCategory, ShouldEqual, model.ServiceVoice)
				So(fs[0].FundingThreshold, ShouldEqual, model.FundingUnknown)
			})

			Convey("And ingesting it again is not an error", func() {
				So(h.Process(ctx, queue.IngestJob(rawFiling("H1", "North"), false)), ShouldBeNil)
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When stored history exists for the provider", func() {
			So(store.SetProviderFunding(ctx, "H2", []model.FundingYear{{Year: 2024, Amount: 80_000}, {Year: 2023, Amount: 40_000}}), ShouldBeNil)
			So(h.Process(ctx, queue.IngestJob(rawFiling("H2", "South"), false)), ShouldBeNil)

			Convey("Then classification uses it", func() {
				fs, _ := store.FilingsByProvider(ctx, "H2")
				So(fs[0].Total3yrFunding, ShouldEqual, 120_000)
				So(fs[0].FundingThreshold, ShouldEqual, model.FundingHigh)
			})
		})

		Convey("When history fetching is requested", func() {
			history.years = []model.FundingYear{{Year: 2024, Amount: 30_000}}
			So(h.Process(ctx, queue.IngestJob(rawFiling("H3", "East"), true)), ShouldBeNil)

			Convey("Then history is stored and a provider rescore is scheduled", func() {
				years, _ := store.ProviderFunding(ctx, "H3")
				So(years, ShouldHaveLength, 1)
				So(enq.jobs, ShouldHaveLength, 1)
				So(enq.jobs[0].Kind, ShouldEqual, queue.KindRescore)
				So(enq.jobs[0].HCPNumber, ShouldEqual, "H3")
			})
		})

		Convey("When the history source fails", func() {
			history.err = errors.New("upstream down")
			err := h.Process(ctx, queue.IngestJob(rawFiling("H4", "West"), true))

			Convey("Then the ingest still succeeds", func() {
				So(err, ShouldBeNil)
				n, _ := store.Count(ctx)
				So(n, ShouldEqual, 1)
				So(enq.jobs, ShouldBeEmpty)
			})
		})

		Convey("When upstream history carries a negative amount", func() {
			history.years = []model.FundingYear{{Year: 2024, Amount: -1}}
			So(h.Process(ctx, queue.IngestJob(rawFiling("H5", "Neg"), true)), ShouldBeNil)

			Convey("Then it is not stored", func() {
				years, _ := store.ProviderFunding(ctx, "H5")
				So(years, ShouldBeEmpty)
				So(enq.jobs, ShouldBeEmpty)
			})
		})

		Convey("When a job has an unknown kind", func() {
			err := h.Process(ctx, queue.Job{Kind: "bogus"})
			So(errors.Is(err, queue.ErrUnknownKind), ShouldBeTrue)
		})
	})
}

func TestHandler_InsertFailureReleasesKey(t *testing.T) {
	Convey("Given a store whose inserts fail", t, func() {
		ctx := context.Background()
		mem := repository.NewMemoryStore(ctx)
		defer mem.Close()

		forget := &recordingForgetter{}
		h := worker.NewHandler(failingStore{mem}, pipeline.New(),
			worker.WithForgetter(forget),
			worker.WithHandlerLogger(logging.NewNop()),
		)

		err := h.Process(ctx, queue.IngestJob(rawFiling("H1", "North"), false))

		So(err, ShouldNotBeNil)
		So(forget.keys, ShouldHaveLength, 1)
		So(forget.keys[0], ShouldNotBeEmpty)
	})
}

func TestHandler_Rescore(t *testing.T) {
	Convey("Given stored filings for one provider", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(ctx)
		defer store.Close()
		h := worker.NewHandler(store, pipeline.New(), worker.WithHandlerLogger(logging.NewNop()))

		So(h.Process(ctx, queue.IngestJob(rawFiling("H1", "North"), false)), ShouldBeNil)
		So(h.Process(ctx, queue.IngestJob(rawFiling("H1", "South"), false)), ShouldBeNil)
		So(store.SetProviderFunding(ctx, "H1", []model.FundingYear{{Year: 2024, Amount: 50_000}}), ShouldBeNil)

		Convey("When the provider is rescored", func() {
			So(h.Process(ctx, queue.RescoreProvider("H1")), ShouldBeNil)

			Convey("Then every filing picks up the new history", func() {
				fs, _ := store.FilingsByProvider(ctx, "H1")
				So(fs, ShouldHaveLength, 2)
				for _, f := range fs {
					So(f.Total3yrFunding, ShouldEqual, 50_000)
					So(f.FundingThreshold, ShouldEqual, model.FundingMedium)
					So(f.IsConsultant, ShouldBeTrue)
				}
			})
		})

		Convey("When a single filing is rescored", func() {
			fs, _ := store.FilingsByProvider(ctx, "H1")
			So(h.Process(ctx, queue.RescoreFiling(fs[0].ID)), ShouldBeNil)

			Convey("Then only that filing changes", func() {
				a, _ := store.Filing(ctx, fs[0].ID)
				b, _ := store.Filing(ctx, fs[1].ID)
				So(a.Total3yrFunding, ShouldEqual, 50_000)
				So(b.Total3yrFunding, ShouldEqual, 0)
			})
		})

		Convey("When an unknown filing is rescored", func() {
			err := h.Process(ctx, queue.RescoreFiling("missing"))
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestHandler_RescoreKeepsConcurrentTag(t *testing.T) {
	Convey("Given a stored filing whose provider gets new history", t, func() {
		ctx := context.Background()
		mem := repository.NewMemoryStore(ctx)
		defer mem.Close()
		store := &hookedStore{MemoryStore: mem}
		h := worker.NewHandler(store, pipeline.New(), worker.WithHandlerLogger(logging.NewNop()))

		So(h.Process(ctx, queue.IngestJob(rawFiling("H1", "North"), false)), ShouldBeNil)
		So(mem.SetProviderFunding(ctx, "H1", []model.FundingYear{{Year: 2024, Amount: 50_000}}), ShouldBeNil)

		Convey("When a manual tag commits after the rescore listed the filings", func() {
			store.afterList = func() {
				fs, _ := mem.FilingsByProvider(ctx, "H1")
				tagged, bulk, err := contact.ManualTag(fs[0], "Acme Consulting")
				So(err, ShouldBeNil)
				_, err = mem.ApplyConsultantTag(ctx, tagged, bulk)
				So(err, ShouldBeNil)
			}
			So(h.Process(ctx, queue.RescoreProvider("H1")), ShouldBeNil)

			Convey("Then the tag survives and the funding is applied", func() {
				fs, _ := mem.FilingsByProvider(ctx, "H1")
				So(fs, ShouldHaveLength, 1)
				So(fs[0].ConsultantDetectionMethod, ShouldEqual, model.DetectionManualTagged)
				So(fs[0].ConsultantCompany, ShouldEqual, "Acme Consulting")
				So(fs[0].Total3yrFunding, ShouldEqual, 50_000)
				So(fs[0].FundingThreshold, ShouldEqual, model.FundingMedium)
			})
		})
	})
}

func TestHandler_IngestSeesHistoryStoredDuringInsert(t *testing.T) {
	Convey("Given a filing whose provider has no history yet", t, func() {
		ctx := context.Background()
		mem := repository.NewMemoryStore(ctx)
		defer mem.Close()
		store := &hookedStore{MemoryStore: mem}
		h := worker.NewHandler(store, pipeline.New(), worker.WithHandlerLogger(logging.NewNop()))

		Convey("When history is stored and the provider rescored before the insert lands", func() {
			store.beforeInsert = func() {
				So(mem.SetProviderFunding(ctx, "H1", []model.FundingYear{{Year: 2024, Amount: 200_000}}), ShouldBeNil)
				So(h.Process(ctx, queue.RescoreProvider("H1")), ShouldBeNil)
			}
			So(h.Process(ctx, queue.IngestJob(rawFiling("H1", "North"), false)), ShouldBeNil)

			Convey("Then the stored filing reflects that history", func() {
				fs, _ := mem.FilingsByProvider(ctx, "H1")
				So(fs, ShouldHaveLength, 1)
				So(fs[0].Total3yrFunding, ShouldEqual, 200_000)
				So(fs[0].FundingThreshold, ShouldEqual, model.FundingHigh)
				So(fs[0].IsConsultant, ShouldBeTrue)
			})
		})
	})
}
