// DietScope - Recipe Macronutrient Analysis Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dietscope

package query

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/dietscope/internal/analysis"
	"github.com/tomtom215/dietscope/internal/blob"
	"github.com/tomtom215/dietscope/internal/clients"
	"github.com/tomtom215/dietscope/internal/config"
	"github.com/tomtom215/dietscope/internal/dataset"
	"github.com/tomtom215/dietscope/internal/docstore"
	"github.com/tomtom215/dietscope/internal/models"
)

const rawCSV = `Diet_type,Recipe_name,Cuisine_type,Protein(g),Carbs(g),Fat(g)
Keto,Steak,american,30,0,20
Keto,Bad Steak,american,-5,1,1
Vegan,Lentils,indian,18,40,2
,Soup,french,5,10,3
`

type stubTier struct {
	name string
	res  *analysis.Result
	err  error
	hits int
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) Load(context.Context) (*analysis.Result, error) {
	s.hits++
	if s.err != nil {
		return nil, s.err
	}
	res := *s.res
	return &res, nil
}

func TestChainResolve(t *testing.T) {
	t.Parallel()

	want := &analysis.Result{Metadata: analysis.Metadata{RowCount: 7, CacheSource: "third"}}
	tests := []struct {
		name    string
		tiers   []*stubTier
		wantErr error
		served  string
	}{
		{
			name: "first hit wins",
			tiers: []*stubTier{
				{name: "first", res: &analysis.Result{Metadata: analysis.Metadata{CacheSource: "first"}}},
				{name: "second", err: errors.New("must not be called")},
			},
			served: "first",
		},
		{
			name: "absent and failing tiers fall through",
			tiers: []*stubTier{
				{name: "first", err: ErrAbsent},
				{name: "second", err: errors.New("connection refused")},
				{name: "third", res: want},
			},
			served: "third",
		},
		{
			name: "last tier error propagates",
			tiers: []*stubTier{
				{name: "first", err: ErrAbsent},
				{name: "last", err: analysis.ErrSourceUnavailable},
			},
			wantErr: analysis.ErrSourceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tiers := make([]Tier, len(tt.tiers))
			for i, s := range tt.tiers {
				tiers[i] = s
			}
			res, err := NewChain(tiers...).Resolve(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if res.Metadata.CacheSource != tt.served {
				t.Errorf("served by %q, want %q", res.Metadata.CacheSource, tt.served)
			}
			if res.Metadata.APIExecutionTimeMs == nil {
				t.Error("api_execution_time_ms not set")
			}
			for _, s := range tt.tiers {
				if s.name == "second" && tt.served == "first" && s.hits != 0 {
					t.Error("tier after a hit was consulted")
				}
			}
		})
	}

	if _, err := NewChain().Resolve(context.Background()); !errors.Is(err, ErrNoTiers) {
		t.Errorf("empty chain err = %v", err)
	}
}

func TestChainExecutionTimeRounded(t *testing.T) {
	t.Parallel()

	c := NewChain(&stubTier{name: "only", res: &analysis.Result{}})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	c.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1234567 * time.Nanosecond)
	}
	res, err := c.Resolve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := *res.Metadata.APIExecutionTimeMs; got != 1.23 {
		t.Errorf("api_execution_time_ms = %v, want 1.23", got)
	}
}

type fixture struct {
	cfg   *config.Config
	store *blob.Memory
	docs  docstore.Store
	reg   *clients.Registry
}

func newFixture(t *testing.T, docs docstore.Store) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Driver = config.StorageMemory
	cfg.Documents.Driver = config.DocumentsMemory
	if docs == nil {
		docs = docstore.NewMemory()
	}
	store := blob.NewMemory()
	return &fixture{cfg: cfg, store: store, docs: docs, reg: clients.NewWith(cfg, store, docs)}
}

func (f *fixture) put(t *testing.T, key, body string) {
	t.Helper()
	if _, err := blob.PutBytes(context.Background(), f.store, key, []byte(body), blob.ContentTypeCSV); err != nil {
		t.Fatal(err)
	}
}

func directResult(t *testing.T) *analysis.Result {
	t.Helper()
	raw, err := dataset.ParseCSV([]byte(rawCSV))
	if err != nil {
		t.Fatal(err)
	}
	res, _, _, err := analysis.Analyze(raw, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestDefaultChainTiers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("computes from raw when nothing is cached", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.put(t, f.cfg.Storage.RawBlob, rawCSV)

		res, err := NewDefaultChain(f.reg).Resolve(ctx)
		if err != nil {
			t.Fatal(err)
		}
		meta := res.Metadata
		if meta.CacheSource != SourceComputed || meta.CacheStatus != StatusMiss {
			t.Errorf("source/status = %q/%q", meta.CacheSource, meta.CacheStatus)
		}
		if meta.SourceBlob != f.cfg.Storage.Container+"/All_Diets.csv" {
			t.Errorf("source blob = %q", meta.SourceBlob)
		}
		if meta.APIExecutionTimeMs == nil || meta.ExecutionTimeMs == nil {
			t.Error("timings missing")
		}

		direct := directResult(t)
		if !reflect.DeepEqual(res.AvgMacros, direct.AvgMacros) {
			t.Errorf("avg_macros = %+v, want %+v", res.AvgMacros, direct.AvgMacros)
		}
		if !reflect.DeepEqual(res.TopProtein, direct.TopProtein) {
			t.Errorf("top_protein differs from direct aggregation")
		}
	})

	t.Run("prefers the cleaned dataset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.put(t, f.cfg.Storage.CleanBlob, "Diet_type,Recipe_name,Protein(g)\nPaleo,Eggs,12\n")

		res, err := NewDefaultChain(f.reg).Resolve(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.Metadata.RowCount != 1 || res.Metadata.SourceBlob != f.cfg.Storage.Container+"/All_Diets_clean.csv" {
			t.Errorf("metadata = %+v", res.Metadata)
		}
	})

	t.Run("serves the blob cache", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		cached := directResult(t)
		cached.Metadata.CacheSource = "stale"
		data, err := json.Marshal(cached)
		if err != nil {
			t.Fatal(err)
		}
		f.put(t, f.cfg.Storage.CacheBlob, string(data))

		res, err := NewDefaultChain(f.reg).Resolve(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.Metadata.CacheSource != SourceBlob || res.Metadata.RowCount != cached.Metadata.RowCount {
			t.Errorf("metadata = %+v", res.Metadata)
		}
	})

	t.Run("serves the cache document first", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.put(t, f.cfg.Storage.CacheBlob, `{"metadata":{"row_count":1}}`)
		payload := directResult(t)
		doc := models.NewCacheDocument(f.cfg.Documents.CacheID, f.cfg.Documents.PartitionKey, payload, time.Now())
		if err := f.docs.UpsertCacheDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}

		res, err := NewDefaultChain(f.reg).Resolve(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.Metadata.CacheSource != SourceDatabase || res.Metadata.RowCount != payload.Metadata.RowCount {
			t.Errorf("metadata = %+v", res.Metadata)
		}
	})

	t.Run("corrupt blob cache falls through", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.put(t, f.cfg.Storage.CacheBlob, "{not json")
		f.put(t, f.cfg.Storage.RawBlob, rawCSV)

		res, err := NewDefaultChain(f.reg).Resolve(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if res.Metadata.CacheSource != SourceComputed {
			t.Errorf("cache_source = %q", res.Metadata.CacheSource)
		}
	})

	t.Run("no data at all", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		_, err := NewDefaultChain(f.reg).Resolve(ctx)
		if !errors.Is(err, analysis.ErrSourceUnavailable) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("missing diet column", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil)
		f.put(t, f.cfg.Storage.RawBlob, "Recipe_name,Protein(g)\nSoup,3\n")
		_, err := NewDefaultChain(f.reg).Resolve(ctx)
		var mce *analysis.MissingColumnError
		if !errors.As(err, &mce) || mce.Column != analysis.ColDietType {
			t.Errorf("err = %v", err)
		}
	})
}

// brokenDocs fails every cache read.
type brokenDocs struct {
	*docstore.Memory
	mu    sync.Mutex
	reads int
}

func (b *brokenDocs) ReadCacheDocument(context.Context, string, string) (*models.CacheDocument, error) {
	b.mu.Lock()
	b.reads++
	b.mu.Unlock()
	return nil, errors.New("service unavailable")
}

func TestDatabaseTierBreakerOpens(t *testing.T) {
	t.Parallel()

	docs := &brokenDocs{Memory: docstore.NewMemory()}
	f := newFixture(t, docs)
	f.cfg.Documents.BreakerFailures = 2
	f.cfg.Documents.BreakerTimeout = time.Hour
	tier := NewDatabaseTier(f.reg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := tier.Load(ctx); err == nil || errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("load %d: err = %v", i, err)
		}
	}
	if tier.State() != gobreaker.StateOpen {
		t.Fatalf("state = %s, want open", tier.State())
	}
	if _, err := tier.Load(ctx); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want ErrOpenState", err)
	}
	if docs.reads != 2 {
		t.Errorf("store reads = %d, want 2", docs.reads)
	}
}

func TestDatabaseTierAbsentDoesNotTrip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.cfg.Documents.BreakerFailures = 1
	tier := NewDatabaseTier(f.reg)
	for i := 0; i < 3; i++ {
		if _, err := tier.Load(context.Background()); !errors.Is(err, ErrAbsent) {
			t.Fatalf("err = %v, want ErrAbsent", err)
		}
	}
	if tier.State() != gobreaker.StateClosed {
		t.Errorf("state = %s", tier.State())
	}
}

func TestComputeTierConcurrentCallers(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.put(t, f.cfg.Storage.RawBlob, rawCSV)
	tier := NewComputeTier(f.reg)

	const callers = 8
	results := make([]*analysis.Result, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = tier.Load(context.Background())
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i].Metadata.RowCount != 4 {
			t.Errorf("caller %d row_count = %d", i, results[i].Metadata.RowCount)
		}
		for j := 0; j < i; j++ {
			if results[i] == results[j] {
				t.Errorf("callers %d and %d share a result", i, j)
			}
		}
	}
}

func TestLiveIgnoresCaches(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.put(t, f.cfg.Storage.RawBlob, rawCSV)
	f.put(t, f.cfg.Storage.CacheBlob, `{"metadata":{"row_count":99}}`)

	res, err := NewLive(f.reg).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata.CacheSource != SourceLive || res.Metadata.RowCount != 4 || res.Metadata.ExecutionTimeMs == nil {
		t.Errorf("metadata = %+v", res.Metadata)
	}

	empty := newFixture(t, nil)
	if _, err := NewLive(empty.reg).Run(context.Background()); !errors.Is(err, analysis.ErrSourceUnavailable) {
		t.Errorf("err = %v", err)
	}
}
