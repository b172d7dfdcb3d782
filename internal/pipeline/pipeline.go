// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one acquisition pass for one profile: fetch the
// page, extract metrics, reconcile the histogram, then build and write the
// artifact. Any recoverable failure before the build switches the run to
// synthetic data, so a valid artifact is written unless configuration or
// the filesystem fails.
package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/scholar-stats/internal/artifact"
	"github.com/pdiddy/scholar-stats/internal/extract"
	"github.com/pdiddy/scholar-stats/internal/failure"
	"github.com/pdiddy/scholar-stats/internal/fetch"
	"github.com/pdiddy/scholar-stats/internal/histogram"
	"github.com/pdiddy/scholar-stats/internal/httputil"
	"github.com/pdiddy/scholar-stats/internal/runlog"
	"github.com/pdiddy/scholar-stats/pkg/types"
)

// State is a step of a run. A run passes through each state at most once.
type State string

const (
	StateStart       State = "start"
	StateFetching    State = "fetching"
	StateExtracting  State = "extracting"
	StateReconciling State = "reconciling"
	StateBuilding    State = "building"
	StateDone        State = "done"
)

// Publisher mirrors a written artifact somewhere else.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
}

// Recorder stores the outcome of a run.
type Recorder interface {
	Record(ctx context.Context, rec runlog.Record) error
}

// Deps are the collaborators of a run. Zero fields get defaults.
type Deps struct {
	// Client overrides the client built from the proxy settings.
	Client    *http.Client
	Logger    *zap.Logger
	Now       func() time.Time
	Publisher Publisher
	Recorder  Recorder
}

// Outcome describes a finished run.
type Outcome struct {
	RunID    string
	Artifact types.ScholarArtifact
	Path     string

	// Fallback is true when synthetic data was written.
	Fallback bool

	// Cause is the recoverable failure that forced the fallback.
	Cause error

	// States lists the states visited, in order.
	States []State
}

// Run is the context of one pipeline pass. It owns the fetched markup and
// parsed document for its lifetime and is discarded afterwards.
type Run struct {
	id      string
	cfg     types.PipelineConfig
	log     *zap.Logger
	fetcher *fetch.Fetcher
	now     func() time.Time
	pub     Publisher
	rec     Recorder
	states  []State
}

// Validate checks cfg before any network access.
func Validate(cfg types.PipelineConfig) error {
	if cfg.ProfileID == "" {
		return failure.Configf("profile id is required (set --profile, SCHOLAR_ID or profile_id)")
	}
	if cfg.OutputPath == "" {
		return failure.Configf("output path is required")
	}
	return httputil.ValidateProxy(cfg.Proxy)
}

// New validates cfg and prepares a run. Configuration errors are returned
// here, before anything is fetched or written.
func New(cfg types.PipelineConfig, deps Deps) (*Run, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = httputil.DefaultTimeout
	}

	client := deps.Client
	if client == nil {
		c, err := httputil.NewClient(cfg.HTTPConfig)
		if err != nil {
			return nil, err
		}
		client = c
	}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	id := uuid.NewString()
	log = log.With(zap.String("run_id", id), zap.String("profile_id", cfg.ProfileID))

	return &Run{
		id:  id,
		cfg: cfg,
		log: log,
		fetcher: fetch.New(client,
			fetch.WithBaseURL(cfg.BaseURL),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithLogger(log),
		),
		now:    now,
		pub:    deps.Publisher,
		rec:    deps.Recorder,
		states: []State{StateStart},
	}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string {
	return r.id
}

// Execute performs the run. The returned error is non-nil only when the
// artifact could not be written (KindPersistence) or a non-recoverable
// failure occurred; fetch and parse failures are reported in Outcome.Cause.
func (r *Run) Execute(ctx context.Context) (Outcome, error) {
	started := r.now()
	if r.cfg.Proxy.Enabled() {
		r.log.Info("using proxy", zap.String("proxy", r.cfg.Proxy.Endpoint()), zap.Bool("insecure_tls", r.cfg.Proxy.InsecureSkipVerify))
	}

	ex, cause := r.acquire(ctx)
	if cause != nil && !failure.Recoverable(cause) {
		r.log.Error("run aborted", zap.String("kind", string(failure.KindOf(cause))), zap.String("error", r.redact(cause)))
		r.record(ctx, started, nil, cause)
		return Outcome{RunID: r.id, States: r.states}, cause
	}
	if cause != nil {
		r.log.Warn("live extraction failed, writing fallback data",
			zap.String("kind", string(failure.KindOf(cause))),
			zap.Int("status", failure.StatusCode(cause)),
			zap.String("error", r.redact(cause)),
		)
	}

	r.enter(StateBuilding)
	a := artifact.Build(r.cfg.ProfileID, ex, cause, r.now())
	out := Outcome{
		RunID:    r.id,
		Artifact: a,
		Path:     r.cfg.OutputPath,
		Fallback: a.IsFallback(),
		Cause:    cause,
	}

	if err := artifact.Write(r.cfg.OutputPath, a); err != nil {
		r.log.Error("writing artifact failed", zap.String("path", r.cfg.OutputPath), zap.Error(err))
		r.record(ctx, started, &a, err)
		out.States = r.states
		return out, err
	}
	r.log.Info("artifact written",
		zap.String("path", r.cfg.OutputPath),
		zap.String("source", string(a.Metadata.Source)),
		zap.Int("total_citations", a.Metrics.TotalCitations),
		zap.Int("h_index", a.Metrics.HIndex),
		zap.Int("i10_index", a.Metrics.I10Index),
		zap.Int("years", a.CitationsByYear.Len()),
	)

	r.publish(ctx, a)
	r.record(ctx, started, &a, cause)

	r.enter(StateDone)
	out.States = r.states
	return out, nil
}

// acquire runs the fetch, extract and reconcile states. It stops at the
// first failure.
func (r *Run) acquire(ctx context.Context) (artifact.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	r.enter(StateFetching)
	markup, err := r.fetcher.Fetch(ctx, r.cfg.ProfileID)
	if err != nil {
		return artifact.Extraction{}, err
	}

	r.enter(StateExtracting)
	doc, err := extract.Parse(markup)
	if err != nil {
		return artifact.Extraction{}, err
	}
	metrics, identity, err := extract.Extract(doc, r.log)
	if err != nil {
		return artifact.Extraction{}, err
	}
	since := extract.Since(doc, r.log)
	r.log.Info("metrics extracted",
		zap.String("name", identity.Name),
		zap.Int("total_citations", metrics.TotalCitations),
		zap.Int("h_index", metrics.HIndex),
		zap.Int("i10_index", metrics.I10Index),
	)

	r.enter(StateReconciling)
	hist, err := histogram.FromDocument(doc, r.log)
	if err != nil {
		return artifact.Extraction{}, err
	}

	return artifact.Extraction{
		Metrics:   metrics,
		Since:     since,
		Identity:  identity,
		Histogram: hist,
	}, nil
}

func (r *Run) enter(s State) {
	r.states = append(r.states, s)
	r.log.Debug("state", zap.String("state", string(s)))
}

func (r *Run) publish(ctx context.Context, a types.ScholarArtifact) {
	if r.pub == nil {
		return
	}
	data, err := artifact.Encode(a)
	if err == nil {
		err = r.pub.Publish(ctx, data)
	}
	if err != nil {
		r.log.Warn("publishing artifact failed", zap.String("error", r.redact(err)))
		return
	}
	r.log.Info("artifact published")
}

func (r *Run) record(ctx context.Context, started time.Time, a *types.ScholarArtifact, runErr error) {
	if r.rec == nil {
		return
	}
	rec := runlog.Record{
		ID:          r.id,
		ProfileID:   r.cfg.ProfileID,
		StartedAt:   started,
		FinishedAt:  r.now(),
		FailureKind: string(failure.KindOf(runErr)),
		StatusCode:  failure.StatusCode(runErr),
	}
	if runErr != nil {
		rec.Message = r.redact(runErr)
	}
	if a != nil {
		rec.Source = string(a.Metadata.Source)
		rec.TotalCitations = a.Metrics.TotalCitations
		if !failure.IsPersistence(runErr) {
			rec.OutputPath = r.cfg.OutputPath
		}
	}
	if err := r.rec.Record(ctx, rec); err != nil {
		r.log.Warn("recording run failed", zap.Error(err))
	}
}

func (r *Run) redact(err error) string {
	return httputil.Redact(err.Error(), r.cfg.Proxy)
}
