// Package orchestrator implements the Pipeline Orchestrator: the
// state-machine that sequences Feature Extractor -> OCR Reasoner ->
// parallel{Pricing Aggregator, Authenticity Scorer} -> Result Aggregator,
// enforcing per-stage timeouts, an overall deadline, submission-level
// idempotency, and the failure-propagation policy of spec.md §4.6/§7.
// Grounded on the teacher's main.go request-handling flow (fetch, call
// the AI client, persist, respond) generalized from one model call to a
// five-stage pipeline, and on virtengine's errgroup fan-out idiom for
// the parallel stages.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/aggregator"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/authenticity"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/idempotency"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/imagefetch"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/ocrreasoner"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/pricing"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/resilience"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Mode names the two invocation paths spec.md §4.6 recognizes. Both
// share the same stage ordering; they differ only in how the Result
// Aggregator persists its output.
type Mode string

const (
	ModeNewCard Mode = "new-card"
	ModeRevalue Mode = "revalue"
)

// Input is the orchestrator's entrypoint payload, per spec.md §6's
// "Pipeline inputs" contract.
type Input struct {
	UserID         string
	CardID         string
	RequestID      string
	ImageRef       string
	ExpectedSet    string
	ExpectedRarity string
	Mode           Mode
	ForceRefresh   bool
}

// StageTimeouts holds the per-stage budgets spec.md §5 suggests.
type StageTimeouts struct {
	Extractor    time.Duration
	OCRReasoner  time.Duration
	Pricing      time.Duration
	Authenticity time.Duration
	Aggregator   time.Duration
}

// DefaultStageTimeouts returns spec.md §5's suggested per-stage budgets.
func DefaultStageTimeouts() StageTimeouts {
	return StageTimeouts{
		Extractor:    30 * time.Second,
		OCRReasoner:  30 * time.Second,
		Pricing:      30 * time.Second,
		Authenticity: 30 * time.Second,
		Aggregator:   10 * time.Second,
	}
}

// Config holds the timing and idempotency tunables of spec.md §6.
type Config struct {
	StageTimeouts   StageTimeouts
	OverallDeadline time.Duration
	IdempotencyTTL  time.Duration
}

// DefaultConfig returns spec.md's suggested 120s overall deadline and a
// one-hour idempotency window.
func DefaultConfig() Config {
	return Config{
		StageTimeouts:   DefaultStageTimeouts(),
		OverallDeadline: 120 * time.Second,
		IdempotencyTTL:  time.Hour,
	}
}

// Cleanup removes a just-created Card and its uploaded image when the
// Feature Extractor rejects a new-card submission (spec.md §4.6).
type Cleanup interface {
	DeleteCard(ctx context.Context, cardID, userID string) error
	DeleteImage(ctx context.Context, imageRef string) error
}

// DeadLetterEntry captures every stage output the Aggregator had in
// hand when it exhausted its retries, for manual inspection.
type DeadLetterEntry struct {
	RequestID    string
	UserID       string
	CardID       string
	OCRMetadata  *cardmodel.CardMetadata
	Pricing      cardmodel.PricingResult
	Summary      cardmodel.ValuationSummary
	Authenticity *cardmodel.AuthenticityResult
	Err          error
}

// DeadLetterSink receives entries the Aggregator could not persist
// after retrying, per spec.md §4.6's "Aggregator failure" handling.
type DeadLetterSink interface {
	Capture(ctx context.Context, entry DeadLetterEntry) error
}

// Orchestrator wires the five stage implementations and runs them in
// the order and concurrency shape spec.md §4.6/§5 require.
type Orchestrator struct {
	extractor  Extractor
	reasoner   Reasoner
	pricer     Pricer
	summarizer Summarizer
	scorer     Scorer
	aggregator Aggregate
	fetcher    imagefetch.Fetcher
	ledger     *idempotency.Ledger
	cleanup    Cleanup
	deadLetter DeadLetterSink
	cfg        Config
	log        zerolog.Logger
}

// Extractor is the Feature Extractor stage's interface, satisfied by
// *extractor.Extractor.
type Extractor interface {
	Extract(ctx context.Context, imageRef string) (*cardmodel.FeatureEnvelope, error)
}

// Reasoner is the OCR Reasoner stage's interface, satisfied by
// *ocrreasoner.Reasoner. It never returns an error: its own fallback
// absorbs model failures per spec.md §4.2.
type Reasoner interface {
	Interpret(ctx context.Context, envelope *cardmodel.FeatureEnvelope) (*cardmodel.CardMetadata, error)
}

// Pricer is the Pricing Aggregator stage's interface, satisfied by
// *pricing.Aggregator.
type Pricer interface {
	FetchAllComps(ctx context.Context, query cardmodel.PriceQuery) (cardmodel.PricingResult, error)
}

// Summarizer is the pricing summary stage's interface, satisfied by
// *pricing.Summarizer. It never returns an error: its fallback is
// synthesized from the PricingResult per spec.md §4.3.
type Summarizer interface {
	Summarize(ctx context.Context, cardName string, result cardmodel.PricingResult) cardmodel.ValuationSummary
}

// Scorer is the Authenticity Scorer stage's interface, satisfied by
// *authenticity.Scorer.
type Scorer interface {
	Score(ctx context.Context, rawImage []byte, envelope *cardmodel.FeatureEnvelope, meta *cardmodel.CardMetadata) (*cardmodel.AuthenticityResult, error)
}

// Aggregate is the Result Aggregator stage's interface, satisfied by
// *aggregator.Aggregator.
type Aggregate interface {
	Aggregate(ctx context.Context, in aggregator.Input) (*cardmodel.Card, error)
}

// New wires every stage collaborator plus the idempotency ledger,
// cleanup hook, and dead-letter sink.
func New(
	extractor Extractor,
	reasoner Reasoner,
	pricer Pricer,
	summarizer Summarizer,
	scorer Scorer,
	agg Aggregate,
	fetcher imagefetch.Fetcher,
	cleanup Cleanup,
	deadLetter DeadLetterSink,
	cfg Config,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		extractor:  extractor,
		reasoner:   reasoner,
		pricer:     pricer,
		summarizer: summarizer,
		scorer:     scorer,
		aggregator: agg,
		fetcher:    fetcher,
		ledger:     idempotency.NewLedger(cfg.IdempotencyTTL),
		cleanup:    cleanup,
		deadLetter: deadLetter,
		cfg:        cfg,
		log:        log,
	}
}

func idempotencyKey(in Input) string {
	return fmt.Sprintf("%s:%s:%s", in.RequestID, in.UserID, in.CardID)
}

// Run executes one pipeline submission end to end. It enforces the
// overall deadline, idempotency gating, and the per-stage failure
// propagation policy of spec.md §4.6/§7: only Feature Extractor and
// Aggregator failures can fail the whole pipeline; every other stage
// degrades locally via its own fallback.
func (o *Orchestrator) Run(ctx context.Context, in Input) (card *cardmodel.Card, err error) {
	key := idempotencyKey(in)
	if !in.ForceRefresh {
		prior, proceed := o.ledger.Begin(key)
		if !proceed {
			// spec.md §8's idempotency law: a duplicate submission for a
			// completed run MUST return that run's result, not an error or
			// a fresh run. A duplicate for a run still in flight has no
			// result yet to replay, so it is rejected instead.
			if prior != nil {
				return prior, nil
			}
			return nil, cardmodel.NewError(cardmodel.KindStorageConflict, "duplicate submission already in flight", nil)
		}
		// Release on failure so a retried or redelivered submission can run
		// again; record the result on success so later duplicates replay it.
		defer func() {
			if err != nil {
				o.ledger.Release(key)
			} else {
				o.ledger.Complete(key, card)
			}
		}()
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.OverallDeadline)
	defer cancel()

	envelope, err := o.runExtractor(ctx, in)
	if err != nil {
		if in.Mode == ModeNewCard && o.cleanup != nil {
			if cerr := o.cleanup.DeleteCard(ctx, in.CardID, in.UserID); cerr != nil {
				o.log.Error().Err(cerr).Str("cardId", in.CardID).Msg("failed to clean up card after extraction failure")
			}
			if cerr := o.cleanup.DeleteImage(ctx, in.ImageRef); cerr != nil {
				o.log.Error().Err(cerr).Str("imageRef", in.ImageRef).Msg("failed to clean up uploaded image after extraction failure")
			}
		}
		return nil, err
	}

	meta := o.runReasoner(ctx, envelope)

	_, pricingResult, summary, authResult := o.runFanOut(ctx, in, envelope, meta)

	card, err = o.runAggregator(ctx, in, meta, pricingResult, summary, authResult)
	return card, err
}

func (o *Orchestrator) runExtractor(ctx context.Context, in Input) (*cardmodel.FeatureEnvelope, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeouts.Extractor)
	defer cancel()
	return o.extractor.Extract(stageCtx, in.ImageRef)
}

func (o *Orchestrator) runReasoner(ctx context.Context, envelope *cardmodel.FeatureEnvelope) *cardmodel.CardMetadata {
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeouts.OCRReasoner)
	defer cancel()
	meta, err := o.reasoner.Interpret(stageCtx, envelope)
	if err != nil {
		o.log.Error().Err(err).Msg("OCR reasoner returned an error despite its own fallback contract")
		return &cardmodel.CardMetadata{VerifiedByAI: false, ReasoningTrail: "OCR reasoning unavailable"}
	}
	return meta
}

// runFanOut starts the Pricing Aggregator and Authenticity Scorer
// concurrently once the OCR Reasoner has produced metadata. A failure
// in either branch is absorbed into a stage-local fallback value rather
// than cancelling its sibling, per spec.md §4.6/§5.
func (o *Orchestrator) runFanOut(ctx context.Context, in Input, envelope *cardmodel.FeatureEnvelope, meta *cardmodel.CardMetadata) ([]byte, cardmodel.PricingResult, cardmodel.ValuationSummary, *cardmodel.AuthenticityResult) {
	var (
		rawImage     []byte
		pricingResult cardmodel.PricingResult
		summary      cardmodel.ValuationSummary
		authResult   *cardmodel.AuthenticityResult
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pricingResult, summary = o.runPricing(gctx, in, meta)
		return nil
	})

	g.Go(func() error {
		rawImage, authResult = o.runAuthenticity(gctx, in, envelope, meta)
		return nil
	})

	_ = g.Wait() // branch errors already converted to fallbacks above

	return rawImage, pricingResult, summary, authResult
}

func (o *Orchestrator) runPricing(ctx context.Context, in Input, meta *cardmodel.CardMetadata) (cardmodel.PricingResult, cardmodel.ValuationSummary) {
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeouts.Pricing)
	defer cancel()

	cardName := in.ExpectedSet
	if meta != nil && meta.Name.Value != nil {
		cardName = *meta.Name.Value
	}
	rarity := in.ExpectedRarity
	if meta != nil && meta.Rarity.Value != nil {
		rarity = *meta.Rarity.Value
	}

	query := cardmodel.PriceQuery{CardName: cardName, Set: in.ExpectedSet, Condition: rarity}
	result, err := o.pricer.FetchAllComps(stageCtx, query)
	if err != nil {
		o.log.Warn().Err(err).Str("cardId", in.CardID).Msg("pricing aggregator failed; degrading to zero-value result")
		result = cardmodel.PricingResult{WindowDays: query.NormalizedWindowDays(), Message: "pricing sources unavailable"}
	}

	summary := o.summarizer.Summarize(stageCtx, cardName, result)
	return result, summary
}

func (o *Orchestrator) runAuthenticity(ctx context.Context, in Input, envelope *cardmodel.FeatureEnvelope, meta *cardmodel.CardMetadata) ([]byte, *cardmodel.AuthenticityResult) {
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeouts.Authenticity)
	defer cancel()

	raw, err := o.fetcher.Fetch(stageCtx, in.ImageRef)
	if err != nil {
		o.log.Warn().Err(err).Str("cardId", in.CardID).Msg("could not re-fetch image for authenticity scoring; degrading to fallback")
		return nil, degradedAuthenticity()
	}

	result, err := o.scorer.Score(stageCtx, raw, envelope, meta)
	if err != nil {
		o.log.Warn().Err(err).Str("cardId", in.CardID).Msg("authenticity scorer failed; degrading to fallback")
		return raw, degradedAuthenticity()
	}
	return raw, result
}

func degradedAuthenticity() *cardmodel.AuthenticityResult {
	return &cardmodel.AuthenticityResult{
		AuthenticityScore: 0,
		FakeDetected:      false,
		Rationale:         "authenticity analysis unavailable",
		VerifiedByAI:      false,
	}
}

// runAggregator retries the Result Aggregator up to 3 times with the
// 2s/4s/8s backoff spec.md §4.6 names, routing to the dead-letter sink
// if every attempt fails.
func (o *Orchestrator) runAggregator(ctx context.Context, in Input, meta *cardmodel.CardMetadata, pricingResult cardmodel.PricingResult, summary cardmodel.ValuationSummary, authResult *cardmodel.AuthenticityResult) (*cardmodel.Card, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeouts.Aggregator)
	defer cancel()

	policy := resilience.RetryPolicy{
		MaxRetries:      3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     8 * time.Second,
		Multiplier:      2.0,
	}

	var card *cardmodel.Card
	err := resilience.Do(stageCtx, policy, func(ctx context.Context) error {
		result, aerr := o.aggregator.Aggregate(ctx, aggregator.Input{
			UserID:           in.UserID,
			CardID:           in.CardID,
			RequestID:        in.RequestID,
			OCRMetadata:      meta,
			Pricing:          pricingResult,
			ValuationSummary: summary,
			Authenticity:     authResult,
			SkipCardFetch:    in.Mode == ModeNewCard,
			Now:              timeNow(),
		})
		if aerr != nil {
			return aerr
		}
		card = result
		return nil
	})
	if err != nil {
		if o.deadLetter != nil {
			entry := DeadLetterEntry{
				RequestID:    in.RequestID,
				UserID:       in.UserID,
				CardID:       in.CardID,
				OCRMetadata:  meta,
				Pricing:      pricingResult,
				Summary:      summary,
				Authenticity: authResult,
				Err:          err,
			}
			if derr := o.deadLetter.Capture(ctx, entry); derr != nil {
				o.log.Error().Err(derr).Str("cardId", in.CardID).Msg("failed to capture dead-letter entry after aggregator exhaustion")
			}
		}
		return nil, cardmodel.NewError(cardmodel.KindStorageConflict, "result aggregator exhausted its retries", err)
	}

	return card, nil
}

// timeNow is a thin indirection so tests can stub the aggregator's
// persisted timestamp without reaching into package internals.
var timeNow = time.Now
