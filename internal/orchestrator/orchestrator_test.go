package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/aggregator"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/rs/zerolog"
)

type fakeExtractor struct {
	envelope *cardmodel.FeatureEnvelope
	err      error
}

func (f *fakeExtractor) Extract(ctx context.Context, imageRef string) (*cardmodel.FeatureEnvelope, error) {
	return f.envelope, f.err
}

type fakeReasoner struct {
	meta *cardmodel.CardMetadata
	err  error
}

func (f *fakeReasoner) Interpret(ctx context.Context, envelope *cardmodel.FeatureEnvelope) (*cardmodel.CardMetadata, error) {
	return f.meta, f.err
}

type fakePricer struct {
	result cardmodel.PricingResult
	err    error
}

func (f *fakePricer) FetchAllComps(ctx context.Context, query cardmodel.PriceQuery) (cardmodel.PricingResult, error) {
	return f.result, f.err
}

type fakeSummarizer struct {
	summary cardmodel.ValuationSummary
}

func (f *fakeSummarizer) Summarize(ctx context.Context, cardName string, result cardmodel.PricingResult) cardmodel.ValuationSummary {
	return f.summary
}

type fakeScorer struct {
	result *cardmodel.AuthenticityResult
	err    error
}

func (f *fakeScorer) Score(ctx context.Context, rawImage []byte, envelope *cardmodel.FeatureEnvelope, meta *cardmodel.CardMetadata) (*cardmodel.AuthenticityResult, error) {
	return f.result, f.err
}

type fakeAggregate struct {
	card *cardmodel.Card
	err  error
	n    int
}

func (f *fakeAggregate) Aggregate(ctx context.Context, in aggregator.Input) (*cardmodel.Card, error) {
	f.n++
	return f.card, f.err
}

type fakeFetcher struct {
	data []byte
	err  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	return f.data, f.err
}

type fakeCleanup struct {
	deletedCard, deletedImage bool
}

func (f *fakeCleanup) DeleteCard(ctx context.Context, cardID, userID string) error {
	f.deletedCard = true
	return nil
}

func (f *fakeCleanup) DeleteImage(ctx context.Context, imageRef string) error {
	f.deletedImage = true
	return nil
}

func testConfig() Config {
	return Config{
		StageTimeouts:   StageTimeouts{Extractor: time.Second, OCRReasoner: time.Second, Pricing: time.Second, Authenticity: time.Second, Aggregator: time.Second},
		OverallDeadline: 5 * time.Second,
		IdempotencyTTL:  time.Minute,
	}
}

func TestRunSucceedsThroughAllStages(t *testing.T) {
	card := &cardmodel.Card{CardID: "c1", UserID: "u1"}
	o := New(
		&fakeExtractor{envelope: &cardmodel.FeatureEnvelope{}},
		&fakeReasoner{meta: &cardmodel.CardMetadata{}},
		&fakePricer{result: cardmodel.PricingResult{}},
		&fakeSummarizer{summary: cardmodel.ValuationSummary{}},
		&fakeScorer{result: &cardmodel.AuthenticityResult{}},
		&fakeAggregate{card: card},
		&fakeFetcher{data: []byte("x")},
		nil, nil,
		testConfig(),
		zerolog.Nop(),
	)

	got, err := o.Run(context.Background(), Input{UserID: "u1", CardID: "c1", RequestID: "r1", Mode: ModeNewCard})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CardID != "c1" {
		t.Fatalf("expected returned card, got %+v", got)
	}
}

func TestRunCleansUpOnExtractorFailure(t *testing.T) {
	cleanup := &fakeCleanup{}
	o := New(
		&fakeExtractor{err: cardmodel.NewError(cardmodel.KindInappropriate, "bad image", nil)},
		&fakeReasoner{}, &fakePricer{}, &fakeSummarizer{}, &fakeScorer{}, &fakeAggregate{},
		&fakeFetcher{},
		cleanup, nil,
		testConfig(),
		zerolog.Nop(),
	)

	_, err := o.Run(context.Background(), Input{UserID: "u1", CardID: "c1", RequestID: "r1", Mode: ModeNewCard})
	if err == nil {
		t.Fatal("expected extractor failure to fail the pipeline")
	}
	if !cleanup.deletedCard || !cleanup.deletedImage {
		t.Fatal("expected cleanup to delete both the card and the uploaded image")
	}
}

func TestRunDegradesOnPricingAndAuthenticityFailure(t *testing.T) {
	card := &cardmodel.Card{CardID: "c1", UserID: "u1"}
	o := New(
		&fakeExtractor{envelope: &cardmodel.FeatureEnvelope{}},
		&fakeReasoner{meta: &cardmodel.CardMetadata{}},
		&fakePricer{err: cardmodel.NewError(cardmodel.KindSourcesUnavailable, "down", nil)},
		&fakeSummarizer{summary: cardmodel.ValuationSummary{}},
		&fakeScorer{err: cardmodel.NewError(cardmodel.KindSourceUnavailable, "down", nil)},
		&fakeAggregate{card: card},
		&fakeFetcher{data: []byte("x")},
		nil, nil,
		testConfig(),
		zerolog.Nop(),
	)

	got, err := o.Run(context.Background(), Input{UserID: "u1", CardID: "c1", RequestID: "r1", Mode: ModeRevalue})
	if err != nil {
		t.Fatalf("pricing/authenticity failures must not fail the pipeline, got %v", err)
	}
	if got.CardID != "c1" {
		t.Fatal("expected the pipeline to still complete with a degraded result")
	}
}

func TestRunReplaysPriorResultOnDuplicateSubmission(t *testing.T) {
	card := &cardmodel.Card{CardID: "c1", UserID: "u1"}
	agg := &fakeAggregate{card: card}
	o := New(
		&fakeExtractor{envelope: &cardmodel.FeatureEnvelope{}},
		&fakeReasoner{meta: &cardmodel.CardMetadata{}},
		&fakePricer{result: cardmodel.PricingResult{}},
		&fakeSummarizer{summary: cardmodel.ValuationSummary{}},
		&fakeScorer{result: &cardmodel.AuthenticityResult{}},
		agg,
		&fakeFetcher{data: []byte("x")},
		nil, nil,
		testConfig(),
		zerolog.Nop(),
	)

	in := Input{UserID: "u1", CardID: "c1", RequestID: "r1", Mode: ModeNewCard}
	first, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("first run should succeed, got %v", err)
	}

	// spec.md §8's idempotency law: a duplicate submission MUST return the
	// same result as the original run, not an error and not a fresh run.
	second, err := o.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("expected the duplicate submission to replay the prior result without error, got %v", err)
	}
	if second != first {
		t.Fatalf("expected the duplicate to return the exact prior result, got %+v want %+v", second, first)
	}
	if agg.n != 1 {
		t.Fatalf("expected the aggregator to run only once across both submissions, ran %d times", agg.n)
	}
}

func TestRunRejectsDuplicateSubmissionStillInFlight(t *testing.T) {
	o := New(
		&fakeExtractor{envelope: &cardmodel.FeatureEnvelope{}},
		&fakeReasoner{meta: &cardmodel.CardMetadata{}},
		&fakePricer{result: cardmodel.PricingResult{}},
		&fakeSummarizer{summary: cardmodel.ValuationSummary{}},
		&fakeScorer{result: &cardmodel.AuthenticityResult{}},
		&fakeAggregate{},
		&fakeFetcher{data: []byte("x")},
		nil, nil,
		testConfig(),
		zerolog.Nop(),
	)

	key := idempotencyKey(Input{UserID: "u1", CardID: "c1", RequestID: "r1"})
	if _, proceed := o.ledger.Begin(key); !proceed {
		t.Fatal("expected the first Begin to proceed")
	}

	in := Input{UserID: "u1", CardID: "c1", RequestID: "r1", Mode: ModeNewCard}
	if _, err := o.Run(context.Background(), in); !cardmodel.IsKind(err, cardmodel.KindStorageConflict) {
		t.Fatalf("expected a storage-conflict error for a submission still in flight, got %v", err)
	}
}
