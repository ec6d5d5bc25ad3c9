// Package aggregator implements the Result Aggregator stage: applying
// the merge rules of spec.md §4.5, dispatching to the upsert or
// verified-update persistence path, and emitting the
// CardValuationCompleted event. Grounded on the teacher's internal/storage
// package for the persistence half; logging goes through a plain
// zerolog.Logger.
package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/eventbus"
	"github.com/jayvicsanantonio/collect-iq-sub000/internal/store"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
)

// Input bundles everything one aggregation call needs.
type Input struct {
	UserID           string
	CardID           string
	RequestID        string
	FrontImageRef    string
	BackImageRef     *string
	OCRMetadata      *cardmodel.CardMetadata
	Pricing          cardmodel.PricingResult
	ValuationSummary cardmodel.ValuationSummary
	Authenticity     *cardmodel.AuthenticityResult
	SkipCardFetch    bool
	Now              time.Time
}

// Aggregator runs aggregate() per spec.md §4.5.
type Aggregator struct {
	mongo *store.Mongo
	bus   eventbus.Publisher
	log   zerolog.Logger
}

// NewAggregator wires the persistence and event-publishing collaborators.
func NewAggregator(mongo *store.Mongo, bus eventbus.Publisher, log zerolog.Logger) *Aggregator {
	return &Aggregator{mongo: mongo, bus: bus, log: log}
}

// Aggregate merges stage outputs onto a Card, persists it via the
// upsert or verified-update path, and emits CardValuationCompleted.
// Event emission failure is logged but never fails the call, per
// spec.md §4.5.
func (a *Aggregator) Aggregate(ctx context.Context, in Input) (*cardmodel.Card, error) {
	update := a.buildUpdate(in)

	var card *cardmodel.Card
	var err error
	if in.SkipCardFetch {
		card = a.newCard(in, update)
		err = a.mongo.UpsertNew(ctx, card)
	} else {
		card, err = a.mongo.ReplaceValuation(ctx, in.CardID, in.UserID, update)
	}
	if err != nil {
		return nil, err
	}

	if pubErr := a.publishCompletion(ctx, in, card); pubErr != nil {
		a.log.Error().Err(pubErr).Str("cardId", in.CardID).Msg("failed to publish CardValuationCompleted")
	}

	return card, nil
}

// buildUpdate applies the three merge rules of spec.md §4.5: pricing
// and authenticity fields always copy over; OCR metadata always
// persists as audit trail; identification fields only update when
// verified-by-ai is true and the value is non-null.
func (a *Aggregator) buildUpdate(in Input) bson.M {
	update := bson.M{
		"userId":           in.UserID,
		"cardId":           in.CardID,
		"updatedAt":        in.Now,
		"valueLow":         in.Pricing.ValueLow,
		"valueMedian":      in.Pricing.ValueMedian,
		"valueHigh":        in.Pricing.ValueHigh,
		"compsCount":       in.Pricing.CompsCount,
		"pricingSources":   in.Pricing.Sources,
		"pricingMessage":   in.Pricing.Message,
		"valuationSummary": in.ValuationSummary.Summary,
	}

	if in.Authenticity != nil {
		update["authenticityScore"] = in.Authenticity.AuthenticityScore
		update["authenticitySignals"] = in.Authenticity.Signals
	}

	if in.OCRMetadata != nil {
		audit := in.OCRMetadata.ToAudit(in.Now)
		update["ocrMetadata"] = audit

		if in.OCRMetadata.VerifiedByAI {
			if in.OCRMetadata.Name.Value != nil {
				update["name"] = *in.OCRMetadata.Name.Value
			}
			setValue := in.OCRMetadata.Set.Value
			if setValue == nil {
				setValue = in.OCRMetadata.Set.FirstCandidateValue()
			}
			if setValue != nil {
				update["set"] = *setValue
			}
			if in.OCRMetadata.Rarity.Value != nil {
				update["rarity"] = *in.OCRMetadata.Rarity.Value
			}
			if in.OCRMetadata.CollectorNumber.Value != nil {
				update["collectorNumber"] = *in.OCRMetadata.CollectorNumber.Value
			}
			update["idConfidence"] = in.OCRMetadata.OverallConfidence
		}
	}

	return update
}

func (a *Aggregator) newCard(in Input, update bson.M) *cardmodel.Card {
	card := &cardmodel.Card{
		UserID:        in.UserID,
		CardID:        in.CardID,
		CreatedAt:     in.Now,
		UpdatedAt:     in.Now,
		FrontImageRef: in.FrontImageRef,
		BackImageRef:  in.BackImageRef,
	}
	applyBSONToCard(card, update)
	return card
}

func applyBSONToCard(card *cardmodel.Card, update bson.M) {
	if v, ok := update["name"].(string); ok {
		card.Name = &v
	}
	if v, ok := update["set"].(string); ok {
		card.Set = &v
	}
	if v, ok := update["rarity"].(string); ok {
		card.Rarity = &v
	}
	if v, ok := update["collectorNumber"].(string); ok {
		card.CollectorNumber = &v
	}
	if v, ok := update["idConfidence"].(float64); ok {
		card.IDConfidence = &v
	}
	if v, ok := update["valueLow"].(float64); ok {
		card.ValueLow = &v
	}
	if v, ok := update["valueMedian"].(float64); ok {
		card.ValueMedian = &v
	}
	if v, ok := update["valueHigh"].(float64); ok {
		card.ValueHigh = &v
	}
	if v, ok := update["compsCount"].(int); ok {
		card.CompsCount = &v
	}
	if v, ok := update["pricingSources"].([]string); ok {
		card.PricingSources = v
	}
	if v, ok := update["pricingMessage"].(string); ok {
		card.PricingMessage = &v
	}
	if v, ok := update["valuationSummary"].(string); ok {
		card.ValuationSummary = &v
	}
	if v, ok := update["authenticityScore"].(float64); ok {
		card.AuthenticityScore = &v
	}
	if v, ok := update["authenticitySignals"].(cardmodel.AuthenticitySignals); ok {
		card.AuthenticitySignals = &v
	}
	if v, ok := update["ocrMetadata"].(cardmodel.OCRAudit); ok {
		card.OCRMetadata = &v
	}
}

func (a *Aggregator) publishCompletion(ctx context.Context, in Input, card *cardmodel.Card) error {
	if a.bus == nil {
		return nil
	}

	var ocrSummary *cardmodel.OCRSummary
	if in.OCRMetadata != nil {
		ocrSummary = &cardmodel.OCRSummary{
			Name:         in.OCRMetadata.Name.Value,
			Set:          in.OCRMetadata.Set.Value,
			VerifiedByAI: in.OCRMetadata.VerifiedByAI,
		}
	}

	fakeDetected := false
	authScore := 0.0
	if in.Authenticity != nil {
		fakeDetected = in.Authenticity.FakeDetected
		authScore = in.Authenticity.AuthenticityScore
	}

	detail := cardmodel.CardValuationCompletedDetail{
		CardID:             in.CardID,
		UserID:             in.UserID,
		Name:               card.Name,
		Set:                card.Set,
		ValueLow:           in.Pricing.ValueLow,
		ValueMedian:        in.Pricing.ValueMedian,
		ValueHigh:          in.Pricing.ValueHigh,
		AuthenticityScore:  authScore,
		FakeDetected:       fakeDetected,
		PricingConfidence:  in.Pricing.Confidence,
		PricingSources:     in.Pricing.Sources,
		ValuationTrend:     in.ValuationSummary.Trend,
		ValuationFairValue: in.ValuationSummary.FairValue,
		OCRMetadata:        ocrSummary,
		RequestID:          in.RequestID,
		Timestamp:          in.Now,
	}

	if err := a.bus.Publish(ctx, eventbus.Event{Kind: cardmodel.EventCardValuationCompleted, Detail: detail}); err != nil {
		return fmt.Errorf("publish CardValuationCompleted: %w", err)
	}
	return nil
}
