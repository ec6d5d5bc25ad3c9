package cardmodel

import "time"

// Card is the persisted, durable record a card submission produces.
// It is identified by a (UserID, CardID) pair and is exclusively owned
// by its user. Only the Result Aggregator mutates it after creation.
type Card struct {
	UserID    string     `bson:"userId" json:"userId"`
	CardID    string     `bson:"cardId" json:"cardId"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`
	DeletedAt *time.Time `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`

	FrontImageRef string  `bson:"frontImageRef" json:"frontImageRef"`
	BackImageRef  *string `bson:"backImageRef,omitempty" json:"backImageRef,omitempty"`

	Name             *string  `bson:"name,omitempty" json:"name,omitempty"`
	Set              *string  `bson:"set,omitempty" json:"set,omitempty"`
	Rarity           *string  `bson:"rarity,omitempty" json:"rarity,omitempty"`
	CollectorNumber  *string  `bson:"collectorNumber,omitempty" json:"collectorNumber,omitempty"`
	ConditionEstimate *string `bson:"conditionEstimate,omitempty" json:"conditionEstimate,omitempty"`
	IDConfidence     *float64 `bson:"idConfidence,omitempty" json:"idConfidence,omitempty"`

	ValueLow         *float64 `bson:"valueLow,omitempty" json:"valueLow,omitempty"`
	ValueMedian      *float64 `bson:"valueMedian,omitempty" json:"valueMedian,omitempty"`
	ValueHigh        *float64 `bson:"valueHigh,omitempty" json:"valueHigh,omitempty"`
	CompsCount       *int     `bson:"compsCount,omitempty" json:"compsCount,omitempty"`
	PricingSources   []string `bson:"pricingSources,omitempty" json:"pricingSources,omitempty"`
	PricingMessage   *string  `bson:"pricingMessage,omitempty" json:"pricingMessage,omitempty"`
	ValuationSummary *string  `bson:"valuationSummary,omitempty" json:"valuationSummary,omitempty"`

	AuthenticityScore   *float64             `bson:"authenticityScore,omitempty" json:"authenticityScore,omitempty"`
	AuthenticitySignals *AuthenticitySignals `bson:"authenticitySignals,omitempty" json:"authenticitySignals,omitempty"`

	OCRMetadata *OCRAudit `bson:"ocrMetadata,omitempty" json:"ocrMetadata,omitempty"`
}

// OCRAudit is the always-stored raw OCR reasoning trail, independent of
// whether it was trusted enough to overwrite identification fields.
type OCRAudit struct {
	Name              FieldAudit `bson:"name" json:"name"`
	Set               FieldAudit `bson:"set" json:"set"`
	Rarity            FieldAudit `bson:"rarity" json:"rarity"`
	CollectorNumber   FieldAudit `bson:"collectorNumber" json:"collectorNumber"`
	Illustrator       FieldAudit `bson:"illustrator" json:"illustrator"`
	OverallConfidence float64    `bson:"overallConfidence" json:"overallConfidence"`
	ReasoningTrail    string     `bson:"reasoningTrail" json:"reasoningTrail"`
	VerifiedByAI      bool       `bson:"verifiedByAi" json:"verifiedByAi"`
	ExtractedAt       time.Time  `bson:"extractedAt" json:"extractedAt"`
}

// FieldAudit is a flattened, storage-friendly view of a CardMetadata field.
type FieldAudit struct {
	Value      *string `bson:"value,omitempty" json:"value,omitempty"`
	Confidence float64 `bson:"confidence" json:"confidence"`
	Rationale  string  `bson:"rationale" json:"rationale"`
}

// AuthenticitySignals holds the five independent authenticity sub-scores.
type AuthenticitySignals struct {
	VisualHash        float64 `bson:"visualHash" json:"visualHash"`
	TextMatch         float64 `bson:"textMatch" json:"textMatch"`
	HoloPattern       float64 `bson:"holoPattern" json:"holoPattern"`
	BorderConsistency float64 `bson:"borderConsistency" json:"borderConsistency"`
	FontValidation    float64 `bson:"fontValidation" json:"fontValidation"`
}

// Valid reports whether the card's numeric invariants hold (spec.md §8):
// 0<=authenticityScore<=1, 0<=idConfidence<=1, valueLow<=valueMedian<=valueHigh,
// compsCount>=0.
func (c *Card) Valid() bool {
	if c.AuthenticityScore != nil && (*c.AuthenticityScore < 0 || *c.AuthenticityScore > 1) {
		return false
	}
	if c.IDConfidence != nil && (*c.IDConfidence < 0 || *c.IDConfidence > 1) {
		return false
	}
	if c.ValueLow != nil && c.ValueMedian != nil && c.ValueHigh != nil {
		if !(*c.ValueLow <= *c.ValueMedian && *c.ValueMedian <= *c.ValueHigh) {
			return false
		}
	}
	if c.CompsCount != nil && *c.CompsCount < 0 {
		return false
	}
	return true
}

// IsDeleted reports whether the card has been soft-deleted.
func (c *Card) IsDeleted() bool { return c.DeletedAt != nil }
