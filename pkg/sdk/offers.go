package jobmatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/jobmatch/internal/db"
	"github.com/kailas-cloud/jobmatch/internal/domain"
)

// Offer is one job offer to ingest into the corpus. Vectors may be
// precomputed; when absent, the configured embedder vectorizes the title
// and description on upsert.
type Offer struct {
	ID            string
	Title         string
	Company       string
	Description   string
	IngestionDate string // "2006-01-02", optional partition key

	TitleVector []float64
	DescVector  []float64
}

// hashWriter is the consumer interface for offer ingestion (ISP).
type hashWriter interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// OfferService ingests offers into the corpus backing the vector indexes.
type OfferService struct {
	store      hashWriter
	embedder   domain.Embedder
	keyPrefix  string
	dimensions int
	obs        *observer
}

// Upsert writes one offer. The indexes pick the document up automatically.
func (s *OfferService) Upsert(ctx context.Context, offer Offer) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("offer_upsert", start, err) }()

	return s.upsert(ctx, offer)
}

// UpsertBatch writes offers one by one, stopping at the first failure.
func (s *OfferService) UpsertBatch(ctx context.Context, offers []Offer) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("offer_upsert_batch", start, err) }()

	for i, offer := range offers {
		if err := s.upsert(ctx, offer); err != nil {
			return fmt.Errorf("offer [%d]: %w", i, err)
		}
	}
	return nil
}

func (s *OfferService) upsert(ctx context.Context, offer Offer) error {
	if offer.ID == "" {
		return fmt.Errorf("offer id: %w", domain.ErrEmptyInput)
	}
	if offer.Title == "" && offer.Description == "" {
		return fmt.Errorf("offer %s has no text: %w", offer.ID, domain.ErrEmptyInput)
	}

	titleVec, err := s.resolveVector(ctx, offer.TitleVector, offer.Title, offer.Description)
	if err != nil {
		return fmt.Errorf("offer %s title vector: %w", offer.ID, err)
	}
	descVec, err := s.resolveVector(ctx, offer.DescVector, offer.Description, offer.Title)
	if err != nil {
		return fmt.Errorf("offer %s description vector: %w", offer.ID, err)
	}

	fields := map[string]string{
		"id":             offer.ID,
		"title":          offer.Title,
		"company":        offer.Company,
		"description":    offer.Description,
		"ingestion_date": offer.IngestionDate,
		"title_vector":   db.VectorBytes(titleVec),
		"desc_vector":    db.VectorBytes(descVec),
	}

	if err := s.store.HSet(ctx, s.keyPrefix+"offers:"+offer.ID, fields); err != nil {
		return fmt.Errorf("write offer %s: %w: %w", offer.ID, domain.ErrBackendUnavailable, err)
	}
	return nil
}

// resolveVector returns the precomputed vector after a dimension check,
// or embeds the text (falling back to the alternate field when empty).
func (s *OfferService) resolveVector(
	ctx context.Context, precomputed []float64, text, fallback string,
) ([]float64, error) {
	if len(precomputed) > 0 {
		if len(precomputed) != s.dimensions {
			return nil, domain.NewShapeError(s.dimensions, len(precomputed))
		}
		return precomputed, nil
	}

	if text == "" {
		text = fallback
	}
	res, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(res.Embedding) != s.dimensions {
		return nil, domain.NewShapeError(s.dimensions, len(res.Embedding))
	}
	return res.Embedding, nil
}
