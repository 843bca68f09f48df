// Package dedup detects exact and near-duplicate insight records against the
// accepted corpus using content hashes and term-frequency cosine similarity.
package dedup

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/reflectic/curation-cli/internal/config"
	"github.com/reflectic/curation-cli/internal/model"
)

// Match describes a detected duplicate relationship.
type Match struct {
	InsightID  string  `json:"insight_id"`
	MatchedID  string  `json:"matched_id"`
	Similarity float64 `json:"similarity"`
	Exact      bool    `json:"exact"`
}

// Deduper checks candidates against a corpus. The pairwise semantic pass is
// O(candidates x corpus); fine at the target scale of thousands of records.
// Beyond roughly 50k records an approximate index (MinHash/LSH over top
// terms) would be needed in its place.
type Deduper struct {
	cfg     config.DedupConfig
	hashes  map[string]string     // content hash -> insight id
	vectors map[string]TermVector // insight id -> term vector
	order   []string              // corpus ids in insertion order, for determinism
	pos     map[string]int        // insight id -> position in order
}

// New creates a Deduper seeded with the existing corpus.
func New(cfg config.DedupConfig, corpus []model.InsightRecord) *Deduper {
	d := &Deduper{
		cfg:     cfg,
		hashes:  make(map[string]string, len(corpus)),
		vectors: make(map[string]TermVector, len(corpus)),
		pos:     make(map[string]int, len(corpus)),
	}
	for i := range corpus {
		d.add(&corpus[i])
	}
	return d
}

func (d *Deduper) add(rec *model.InsightRecord) {
	if _, seen := d.hashes[rec.ContentHash]; !seen {
		d.hashes[rec.ContentHash] = rec.ID
	}
	d.vectors[rec.ID] = Vectorize(rec.Title + " " + rec.Body)
	d.pos[rec.ID] = len(d.order)
	d.order = append(d.order, rec.ID)
}

// CheckExact reports whether the record's content hash is already present
// in the corpus. Re-checking the same record id never matches itself, which
// keeps whole-corpus rescans idempotent.
func (d *Deduper) CheckExact(rec *model.InsightRecord) (Match, bool) {
	id, seen := d.hashes[rec.ContentHash]
	if !seen || id == rec.ID {
		return Match{}, false
	}
	return Match{InsightID: rec.ID, MatchedID: id, Similarity: 1.0, Exact: true}, true
}

// CheckSemantic computes cosine similarity between the record and the corpus
// records ahead of it in insertion order, returning the best match at or
// above the near-duplicate threshold. Comparing only backwards keeps the
// relation asymmetric: of a duplicate pair, the later record is flagged and
// the earlier one survives. The context is checked each iteration so long
// scans stay cancellable.
func (d *Deduper) CheckSemantic(ctx context.Context, rec *model.InsightRecord) (Match, bool, error) {
	vec, ok := d.vectors[rec.ID]
	if !ok {
		vec = Vectorize(rec.Title + " " + rec.Body)
	}
	limit := len(d.order)
	if p, ok := d.pos[rec.ID]; ok {
		limit = p
	}

	best := Match{InsightID: rec.ID}
	for _, id := range d.order[:limit] {
		if err := ctx.Err(); err != nil {
			return Match{}, false, err
		}
		sim := Cosine(vec, d.vectors[id])
		if sim > best.Similarity {
			best.Similarity = sim
			best.MatchedID = id
		}
	}

	if best.Similarity >= d.cfg.NearDuplicateThreshold {
		return best, true, nil
	}
	return Match{}, false, nil
}

// Observe registers a record in the corpus so later candidates in the same
// batch are checked against it.
func (d *Deduper) Observe(rec *model.InsightRecord) {
	if _, ok := d.vectors[rec.ID]; ok {
		return
	}
	d.add(rec)
}

// Flag converts a match into the flag the review queue stores. Exact and
// strong semantic duplicates carry confidence equal to their similarity;
// the near-duplicate band produces a lower-severity advisory flag.
func (d *Deduper) Flag(m Match) model.FlaggedInsight {
	flag := model.FlaggedInsight{
		InsightID:  m.InsightID,
		Category:   model.FlagDuplicate,
		Confidence: m.Similarity,
		Severity:   model.SeverityLow,
	}
	switch {
	case m.Exact:
		flag.Reason = fmt.Sprintf("exact duplicate of %s", m.MatchedID)
		flag.Confidence = 1.0
	case m.Similarity >= d.cfg.DuplicateThreshold:
		flag.Reason = fmt.Sprintf("semantic duplicate of %s (%.2f)", m.MatchedID, m.Similarity)
		flag.Severity = model.SeverityMedium
	default:
		flag.Reason = fmt.Sprintf("near-duplicate of %s (%.2f)", m.MatchedID, m.Similarity)
	}
	zap.L().Debug("dedup: match",
		zap.String("insight_id", m.InsightID),
		zap.String("matched_id", m.MatchedID),
		zap.Float64("similarity", m.Similarity),
		zap.Bool("exact", m.Exact),
	)
	return flag
}
