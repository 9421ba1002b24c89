package engine

import (
	"log/slog"
	"math/rand"
)

// retryCeiling bounds the re-draw loop when every queued candidate has
// been rejected; hitting it abandons the remaining slot for this cycle.
const retryCeiling = 32

// Candidate is one sellable item template picked by the selector.
// Bucket is -1 when the item does not belong to any configured bin.
type Candidate struct {
	ItemID int64
	Bucket int
}

// Selector yields a priority-ordered, deduplicated sequence of item
// templates for one sell cycle. All bookkeeping (bucket counts, the
// bot's stack counts) is cycle-local: it is seeded from a fresh market
// scan at cycle start and never shared across bots or cycles.
type Selector struct {
	cfg       *HouseConfig
	rng       *rand.Rand
	listed    map[int64]bool
	botStacks map[int64]int32
	counts    [NumBuckets]int32
	bucketOf  map[int64]int
	queue     []int64
	pos       int
}

// NewSelector builds the selector for one cycle. listed holds every
// template currently on the house (any owner), botStacks the calling
// bot's live stacks per template, counts the bot-attributable listings
// per bucket.
func NewSelector(cfg *HouseConfig, rng *rand.Rand, listed map[int64]bool, botStacks map[int64]int32, counts [NumBuckets]int32) *Selector {
	s := &Selector{
		cfg:       cfg,
		rng:       rng,
		listed:    listed,
		botStacks: botStacks,
		counts:    counts,
		bucketOf:  make(map[int64]int),
	}
	for b, bin := range cfg.Bins {
		for _, id := range bin {
			s.bucketOf[id] = b
		}
	}
	s.queue = s.buildQueue()
	return s
}

// buildQueue concatenates the four candidate tiers, each shuffled:
//
//  1. overridden items not yet listed on the house
//  2. all overridden items
//  3. bucketed items not yet listed, buckets under cap only
//  4. every bucketed item, buckets under cap only (fallback pool)
//
// Tiers 3 and 4 collect buckets rarest-first, discrete items before
// trade goods at each rarity.
func (s *Selector) buildQueue() []int64 {
	var queue []int64

	var tier []int64
	for id := range s.cfg.Overrides {
		if !s.listed[id] {
			tier = append(tier, id)
		}
	}
	shuffle(s.rng, tier)
	queue = append(queue, tier...)

	tier = tier[:0]
	for id := range s.cfg.Overrides {
		tier = append(tier, id)
	}
	shuffle(s.rng, tier)
	queue = append(queue, tier...)

	tier = tier[:0]
	for _, b := range bucketPriority {
		if s.counts[b] >= s.cfg.BucketCaps[b] {
			continue
		}
		for _, id := range s.cfg.Bins[b] {
			if !s.listed[id] {
				tier = append(tier, id)
			}
		}
	}
	shuffle(s.rng, tier)
	queue = append(queue, tier...)

	tier = tier[:0]
	for _, b := range bucketPriority {
		if s.counts[b] >= s.cfg.BucketCaps[b] {
			continue
		}
		tier = append(tier, s.cfg.Bins[b]...)
	}
	shuffle(s.rng, tier)
	queue = append(queue, tier...)

	return queue
}

// Next yields the next valid candidate. ok is false when the queue and
// the bounded re-draw loop are both exhausted; the caller abandons the
// slot for this cycle.
func (s *Selector) Next() (Candidate, bool) {
	for s.pos < len(s.queue) {
		id := s.queue[s.pos]
		s.pos++
		if c, ok := s.validate(id); ok {
			return c, true
		}
	}

	// Queue exhausted: re-draw directly from the bins in rarity order.
	for attempt := 0; attempt < retryCeiling; attempt++ {
		for _, b := range bucketPriority {
			bin := s.cfg.Bins[b]
			if len(bin) == 0 || s.counts[b] >= s.cfg.BucketCaps[b] {
				continue
			}
			id := bin[urand(s.rng, 0, int64(len(bin)-1))]
			if c, ok := s.validate(id); ok {
				return c, true
			}
		}
	}

	slog.Debug("No sellable candidate found", slog.String("house", s.cfg.House.String()))
	return Candidate{}, false
}

// Commit records that the candidate was actually listed, advancing the
// cycle-local bucket and duplicate bookkeeping.
func (s *Selector) Commit(c Candidate) {
	if c.Bucket >= 0 {
		s.counts[c.Bucket]++
	}
	s.botStacks[c.ItemID]++
}

func (s *Selector) validate(id int64) (Candidate, bool) {
	bucket, inBin := s.bucketOf[id]
	if !inBin {
		bucket = -1
	}
	if bucket >= 0 && s.counts[bucket] >= s.cfg.BucketCaps[bucket] {
		return Candidate{}, false
	}
	if s.cfg.DuplicatesCap > 0 && s.botStacks[id] >= int32(s.cfg.DuplicatesCap) {
		return Candidate{}, false
	}
	return Candidate{ItemID: id, Bucket: bucket}, true
}
