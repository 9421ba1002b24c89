package engine

// Quota is the outcome of the inventory throttle for one sell cycle.
type Quota struct {
	// ListThisCycle is how many new listings the bot may create.
	ListThisCycle int
	// MaxPerBot is this bot's fair share of the house maximum.
	MaxPerBot int
	// Skip is set when selling must not happen at all this cycle.
	Skip bool
	// Reason explains a skip for the cycle log.
	Reason string
}

// SellQuota computes how many listings a bot may add this cycle from the
// configured house totals and the fair per-bot share.
//
// maxPerBot = ceil(maxTotal/numBots); a bot at or above its share skips
// the cycle, and a house at or above maxTotal (or with maxTotal == 0)
// skips market-wide.
func SellQuota(cfg *HouseConfig, totalListings, botListings, numBots int) Quota {
	if cfg.MaxTotal == 0 || totalListings >= cfg.MaxTotal {
		return Quota{Skip: true, Reason: "house at capacity"}
	}

	if numBots < 1 {
		numBots = 1
	}
	maxPerBot := (cfg.MaxTotal + numBots - 1) / numBots

	if botListings >= maxPerBot {
		return Quota{MaxPerBot: maxPerBot, Skip: true, Reason: "bot at fair share"}
	}

	slots := maxPerBot - botListings
	n := cfg.ItemsPerCycle
	if n > slots {
		n = slots
	}

	return Quota{ListThisCycle: n, MaxPerBot: maxPerBot}
}

// MinPerBot is the fair per-bot share of the configured house minimum,
// exposed for the status surface.
func MinPerBot(cfg *HouseConfig, numBots int) int {
	if numBots < 1 {
		numBots = 1
	}
	return (cfg.MinTotal + numBots - 1) / numBots
}
