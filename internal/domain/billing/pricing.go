package billing

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Pricing constants for custom (free-text) quotes. All amounts are whole
// currency units.
var (
	customBaseCost = decimal.NewFromInt(500)

	rushSurcharges = map[RushTier]decimal.Decimal{
		RushTierStandard: decimal.Zero,
		RushTierPriority: decimal.NewFromInt(49),
		RushTierExpress:  decimal.NewFromInt(99),
	}

	rushReductions = map[RushTier]float64{
		RushTierStandard: 0,
		RushTierPriority: 0.25,
		RushTierExpress:  0.50,
	}
)

const (
	customBaseDays  = 7
	minTimelineDays = 2

	// Word-count thresholds for longer briefs
	longBriefWords     = 150
	veryLongBriefWords = 300

	// Fallback when a package carries a malformed delivery range
	defaultDeliveryMin = 7
	defaultDeliveryMax = 14
)

// complexitySurcharge couples a keyword group with its cost and timeline impact.
// Each group is applied at most once per description.
type complexitySurcharge struct {
	keywords []string
	cost     int64
	days     int
}

var complexitySurcharges = []complexitySurcharge{
	{keywords: []string{"complex", "advanced"}, cost: 400, days: 7},
	{keywords: []string{"api", "database", "backend", "integration"}, cost: 300, days: 5},
	{keywords: []string{"design", "ui", "ux", "branding"}, cost: 200, days: 3},
	{keywords: []string{"mobile", "responsive", "app"}, cost: 150, days: 2},
}

// QuoteInput is the input to the pricing engine
type QuoteInput struct {
	Description string
	Package     *ServicePackage
	RushTier    RushTier
}

// QuoteEstimate is the priced result of a quote request
type QuoteEstimate struct {
	Cost     decimal.Decimal
	Timeline string
}

// ComputeQuote prices a quote request. It is a pure function: identical
// input always yields an identical estimate, so the summary shown before
// submission matches the stored quote exactly.
func ComputeQuote(in QuoteInput) QuoteEstimate {
	if in.Package != nil {
		return computePackageQuote(in.Package, in.RushTier)
	}
	return computeCustomQuote(in.Description, in.RushTier)
}

func computePackageQuote(pkg *ServicePackage, rush RushTier) QuoteEstimate {
	cost := pkg.Price.Add(rushSurcharges[rush]).Round(0)

	minDays, maxDays := parseDeliveryRange(pkg.DeliveryRange)
	minDays, maxDays = applyRushToRange(minDays, maxDays, rush)

	return QuoteEstimate{
		Cost:     cost,
		Timeline: timelineLabel(minDays, maxDays),
	}
}

func computeCustomQuote(description string, rush RushTier) QuoteEstimate {
	cost := customBaseCost
	days := customBaseDays

	text := strings.ToLower(description)
	for _, s := range complexitySurcharges {
		for _, kw := range s.keywords {
			if strings.Contains(text, kw) {
				cost = cost.Add(decimal.NewFromInt(s.cost))
				days += s.days
				break
			}
		}
	}

	switch wc := len(strings.Fields(description)); {
	case wc > veryLongBriefWords:
		cost = cost.Add(decimal.NewFromInt(500))
	case wc > longBriefWords:
		cost = cost.Add(decimal.NewFromInt(250))
	}

	cost = cost.Add(rushSurcharges[rush]).Round(0)
	minDays, maxDays := applyRushToRange(days, days+5, rush)

	return QuoteEstimate{
		Cost:     cost,
		Timeline: timelineLabel(minDays, maxDays),
	}
}

// parseDeliveryRange parses a "min-max" day range such as "7-14" or
// "7-14 days". Malformed input falls back to the default range.
func parseDeliveryRange(s string) (int, int) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "days"))
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return defaultDeliveryMin, defaultDeliveryMax
	}

	minDays, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	maxDays, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || minDays <= 0 || maxDays < minDays {
		return defaultDeliveryMin, defaultDeliveryMax
	}
	return minDays, maxDays
}

// applyRushToRange scales both bounds by (1 - reduction), rounding up,
// then re-clamps so the range stays sane: min at least the floor, max at
// least min+1.
func applyRushToRange(minDays, maxDays int, rush RushTier) (int, int) {
	factor := 1 - rushReductions[rush]
	minDays = int(math.Ceil(float64(minDays) * factor))
	maxDays = int(math.Ceil(float64(maxDays) * factor))

	if minDays < minTimelineDays {
		minDays = minTimelineDays
	}
	if maxDays < minDays+1 {
		maxDays = minDays + 1
	}
	return minDays, maxDays
}

func timelineLabel(minDays, maxDays int) string {
	return fmt.Sprintf("%d-%d days", minDays, maxDays)
}
