package validate

import (
	"math"
	"sort"

	"github.com/reflectic/curation-cli/internal/model"
)

// domainTargets are fixed design constants summing to 1.0. Each category's
// target share is its domain target divided by the number of categories in
// that domain.
var domainTargets = map[model.Domain]float64{
	model.DomainPain:         0.20,
	model.DomainJoy:          0.20,
	model.DomainConnection:   0.25,
	model.DomainGrowth:       0.20,
	model.DomainAuthenticity: 0.15,
}

// Under/over band edges relative to target count. A category sitting exactly
// on the 50% boundary counts as under; over requires strictly exceeding 150%.
const (
	underRatio = 0.5
	overRatio  = 1.5
)

// DomainTarget returns the fixed target share for a domain.
func DomainTarget(d model.Domain) float64 {
	return domainTargets[d]
}

// CategoryTargetShare returns the corpus share a single category should hold.
func CategoryTargetShare(category string) float64 {
	domain, ok := model.DomainOf(category)
	if !ok {
		return 0
	}
	n := model.CategoriesInDomain(domain)
	if n == 0 {
		return 0
	}
	return domainTargets[domain] / float64(n)
}

// ComputeBalance recomputes the category balance view from the live corpus.
// It is a derived view: never persisted as ground truth.
func ComputeBalance(corpus []model.InsightRecord) []model.CategoryBalance {
	counts := make(map[string]int)
	for i := range corpus {
		counts[corpus[i].Category]++
	}
	total := len(corpus)

	categories := model.Categories()
	sort.Strings(categories)

	out := make([]model.CategoryBalance, 0, len(categories))
	for _, cat := range categories {
		domain, _ := model.DomainOf(cat)
		target := int(math.Ceil(float64(total) * CategoryTargetShare(cat)))
		out = append(out, model.CategoryBalance{
			Category:    cat,
			Domain:      domain,
			Count:       counts[cat],
			TargetCount: target,
			Status:      balanceStatus(counts[cat], target),
		})
	}
	return out
}

func balanceStatus(count, target int) model.BalanceStatus {
	if target == 0 {
		if count > 0 {
			return model.BalanceOver
		}
		return model.BalanceBalanced
	}
	c := float64(count)
	t := float64(target)
	switch {
	case c <= t*underRatio:
		return model.BalanceUnder
	case c > t*overRatio:
		return model.BalanceOver
	default:
		return model.BalanceBalanced
	}
}

// BalanceScore reduces the balance view to a corpus-wide 0-100 score: the
// share of categories in the balanced band. An empty corpus scores 100.
func BalanceScore(balances []model.CategoryBalance) float64 {
	if len(balances) == 0 {
		return 100
	}
	total := 0
	balanced := 0
	for _, b := range balances {
		total++
		if b.Status == model.BalanceBalanced {
			balanced++
		}
	}
	return float64(balanced) / float64(total) * 100
}
