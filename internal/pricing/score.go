package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/Leo190198/promoShare/internal/domain"
)

// Score ranks a catalog product for the suggestion queue. Commission
// dominates, rating and demand contribute, sales are clamped so a single
// viral product cannot bury everything else. Missing or malformed fields
// count as zero. Rounded to four decimals so equal inputs always produce
// byte-equal scores.
func Score(node domain.CatalogProduct) float64 {
	commission := lenientFloat(node.CommissionRate)
	rating := lenientFloat(node.RatingStar)

	var sales int64
	if node.Sales != nil {
		sales = *node.Sales
	}
	if sales > 5000 {
		sales = 5000
	}

	var discount int64
	if node.PriceDiscountRate != nil {
		discount = *node.PriceDiscountRate
	}

	score := commission*100 + rating*2 + float64(sales)/200 + float64(discount)/10
	return math.Round(score*10000) / 10000
}

// lenientFloat parses a decimal that may use a comma separator. Anything
// unparseable is zero.
func lenientFloat(v *string) float64 {
	if v == nil {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(*v), ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}
