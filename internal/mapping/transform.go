package mapping

import "product-map/pkg/model"

// Annotate resolves every order line against the family map. The output
// preserves input order and count; lines whose SKU has no entry get
// Unmapped rather than failing.
func Annotate(lines []model.OrderLine, fm *FamilyMap) []model.AnnotatedOrderLine {
	out := make([]model.AnnotatedOrderLine, 0, len(lines))
	for _, line := range lines {
		family, ok := fm.Lookup(line.CompanyCode, line.ProductSKU)
		if !ok {
			family = Unmapped
		}
		out = append(out, model.AnnotatedOrderLine{
			OrderLine:  line,
			FamilyName: family,
		})
	}
	return out
}
