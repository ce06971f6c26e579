package rental

// LineTotal prices a line; rental period pricing is already folded into the
// unit price by the backend.
func LineTotal(unitPrice float64, quantity int) float64 {
	return unitPrice * float64(quantity)
}

// ComputeTotal sums line totals, using overrides[line.ID] in place of the
// stored unit price when present. Tax is not included.
func ComputeTotal(lines []QuotationLine, overrides map[string]float64) float64 {
	var total float64
	for _, line := range lines {
		price := line.UnitPrice
		if override, ok := overrides[line.ID]; ok {
			price = override
		}
		total += LineTotal(price, line.Quantity)
	}
	return total
}
