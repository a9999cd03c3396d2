package domain

const tokensPerPriceUnit = 1_000_000

// ComputeCostMicros converts token counts into a monetary cost in micros.
// Cached prompt tokens are billed at the cached input price, the remainder
// of the prompt at the input price, completions at the output price. All
// arithmetic stays in integer micro-token units; the result is rounded
// half-up exactly once.
func ComputeCostMicros(promptTokens, completionTokens, cachedTokens int64, pricing ModelPricing) (int64, error) {
	if promptTokens < 0 || completionTokens < 0 || cachedTokens < 0 {
		return 0, ErrInvalidTokenCount
	}
	if cachedTokens > promptTokens {
		return 0, ErrInvalidCachedTokens
	}

	total := (promptTokens-cachedTokens)*pricing.InputPricePerMillionMicros +
		cachedTokens*pricing.CachedInputPrice() +
		completionTokens*pricing.OutputPricePerMillionMicros

	return (total + tokensPerPriceUnit/2) / tokensPerPriceUnit, nil
}
