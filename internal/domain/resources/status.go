package resources

// statusForQuantity classifies stock on the intake side (new resources,
// top-ups, and post-allocation counts). Anything at or below zero is out of
// stock and below five is low, so the shelf flags thin stock before it runs
// dry.
func statusForQuantity(quantity int) string {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity < 5:
		return StatusLowStock
	default:
		return StatusAvailable
	}
}

// statusAfterReturn classifies stock after a return put units back. The
// boundary differs from the intake side: exactly five after a return still
// reads Low Stock, and only a count strictly above five clears the flag.
func statusAfterReturn(quantity int) string {
	switch {
	case quantity > 5:
		return StatusAvailable
	case quantity > 0:
		return StatusLowStock
	default:
		return StatusOutOfStock
	}
}
