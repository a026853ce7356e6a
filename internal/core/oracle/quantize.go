package oracle

// Quantize floors timestamp onto the resolution grid. Timestamps below one
// step map to 0. A zero resolution leaves the timestamp unchanged.
func Quantize(timestamp uint64, resolution uint32) uint64 {
	if resolution == 0 {
		return timestamp
	}
	return timestamp - timestamp%uint64(resolution)
}
