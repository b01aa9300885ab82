package loan

import "github.com/holiman/uint256"

// PriceAt is the Dutch auction price at tick now:
// max(0, start - dropPerTick*(now-startTick)). A product that overflows 256
// bits floors the price to zero; a tick before startTick yields start.
func PriceAt(start, dropPerTick *uint256.Int, startTick, now uint64) *uint256.Int {
	if now <= startTick {
		return start.Clone()
	}
	decay, overflow := new(uint256.Int).MulOverflow(dropPerTick, uint256.NewInt(now-startTick))
	if overflow || !decay.Lt(start) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(start, decay)
}
