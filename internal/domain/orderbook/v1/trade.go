package orderbookv1

// Trade is an immutable record of one execution, created only by the
// book at match time. Price is always the resting order's price.
type Trade struct {
	Sequence     uint64 `json:"sequence"`
	TakerSide    Side   `json:"takerSide"`
	Price        int64  `json:"price"`
	Size         int64  `json:"size"`
	TakerOrderID string `json:"takerOrderID"`
	MakerOrderID string `json:"makerOrderID"`
	TakerUserID  string `json:"takerUserID"`
	MakerUserID  string `json:"makerUserID"`
	Timestamp    int64  `json:"timestamp"`
}
