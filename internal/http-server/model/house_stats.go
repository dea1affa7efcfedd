package model

type HouseStats struct {
	Pool         uint64 `json:"pool"`
	HouseEdgeBps uint16 `json:"house_edge_bps"`
	MinBet       uint64 `json:"min_bet"`
	MaxBet       uint64 `json:"max_bet"`
	TotalGames   uint64 `json:"total_games"`
	TotalVolume  uint64 `json:"total_volume"`
	TotalPayout  uint64 `json:"total_payout"`
	HouseProfit  uint64 `json:"house_profit"`
}
