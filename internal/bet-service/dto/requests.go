package dto

type PlaceBetRequest struct {
	UserID     string `json:"userId"`
	RaceID     string `json:"raceId"`
	BetType    string `json:"betType"`    // "win" | "place"
	Selections []int  `json:"selections"` // ids das tartarugas (1..8)
	Amount     int64  `json:"amount"`     // won
}
