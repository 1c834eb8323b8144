package topics

const (
	// Corridas
	RaceFinished = "race_finished"

	// Apostas
	BetPlaced  = "bet_placed"
	BetSettled = "bet_settled"

	// DLQs
	RaceFinishedDLQ = "race_finished_dlq"
	BetSettledDLQ   = "bet_settled_dlq"
)
