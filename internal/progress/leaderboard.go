package progress

// Scoreable is a marked piece of student work: an assessment paper or a
// project submission.
type Scoreable interface {
	StudentKey() uint
	Amount() *float64
	MaxAmount() float64
	IsVerified() bool
}

// Standing is a student's leaderboard row.
type Standing struct {
	StudentID   uint    `json:"student_id"`
	Total       float64 `json:"total"`
	MaxPossible float64 `json:"max_possible"`
	Percentage  float64 `json:"percentage"`
	Count       int     `json:"count"`
	Rank        int     `json:"rank"`
}

// Rank builds the leaderboard from verified, scored submissions. Students
// with nothing eligible do not appear. Ranks are positional: equal
// percentages still receive consecutive ranks in encountered order.
func Rank[S Scoreable](submissions []S) []Standing {
	eligible := make([]S, 0, len(submissions))
	for _, submission := range submissions {
		if submission.IsVerified() && submission.Amount() != nil {
			eligible = append(eligible, submission)
		}
	}

	groups := GroupBy(eligible, func(s S) uint { return s.StudentKey() })
	entries := MapValues(groups, func(studentID uint, items []S) Standing {
		standing := Standing{StudentID: studentID, Count: len(items)}
		for _, item := range items {
			standing.Total += *item.Amount()
			standing.MaxPossible += item.MaxAmount()
		}
		if standing.MaxPossible > 0 {
			standing.Percentage = standing.Total / standing.MaxPossible * 100
		}
		return standing
	})

	standings := make([]Standing, 0, len(entries))
	for _, entry := range entries {
		standings = append(standings, entry.Value)
	}

	SortByPercentage(standings, func(s Standing) float64 { return s.Percentage })
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
