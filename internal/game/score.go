package game

import "math"

const (
	correctPoints   = 100
	incorrectPoints = 25
	correctXP       = 10
	incorrectXP     = 2

	// Answers faster than this earn a linear time bonus.
	bonusWindowMs = 5000
)

// Score computes the points and xp for one evaluated answer.
//
//	mult      = max(difficulty, 1)
//	timeBonus = max(0, 5000-elapsedMs)/1000 when elapsedMs > 0
//	points    = round((base + timeBonus) * mult)
//	xp        = round(baseXp * mult)
//
// Incorrect answers still earn a consolation score.
func Score(isCorrect bool, difficulty int, elapsedMs *int64) (points, xp int) {
	mult := float64(max(difficulty, 1))

	basePoints, baseXP := float64(incorrectPoints), float64(incorrectXP)
	if isCorrect {
		basePoints, baseXP = correctPoints, correctXP
	}

	var bonus float64
	if elapsedMs != nil && *elapsedMs > 0 {
		bonus = float64(max(0, bonusWindowMs-*elapsedMs)) / 1000
	}

	points = max(0, int(math.Round((basePoints+bonus)*mult)))
	xp = max(0, int(math.Round(baseXP*mult)))
	return points, xp
}
