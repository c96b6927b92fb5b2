package app

import (
	"math"

	"quiz-admin-service/internal/domain"
)

// roundTo1 rounds half away from zero to one decimal place.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return roundTo1(float64(part) / float64(whole) * 100)
}

// Tally counts correct and wrong attempts.
func Tally(attempts []domain.Attempt) (correct, wrong int) {
	for _, a := range attempts {
		if a.Attempt {
			correct++
		} else {
			wrong++
		}
	}
	return correct, wrong
}

// Rates returns the pass and fail percentages of attempts. An empty set yields 0, 0.
func Rates(attempts []domain.Attempt) (passRate, failRate float64) {
	correct, wrong := Tally(attempts)
	total := len(attempts)
	if correct > 0 {
		passRate = percentage(correct, total)
	}
	if wrong > 0 {
		failRate = percentage(wrong, total)
	}
	return passRate, failRate
}

// Plays approximates completed run-throughs of a quiz from its attempt count.
// Fewer attempts than questions count one play per attempt.
func Plays(attemptCount, questionCount int) int {
	if questionCount == 0 || attemptCount < questionCount {
		return attemptCount
	}
	return int(math.Round(float64(attemptCount) / float64(questionCount)))
}

// AvgScore divides the pass rate by the number of plays, 0 when there were none.
func AvgScore(passRate float64, plays int) float64 {
	if plays == 0 {
		return 0
	}
	return roundTo1(passRate / float64(plays))
}

// TallyByEmployee merges results into one entry per employee ID, in order of first appearance.
// attempts and users are keyed by ID; results whose employee is unknown are skipped.
func TallyByEmployee(results []domain.Result, attempts map[string]domain.Attempt, users map[string]domain.User) []domain.EmployeeTally {
	index := make(map[string]int)
	out := make([]domain.EmployeeTally, 0)
	for _, r := range results {
		user, ok := users[r.EmployeeID]
		if !ok {
			continue
		}
		pass, fail := tallyResult(r, attempts)
		i, seen := index[r.EmployeeID]
		if !seen {
			index[r.EmployeeID] = len(out)
			out = append(out, domain.EmployeeTally{User: user})
			i = len(out) - 1
		}
		out[i].Pass += pass
		out[i].Fail += fail
		out[i].Total = out[i].Pass + out[i].Fail
	}
	return out
}

// TallyByQuiz merges results into one entry per quiz ID, in order of first appearance.
func TallyByQuiz(results []domain.Result, attempts map[string]domain.Attempt, quizzes map[string]domain.Quiz) []domain.QuizTally {
	index := make(map[string]int)
	out := make([]domain.QuizTally, 0)
	for _, r := range results {
		quiz, ok := quizzes[r.QuizID]
		if !ok {
			continue
		}
		pass, fail := tallyResult(r, attempts)
		i, seen := index[r.QuizID]
		if !seen {
			index[r.QuizID] = len(out)
			out = append(out, domain.QuizTally{Quiz: quiz})
			i = len(out) - 1
		}
		out[i].Pass += pass
		out[i].Fail += fail
		out[i].Total = out[i].Pass + out[i].Fail
	}
	return out
}

func tallyResult(r domain.Result, attempts map[string]domain.Attempt) (pass, fail int) {
	for _, id := range r.AttemptIDs {
		a, ok := attempts[id]
		if !ok {
			continue
		}
		if a.Attempt {
			pass++
		} else {
			fail++
		}
	}
	return pass, fail
}
