package domain

// QuestionScore is a question annotated with how its attempts went.
type QuestionScore struct {
	Question
	PassRate float64   `json:"passRate"`
	FailRate float64   `json:"failRate"`
	Attempts []Attempt `json:"attempts"`
}

// QuizDetails is a quiz annotated with participation figures.
// Plays approximates completed run-throughs from attempt volume, and
// AvgScore is PassRate divided by Plays; neither is a per-session measure.
type QuizDetails struct {
	Quiz
	PassRate float64   `json:"passRate"`
	FailRate float64   `json:"failRate"`
	Plays    int       `json:"plays"`
	AvgScore float64   `json:"avgScore"`
	Attempts []Attempt `json:"attempts"`
}

// EmployeeTally sums attempt outcomes across all of one employee's results.
type EmployeeTally struct {
	User  User `json:"user"`
	Pass  int  `json:"pass"`
	Fail  int  `json:"fail"`
	Total int  `json:"total"`
}

// QuizTally sums attempt outcomes across all results of one quiz.
type QuizTally struct {
	Quiz  Quiz `json:"quiz"`
	Pass  int  `json:"pass"`
	Fail  int  `json:"fail"`
	Total int  `json:"total"`
}

// EmployeeScore is a result with its score expressed as a percentage of the quiz.
type EmployeeScore struct {
	Result
	Quiz       Quiz    `json:"quiz"`
	Percentage float64 `json:"percentage"`
}

// QuizStatusCounts counts quizzes by their active flag.
type QuizStatusCounts struct {
	Active    int `json:"active"`
	NonActive int `json:"nonActive"`
}

// RoleCount is the number of users holding a role.
type RoleCount struct {
	Role  Role `json:"_id"`
	Total int  `json:"total"`
}
