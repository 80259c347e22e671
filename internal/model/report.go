package model

import "time"

// Dashboard is the admin landing summary.
type Dashboard struct {
	TotalRespondents  int               `json:"total_respondents"`
	TotalSurveys      int               `json:"total_surveys"`
	CompletionRate    float64           `json:"completion_rate"`
	AverageTotalScore float64           `json:"average_total_score"`
	MaxTotalScore     int               `json:"max_total_score"`
	QuestionCount     int               `json:"question_count"`
	RecentCompletions []SearchResultRow `json:"recent_completions"`
}

// ChartData feeds the dashboard charts. Category and overall averages are mean
// item scores on the 1-5 scale; the trend is the mean total score per day.
type ChartData struct {
	Categories           []string        `json:"categories"`
	CategoryCodes        []string        `json:"category_codes"`
	Averages             []float64       `json:"averages"`
	OverallAverage       float64         `json:"overall_average"`
	ProgramStudies       []string        `json:"program_studies"`
	ProgramCounts        []int           `json:"program_counts"`
	SemesterLabels       []string        `json:"semester_labels"`
	SemesterDistribution []int           `json:"semester_distribution"`
	TotalRespondents     int             `json:"total_respondents"`
	TotalSurveys         int             `json:"total_surveys"`
	Trend                []TrendPoint    `json:"trend"`
	LowestQuestions      []QuestionScore `json:"lowest_questions"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// TrendPoint is the mean total score of responses completed on Date.
type TrendPoint struct {
	Date         string  `json:"date"`
	AverageScore float64 `json:"average_score"`
	Count        int     `json:"count"`
}

// QuestionScore is the mean score of one question over all responses.
type QuestionScore struct {
	Code         string  `json:"code"`
	Category     string  `json:"category"`
	Text         string  `json:"text"`
	AverageScore float64 `json:"average_score"`
	Answers      int     `json:"answers"`
}

// CategoryAverage is the mean item score of one category.
type CategoryAverage struct {
	Category     string
	AverageScore float64
}

// LabelCount is a generic grouped count.
type LabelCount struct {
	Label string
	Count int
}

// SearchFilter narrows the respondent search and exports.
type SearchFilter struct {
	Query     string `form:"q"`
	Program   string `form:"program"`
	Semester  int    `form:"semester" binding:"omitempty,min=1,max=8"`
	Completed *bool  `form:"completed"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PerPage   int    `form:"per_page" binding:"omitempty,min=1"`
}

// SearchResultRow is one respondent in search results, with the response summary when completed.
type SearchResultRow struct {
	Respondent
	ResponseID    *string    `json:"response_id"`
	TotalScore    *int       `json:"total_score"`
	QuestionCount *int       `json:"question_count"`
	AverageScore  *float64   `json:"average_score"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// SearchResult is a page of search rows plus the distinct programs for the filter list.
type SearchResult struct {
	Rows     []SearchResultRow `json:"rows"`
	Programs []string          `json:"program_list"`
	Total    int               `json:"-"`
	Page     int               `json:"-"`
	PerPage  int               `json:"-"`
}

// ExportRow is a completed response flattened for CSV/XLSX output.
type ExportRow struct {
	Respondent  Respondent
	TotalScore  int
	CompletedAt time.Time
	Scores      map[string]int
}

// ExportStats summarizes an export run.
type ExportStats struct {
	TotalRespondents  int
	TotalSurveys      int
	AverageTotalScore float64
	MaxTotalScore     int
}
