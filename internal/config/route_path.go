package config

import "fmt"

// APIPrefix is the versioned prefix shared by every HTTP route.
const APIPrefix = "/api/v1"

type RoutePathStruct struct{}

// Registration is where respondents without a usable survey session are sent.
func (RoutePathStruct) Registration() string {
	return APIPrefix + "/respondents"
}

// SurveyStep is the URL of one category step.
func (RoutePathStruct) SurveyStep(respondentID int, category string) string {
	return fmt.Sprintf("%s/survey/%d/%s", APIPrefix, respondentID, category)
}

// SurveyComplete is the confirmation page of a finished survey.
func (RoutePathStruct) SurveyComplete(respondentID int) string {
	return fmt.Sprintf("%s/survey/%d/complete", APIPrefix, respondentID)
}

var RoutePath = RoutePathStruct{}
