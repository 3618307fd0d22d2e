package schema

import (
	"strconv"

	"github.com/tripplanner/itinerary-service/internal/model"
)

// ValidateStrict runs Validate and then checks the semantic rules that the
// prompt only requests: days numbered 1..n without gaps, one day per
// requested travel day, and a total within the budget ceiling.
func ValidateStrict(raw string, req model.TripRequest) Result {
	res := Validate(raw)
	if !res.OK {
		return res
	}
	var issues []Issue
	days := res.Output.Itinerary
	if req.TravelDays > 0 && len(days) != req.TravelDays {
		issues = append(issues, Issue{
			Path:    "itinerary",
			Message: "expected " + strconv.Itoa(req.TravelDays) + " day(s), received " + strconv.Itoa(len(days)),
		})
	}
	for i, d := range days {
		if d.Day != i+1 {
			issues = append(issues, Issue{
				Path:    join(join("itinerary", i), "day"),
				Message: "day numbers must be consecutive starting at 1; expected " + strconv.Itoa(i+1),
			})
		}
	}
	if res.Output.TotalEstimatedCost > req.Budget {
		issues = append(issues, Issue{
			Path:    "total_estimated_cost",
			Message: "total exceeds budget of " + strconv.FormatFloat(req.Budget, 'f', -1, 64) + " USD",
		})
	}
	if len(issues) > 0 {
		return failed(issues)
	}
	return res
}
