package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/tripflow/pkg/tripflow/profile"
)

const systemPrompt = `You are an expert travel planner. Create a detailed travel plan based on the trip details provided.
Respond ONLY with a JSON object matching this exact structure, with no additional text:
{
  "summary": "Brief overview of the trip",
  "totalEstimatedCost": 1234.56,
  "days": [
    {
      "dayNumber": 1,
      "date": "YYYY-MM-DD",
      "accommodation": {"name": "...", "description": "...", "estimatedCost": 123.45},
      "transportation": [{"type": "...", "description": "...", "estimatedCost": 12.34}],
      "activities": [{"name": "...", "description": "...", "estimatedCost": 12.34, "timeOfDay": "morning|afternoon|evening"}],
      "meals": [{"type": "breakfast|lunch|dinner", "suggestion": "...", "estimatedCost": 12.34}],
      "dailyEstimatedCost": 123.45
    }
  ]
}
Keep the total estimated cost within the stated budget. Tailor every choice to the user's preferences and their priorities.`

// BuildPrompt renders the user message for a plan generation request.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "USER: %s\n", req.UserName)
	fmt.Fprintf(&b, "DESTINATION: %s\n", req.Destination)
	fmt.Fprintf(&b, "DATES: %s to %s (%d days)\n", req.StartDate, req.EndDate, dayCount(req.StartDate, req.EndDate))
	fmt.Fprintf(&b, "BUDGET: %.2f\n", req.Budget)
	fmt.Fprintf(&b, "USER PREFERENCES:\n%s", req.FormattedPreferences)
	return b.String()
}

// FormatPreferences renders a user's travel preferences grouped by type,
// one line per preference with its priority. An empty slice renders a
// fixed no-preferences line so the prompt shape stays stable.
func FormatPreferences(prefs []profile.Preference) string {
	if len(prefs) == 0 {
		return "No specific preferences provided."
	}

	grouped := make(map[profile.PreferenceType][]profile.Preference)
	for _, p := range prefs {
		grouped[p.Type] = append(grouped[p.Type], p)
	}

	var b strings.Builder
	for _, t := range preferenceOrder {
		group, ok := grouped[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", preferenceLabel(t))
		for _, p := range group {
			fmt.Fprintf(&b, "- %s (priority: %d)\n", p.Value, p.Priority)
		}
	}
	return b.String()
}

var preferenceOrder = []profile.PreferenceType{
	profile.PreferenceAccommodation,
	profile.PreferenceTransportation,
	profile.PreferenceCuisine,
	profile.PreferenceActivity,
	profile.PreferenceClimate,
	profile.PreferenceBudgetRange,
}

func preferenceLabel(t profile.PreferenceType) string {
	switch t {
	case profile.PreferenceAccommodation:
		return "Accommodation"
	case profile.PreferenceTransportation:
		return "Transportation"
	case profile.PreferenceCuisine:
		return "Food preferences"
	case profile.PreferenceActivity:
		return "Activities"
	case profile.PreferenceClimate:
		return "Climate"
	case profile.PreferenceBudgetRange:
		return "Budget range"
	default:
		return string(t)
	}
}

// dayCount returns the inclusive number of days between two YYYY-MM-DD
// dates. Unparseable dates fall back to a single day rather than failing
// the prompt build.
func dayCount(start, end string) int {
	const layout = "2006-01-02"
	s, err1 := time.Parse(layout, start)
	e, err2 := time.Parse(layout, end)
	if err1 != nil || err2 != nil || e.Before(s) {
		return 1
	}
	return int(e.Sub(s).Hours()/24) + 1
}
