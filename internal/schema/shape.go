package schema

// JSONSpec documents the expected output shape for prompt injection.
// It must stay in step with the checks in Validate.
const JSONSpec = `Return ONLY a valid JSON object with this exact structure (no markdown, no explanations):
{
  "itinerary": [
    {
      "day": 1,
      "title": "Day title",
      "activities": [
        {
          "time": "09:00 AM",
          "name": "Activity name",
          "description": "Detailed description",
          "location": "Specific location",
          "cost": 50,
          "duration": "2 hours"
        }
      ],
      "estimated_cost": 150,
      "tips": ["Tip 1", "Tip 2"]
    }
  ],
  "total_estimated_cost": 1000
}`

// Field bounds for the itinerary shape.
const (
	MaxTitleLen       = 200
	MaxNameLen        = 200
	MaxDescriptionLen = 1000
	MaxLocationLen    = 300
	MaxDurationLen    = 100
	MaxTipLen         = 500
	MinActivities     = 1
	MaxActivities     = 20
	MaxTips           = 10
)
