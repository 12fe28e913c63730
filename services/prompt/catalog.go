package prompt

import (
	"sort"
	"strings"
)

// RegionInfo is the static metadata used to ground a prompt in a place
type RegionInfo struct {
	Name    string
	Capital string
	Group   string
}

var regions = []RegionInfo{
	{Name: "Iraq", Capital: "Baghdad", Group: "Middle East"},
	{Name: "Syria", Capital: "Damascus", Group: "Middle East"},
	{Name: "Kurdistan Region", Capital: "Erbil", Group: "Middle East"},
	{Name: "Iran", Capital: "Tehran", Group: "Middle East"},
	{Name: "Turkey", Capital: "Ankara", Group: "Europe/Asia"},
	{Name: "Germany", Capital: "Berlin", Group: "Europe"},
	{Name: "Sweden", Capital: "Stockholm", Group: "Scandinavia"},
	{Name: "United States", Capital: "Washington D.C.", Group: "North America"},
	{Name: "All Europe", Capital: "Various", Group: "Europe"},
	{Name: "Global", Capital: "Worldwide", Group: "Global"},
}

// topicAngles maps a subject to the story angles a briefing should cover
var topicAngles = map[string][]string{
	"Breaking News": {
		"Urgent developments unfolding",
		"Major announcement made",
		"Critical situation emerging",
		"Breaking story developing",
	},
	"Politics": {
		"Political landscape shifting",
		"Diplomatic efforts intensifying",
		"Policy changes announced",
		"Election developments underway",
	},
	"Technology": {
		"Tech innovation accelerating",
		"Digital transformation progressing",
		"Startup ecosystem growing",
		"Research breakthroughs announced",
	},
	"Sports": {
		"Championship events concluding",
		"Record-breaking performances",
		"Team strategies evolving",
		"Athlete achievements celebrated",
	},
	"Business": {
		"Market trends showing positive signs",
		"Corporate strategies adapting",
		"Investment opportunities emerging",
		"Economic indicators improving",
	},
}

const defaultTopic = "Breaking News"

// LookupRegion returns the metadata for a region, matched case-insensitively.
// Unknown regions get generic placeholders and keep the caller's name.
func LookupRegion(name string) RegionInfo {
	for _, r := range regions {
		if strings.EqualFold(r.Name, name) {
			return r
		}
	}
	return RegionInfo{Name: name, Capital: "the region", Group: "the area"}
}

// TopicAngles returns the story angles for a subject, defaulting to breaking news
func TopicAngles(subject string) []string {
	for topic, angles := range topicAngles {
		if strings.EqualFold(topic, subject) {
			return angles
		}
	}
	return topicAngles[defaultTopic]
}

// SupportedRegions lists the regions with dedicated metadata
func SupportedRegions() []string {
	names := make([]string, len(regions))
	for i, r := range regions {
		names[i] = r.Name
	}
	return names
}

// SupportedTopics lists the subjects with dedicated phrasing, sorted
func SupportedTopics() []string {
	topics := make([]string, 0, len(topicAngles))
	for topic := range topicAngles {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}
