// Package analytics derives trending topics, hourly aggregates and
// source/topic breakdowns from a normalized article stream. Every function
// is pure: no I/O, no shared state, safe to call on every feed update.
package analytics

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kaleidonews/kaleido/internal/models"
)

// topicKeywords maps each tracked topic to the title substrings that
// indicate it. Matching is case-insensitive; an article may contribute to
// several topics.
var topicKeywords = map[string][]string{
	"Foreign Policy": {"war", "military", "ukraine", "russia", "china", "nato", "israel", "gaza", "iran", "diplomat", "treaty", "sanctions"},
	"Economy":        {"economy", "inflation", "market", "fed", "tariff", "jobs", "tax", "gdp", "recession", "trade"},
	"Healthcare":     {"health", "hospital", "vaccine", "medicare", "medicaid", "drug", "fda", "insurance"},
	"Climate":        {"climate", "wildfire", "hurricane", "flood", "emission", "drought", "epa", "renewable"},
	"Technology":     {"tech", "ai", "artificial intelligence", "cyber", "software", "chip", "silicon valley", "data"},
	"Elections":      {"election", "vote", "campaign", "poll", "ballot", "primary", "candidate"},
	"Justice":        {"court", "judge", "trial", "lawsuit", "indict", "supreme court", "doj", "prosecutor"},
	"Immigration":    {"border", "immigration", "migrant", "asylum", "deport", "visa"},
}

// criticalTopics feeds the sentiment proxy: the larger the share of
// mentions these topics take in an hour, the lower that hour's score.
var criticalTopics = map[string]bool{
	"Foreign Policy": true,
	"Justice":        true,
	"Climate":        true,
}

// TrendingTopic is one topic's activity summary, ranked by velocity.
type TrendingTopic struct {
	Topic    string  `json:"topic"`
	Count    int     `json:"count"`
	Sources  int     `json:"sources"`
	Velocity float64 `json:"velocity"`
}

// HourlyBucket aggregates one local hour of publishing activity.
type HourlyBucket struct {
	Hour      string         `json:"hour"`
	Count     int            `json:"count"`
	Topics    map[string]int `json:"topics"`
	Sentiment int            `json:"sentiment"`
}

// ChartPoint is the per-hour series shape chart consumers plot directly.
type ChartPoint struct {
	Hour      string `json:"hour"`
	Count     int    `json:"count"`
	Sentiment int    `json:"sentiment"`
}

// Narrative is one top trending topic with its share of trending volume.
type Narrative struct {
	Topic    string  `json:"topic"`
	Count    int     `json:"count"`
	Velocity float64 `json:"velocity"`
	Share    float64 `json:"share"`
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// ExtractTopics returns every tracked topic whose keywords appear in the
// title, or ["General"] when none match. The keyword table is built of
// stems, so a keyword matches any title word that starts with it
// ("market" covers "markets", "vote" covers "voters"); anchoring only the
// left boundary keeps short keywords like "ai" from firing mid-word.
func ExtractTopics(title string) []string {
	normalized := " " + nonWord.ReplaceAllString(strings.ToLower(title), " ") + " "
	var topics []string
	for topic, keywords := range topicKeywords {
		for _, kw := range keywords {
			if strings.Contains(normalized, " "+kw) {
				topics = append(topics, topic)
				break
			}
		}
	}
	if len(topics) == 0 {
		return []string{"General"}
	}
	sort.Strings(topics)
	return topics
}

// TrendingTopics groups articles by extracted topic and ranks topics by
// velocity: recent activity (last hour) weighted against the hour before.
// An empty prior window doubles the recent count; otherwise velocity is
// (recent/previous) x recent.
func TrendingTopics(articles []models.Article, now time.Time) []TrendingTopic {
	type bucket struct {
		count    int
		sources  map[string]bool
		recent   int
		previous int
	}
	buckets := make(map[string]*bucket)

	for _, a := range articles {
		age := now.Sub(a.PublishedAt)
		for _, topic := range ExtractTopics(a.Title) {
			b := buckets[topic]
			if b == nil {
				b = &bucket{sources: make(map[string]bool)}
				buckets[topic] = b
			}
			b.count++
			b.sources[a.Source] = true
			switch {
			case age >= 0 && age < time.Hour:
				b.recent++
			case age >= time.Hour && age < 2*time.Hour:
				b.previous++
			}
		}
	}

	trending := make([]TrendingTopic, 0, len(buckets))
	for topic, b := range buckets {
		var velocity float64
		if b.previous == 0 {
			velocity = float64(2 * b.recent)
		} else {
			velocity = float64(b.recent) / float64(b.previous) * float64(b.recent)
		}
		trending = append(trending, TrendingTopic{
			Topic:    topic,
			Count:    b.count,
			Sources:  len(b.sources),
			Velocity: velocity,
		})
	}

	sort.Slice(trending, func(i, j int) bool {
		if trending[i].Velocity != trending[j].Velocity {
			return trending[i].Velocity > trending[j].Velocity
		}
		if trending[i].Count != trending[j].Count {
			return trending[i].Count > trending[j].Count
		}
		return trending[i].Topic < trending[j].Topic
	})
	return trending
}

// HourlyAggregates buckets articles by local hour of publish, with a
// per-topic breakdown and sentiment score per bucket, sorted ascending by
// hour key.
func HourlyAggregates(articles []models.Article) []HourlyBucket {
	byHour := make(map[string]*HourlyBucket)
	for _, a := range articles {
		hour := a.PublishedAt.Local().Format("15") + ":00"
		b := byHour[hour]
		if b == nil {
			b = &HourlyBucket{Hour: hour, Topics: make(map[string]int)}
			byHour[hour] = b
		}
		b.Count++
		for _, topic := range ExtractTopics(a.Title) {
			b.Topics[topic]++
		}
	}

	buckets := make([]HourlyBucket, 0, len(byHour))
	for _, b := range byHour {
		b.Sentiment = sentiment(b.Topics)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Hour < buckets[j].Hour })
	return buckets
}

// sentiment scores one hour's topic mix 0-100: the fewer critical-topic
// mentions, the higher the score. An empty bucket is neutral.
func sentiment(topics map[string]int) int {
	total := 0
	critical := 0
	for topic, count := range topics {
		total += count
		if criticalTopics[topic] {
			critical += count
		}
	}
	if total == 0 {
		return 50
	}
	return int((1 - float64(critical)/float64(total)) * 100)
}

// SourceTopicMatrix counts topic occurrences per source in one pass.
func SourceTopicMatrix(articles []models.Article) map[string]map[string]int {
	matrix := make(map[string]map[string]int)
	for _, a := range articles {
		row := matrix[a.Source]
		if row == nil {
			row = make(map[string]int)
			matrix[a.Source] = row
		}
		for _, topic := range ExtractTopics(a.Title) {
			row[topic]++
		}
	}
	return matrix
}

// ChartData flattens hourly aggregates into the series shape charts plot.
func ChartData(hourly []HourlyBucket) []ChartPoint {
	points := make([]ChartPoint, 0, len(hourly))
	for _, b := range hourly {
		points = append(points, ChartPoint{Hour: b.Hour, Count: b.Count, Sentiment: b.Sentiment})
	}
	return points
}

// NarrativeData returns the top limit trending topics with each topic's
// share of the counted trending volume.
func NarrativeData(trending []TrendingTopic, limit int) []Narrative {
	if limit <= 0 || limit > len(trending) {
		limit = len(trending)
	}
	total := 0
	for _, t := range trending {
		total += t.Count
	}

	narratives := make([]Narrative, 0, limit)
	for _, t := range trending[:limit] {
		share := 0.0
		if total > 0 {
			share = float64(t.Count) / float64(total) * 100
		}
		narratives = append(narratives, Narrative{
			Topic:    t.Topic,
			Count:    t.Count,
			Velocity: t.Velocity,
			Share:    share,
		})
	}
	return narratives
}
