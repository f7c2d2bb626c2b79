package transcript

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hupe1980/agentgraph/core"
)

// Keyword heuristics used when the model leaves parts of the summary empty.
// Matching is case-insensitive and anchored on word boundaries, so short
// terms such as "api" never match inside longer words.

// MaxSentimentStatements caps highlights and lowlights found by AnalyzeSentiment.
const MaxSentimentStatements = 5

// minSentenceLength skips fragments too short to be meaningful statements.
const minSentenceLength = 20

var technologyTerms = []string{
	// languages
	"python", "javascript", "typescript", "java", "c++", "c#", "golang", "rust",
	"kotlin", "swift", "php", "ruby", "scala", "matlab", "julia",
	// frontend
	"react", "angular", "vue", "svelte", "next.js", "nuxt", "gatsby",
	"html", "css", "sass", "tailwind", "bootstrap", "jquery", "webpack", "vite",
	// backend
	"node.js", "express", "fastapi", "django", "flask", "spring boot",
	"laravel", "rails", "asp.net", "socket.io", "crdt", "operational transformation",
	// data stores
	"postgresql", "mysql", "mongodb", "redis", "elasticsearch", "sqlite",
	"cassandra", "dynamodb", "firestore", "neo4j", "clickhouse",
	// cloud and ops
	"aws", "gcp", "azure", "docker", "kubernetes", "jenkins", "github actions",
	"terraform", "ansible", "helm", "prometheus", "grafana", "datadog",
	// data and ml
	"tensorflow", "pytorch", "scikit-learn", "pandas", "numpy", "jupyter",
	"apache spark", "hadoop", "kafka", "airflow",
	// tooling
	"jest", "pytest", "junit", "selenium", "cypress", "postman", "git",
	"vs code", "intellij", "vim", "jira", "confluence",
	// concepts
	"microservices", "api", "rest", "graphql", "grpc", "websockets",
	"oauth", "jwt", "ci/cd", "agile", "scrum", "tdd", "design patterns",
}

var companyTerms = []string{
	"google", "microsoft", "amazon", "apple", "meta", "facebook", "netflix",
	"tesla", "uber", "airbnb", "spotify", "slack", "zoom", "salesforce",
	"oracle", "ibm", "intel", "nvidia", "amd", "adobe", "twitter",
	"linkedin", "github", "gitlab", "atlassian", "databricks", "snowflake",
	"cloudflare", "stripe", "shopify", "paypal", "dropbox", "pinterest",
	"reddit", "discord", "twitch",
}

var locationTerms = []string{
	"san francisco", "new york", "seattle", "austin", "boston", "chicago",
	"los angeles", "denver", "atlanta", "miami", "toronto", "vancouver",
	"london", "berlin", "amsterdam", "singapore", "sydney", "tokyo",
	"remote", "hybrid", "on-site", "work from home", "wfh",
}

// displayNames overrides title casing for terms with their own spelling.
var displayNames = map[string]string{
	"javascript": "JavaScript", "typescript": "TypeScript", "c++": "C++", "c#": "C#",
	"golang": "Go", "php": "PHP", "html": "HTML", "css": "CSS", "sass": "Sass",
	"jquery": "jQuery", "fastapi": "FastAPI", "postgresql": "PostgreSQL",
	"mysql": "MySQL", "mongodb": "MongoDB", "sqlite": "SQLite", "dynamodb": "DynamoDB",
	"clickhouse": "ClickHouse", "aws": "AWS", "gcp": "GCP", "pytorch": "PyTorch",
	"tensorflow": "TensorFlow", "numpy": "NumPy", "vs code": "VS Code",
	"intellij": "IntelliJ", "api": "API", "rest": "REST", "graphql": "GraphQL",
	"grpc": "gRPC", "websockets": "WebSockets", "oauth": "OAuth", "jwt": "JWT",
	"ci/cd": "CI/CD", "tdd": "TDD", "crdt": "CRDT", "github": "GitHub",
	"gitlab": "GitLab", "linkedin": "LinkedIn", "ibm": "IBM", "amd": "AMD",
	"nvidia": "NVIDIA", "paypal": "PayPal", "github actions": "GitHub Actions",
	"wfh": "WFH", "on-site": "On-Site",
}

var (
	personPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z]\.\s*[A-Z][a-z]+\b`), // First M. Last
		regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),           // First Last
		regexp.MustCompile(`\b[A-Z]\.\s*[A-Z][a-z]+\b`),               // F. Last
	}
	companyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][A-Za-z&]*(?:\s+[A-Z][A-Za-z&]*)*\s+(?:Inc|Corp|LLC|Ltd)\b\.?`),
		regexp.MustCompile(`\b[A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+)*\s+(?:Technologies|Solutions|Systems|Software|Labs|Studios)\b`),
	}
	sentenceBreak = regexp.MustCompile(`[.!?\n]+`)
)

// nameStopWords reject capitalized phrases that are not people.
var nameStopWords = []string{
	"interview", "question", "problem", "solution", "discussion",
	"project", "system", "design", "code", "test", "data", "user",
	"thank", "thanks", "welcome", "hello", "good", "great", "okay",
}

// roleNames are speaker labels that name a role rather than a person.
var roleNames = map[string]bool{
	"interviewer": true, "candidate": true, "host": true, "moderator": true,
	"speaker": true, "guest": true, "narrator": true, "unknown": true,
}

var positiveTerms = []string{
	"excellent", "great", "good", "perfect", "amazing", "outstanding",
	"impressed", "love", "fantastic", "wonderful", "brilliant",
	"solved", "successful", "achieved", "accomplished", "clear",
}

var negativeTerms = []string{
	"bad", "terrible", "awful", "horrible", "wrong", "failed",
	"error", "problem", "issue", "struggle", "difficulty",
	"confused", "unclear", "stuck", "frustrated", "worried",
}

// categoryKeywords is scored in order; the first category with the highest
// score wins.
var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"introduction", []string{"introduce", "background", "tell me about yourself", "experience", "welcome", "hello", "hi", "thank you for joining", "thanks for joining"}},
	{"problem_description", []string{"problem", "challenge", "issue", "requirement", "task", "scenario", "case study", "situation"}},
	{"solution_discussion", []string{"solution", "approach", "implement", "design", "architecture", "strategy", "plan", "methodology", "technical", "database", "framework", "stack"}},
	{"coding", []string{"code", "function", "algorithm", "data structure", "implementation", "programming", "write code", "let's code"}},
	{"testing", []string{"test", "debug", "validate", "verify", "edge case", "unit test", "testing", "bug"}},
	{"questions", []string{"question", "ask", "clarify", "understand", "explain", "any questions", "do you have", "wondering", "tell me about a time", "describe a situation", "how do you handle"}},
	{"conclusion", []string{"conclusion", "final", "summary", "next steps", "feedback", "wrap up", "that's all", "thank you"}},
}

// ExtractEntities finds people, companies, technologies and locations in
// text by keyword lists and capitalization patterns. Each list is in order
// of first appearance.
func ExtractEntities(text string) core.EntityExtraction {
	lower := strings.ToLower(text)

	companies := matchTerms(lower, companyTerms)
	if containsTerm(lower, "facebook") {
		companies = removeValue(companies, "Meta")
	}

	for _, re := range companyPatterns {
		for _, m := range re.FindAllString(text, -1) {
			if m = strings.TrimSpace(m); len(m) > 3 {
				companies = append(companies, m)
			}
		}
	}

	technologies := matchTerms(lower, technologyTerms)

	known := map[string]bool{}
	for _, v := range append(append([]string{}, companies...), technologies...) {
		known[strings.ToLower(v)] = true
	}

	var people []string

	for _, s := range ParseSegments(text) {
		if s.Speaker != "" && !roleNames[strings.ToLower(s.Speaker)] {
			people = append(people, s.Speaker)
		}
	}

	for _, re := range personPatterns {
		for _, m := range re.FindAllString(text, -1) {
			if isPersonName(m, known) {
				people = append(people, m)
			}
		}
	}

	return core.EntityExtraction{
		People:       dedupe(people),
		Companies:    dedupe(companies),
		Technologies: dedupe(technologies),
		Locations:    dedupe(matchTerms(lower, locationTerms)),
	}
}

func isPersonName(name string, known map[string]bool) bool {
	lower := strings.ToLower(name)
	if known[lower] {
		return false
	}

	for _, stop := range nameStopWords {
		if strings.Contains(lower, stop) {
			return false
		}
	}

	for _, word := range strings.Fields(lower) {
		if roleNames[word] {
			return false
		}
	}

	return true
}

// AnalyzeSentiment scores each sentence of text against positive and
// negative keyword lists and returns up to MaxSentimentStatements highlights
// and lowlights in transcript order.
func AnalyzeSentiment(text string) core.SentimentAnalysis {
	out := core.SentimentAnalysis{Highlights: []string{}, Lowlights: []string{}}

	for _, sentence := range sentences(text) {
		if len(sentence) < minSentenceLength {
			continue
		}

		lower := strings.ToLower(sentence)
		pos := countTerms(lower, positiveTerms)
		neg := countTerms(lower, negativeTerms)

		switch {
		case pos > neg && len(out.Highlights) < MaxSentimentStatements:
			out.Highlights = append(out.Highlights, sentence)
		case neg > pos && len(out.Lowlights) < MaxSentimentStatements:
			out.Lowlights = append(out.Lowlights, sentence)
		}
	}

	return out
}

// sentences splits the spoken content of text, without timestamps or
// speaker labels, into trimmed sentences.
func sentences(text string) []string {
	var out []string

	for _, s := range ParseSegments(text) {
		for _, part := range sentenceBreak.Split(s.Content, -1) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	return out
}

// Categorize assigns content to a default timeline category by keyword
// score, falling back to FallbackCategory.
func Categorize(content string) string {
	lower := strings.ToLower(content)

	best, bestScore := FallbackCategory, 0

	for _, c := range categoryKeywords {
		if score := countTerms(lower, c.keywords); score > bestScore {
			best, bestScore = c.category, score
		}
	}

	return best
}

// TimelineFromSegments builds one categorized timeline entry per segment.
func TimelineFromSegments(segments []Segment) []core.TimelineEntry {
	out := make([]core.TimelineEntry, 0, len(segments))

	for _, s := range segments {
		content := s.Content
		if s.Speaker != "" {
			content = s.Speaker + ": " + content
		}

		out = append(out, core.TimelineEntry{
			Timestamp: s.Timestamp,
			Category:  Categorize(s.Content),
			Content:   content,
		})
	}

	return out
}

// backfill fills summary parts the model left empty from the heuristics and
// returns the names of the filled fields.
func backfill(s *core.TranscriptSummary, text string, segments []Segment) []string {
	var filled []string

	e := s.Entities
	if len(e.People)+len(e.Companies)+len(e.Technologies)+len(e.Locations) == 0 {
		if found := ExtractEntities(text); len(found.People)+len(found.Companies)+len(found.Technologies)+len(found.Locations) > 0 {
			s.Entities = found
			filled = append(filled, "entities")
		}
	}

	if len(s.SentimentAnalysis.Highlights)+len(s.SentimentAnalysis.Lowlights) == 0 {
		if found := AnalyzeSentiment(text); len(found.Highlights)+len(found.Lowlights) > 0 {
			s.SentimentAnalysis = found
			filled = append(filled, "sentiment_analysis")
		}
	}

	if len(s.Timeline) == 0 && len(segments) > 0 {
		s.Timeline = TimelineFromSegments(segments)
		filled = append(filled, "timeline")
	}

	return filled
}

// matchTerms returns the display names of terms found in lower, ordered by
// first occurrence.
func matchTerms(lower string, terms []string) []string {
	type hit struct {
		pos  int
		name string
	}

	var hits []hit

	for _, term := range terms {
		if pos := termIndex(lower, term); pos >= 0 {
			hits = append(hits, hit{pos: pos, name: displayName(term)})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}

	return out
}

func countTerms(lower string, terms []string) int {
	n := 0
	for _, term := range terms {
		if containsTerm(lower, term) {
			n++
		}
	}
	return n
}

func containsTerm(lower, term string) bool { return termIndex(lower, term) >= 0 }

// termIndex returns the first position of term in lower that is not part of
// a longer word, or -1.
func termIndex(lower, term string) int {
	for from := 0; from <= len(lower)-len(term); {
		i := strings.Index(lower[from:], term)
		if i < 0 {
			return -1
		}
		i += from

		end := i + len(term)
		if (i == 0 || !isWordByte(lower[i-1])) && (end == len(lower) || !isWordByte(lower[end])) {
			return i
		}

		from = i + 1
	}

	return -1
}

func isWordByte(b byte) bool {
	return isLetter(b) || isDigit(b) || b == '_' || b >= 0x80
}

func isLetter(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func displayName(term string) string {
	if name, ok := displayNames[term]; ok {
		return name
	}
	if strings.Contains(term, ".") {
		return term
	}

	words := strings.Fields(term)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}

func removeValue(values []string, v string) []string {
	out := values[:0]
	for _, x := range values {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
