// Package eval scores RAG answers with lexical heuristics approximating
// the RAGAS metrics: faithfulness, answer relevancy, context precision,
// context recall and answer correctness.
package eval

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Quality labels assigned from the aggregate score.
const (
	LabelExcellent = "Excellent"
	LabelGood      = "Good"
	LabelFair      = "Fair"
	LabelPoor      = "Poor"
)

// Result holds the metric scores for one evaluation. ContextRecall and
// AnswerCorrectness are nil when no ground truth was supplied. Aggregate is
// the mean of all non-nil metrics, 0 if none are defined.
type Result struct {
	Faithfulness      float64  `json:"faithfulness"`
	AnswerRelevancy   float64  `json:"answer_relevancy"`
	ContextPrecision  float64  `json:"context_precision"`
	ContextRecall     *float64 `json:"context_recall"`
	AnswerCorrectness *float64 `json:"answer_correctness"`
	Aggregate         float64  `json:"aggregate"`
	Label             string   `json:"quality_label"`
}

// Evaluator computes lexical evaluation metrics. Stateless and safe for
// concurrent use.
type Evaluator struct{}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// stopwords excluded from the query when judging answer relevancy.
var stopwords = map[string]struct{}{
	"what": {}, "is": {}, "the": {}, "an": {}, "of": {}, "in": {}, "to": {},
	"how": {}, "does": {}, "do": {}, "can": {}, "who": {}, "when": {},
	"where": {}, "why": {}, "which": {},
}

// Evaluate runs all metrics. groundTruth may be empty, in which case the
// ground-truth dependent metrics stay nil. Never fails; metrics that cannot
// be computed get their documented neutral or zero value.
func (e *Evaluator) Evaluate(question, answer string, contexts []string, groundTruth string) Result {
	res := Result{
		Faithfulness:     e.faithfulness(answer, contexts),
		AnswerRelevancy:  e.answerRelevancy(question, answer),
		ContextPrecision: e.contextPrecision(question, contexts),
	}

	if groundTruth != "" {
		recall := e.contextRecall(contexts, groundTruth)
		correctness := e.answerCorrectness(answer, groundTruth)
		res.ContextRecall = &recall
		res.AnswerCorrectness = &correctness
	}

	var sum float64
	var n int
	for _, v := range []float64{res.Faithfulness, res.AnswerRelevancy, res.ContextPrecision} {
		sum += v
		n++
	}
	for _, p := range []*float64{res.ContextRecall, res.AnswerCorrectness} {
		if p != nil {
			sum += *p
			n++
		}
	}
	if n > 0 {
		res.Aggregate = round4(sum / float64(n))
	}

	switch {
	case res.Aggregate >= 0.8:
		res.Label = LabelExcellent
	case res.Aggregate >= 0.6:
		res.Label = LabelGood
	case res.Aggregate >= 0.4:
		res.Label = LabelFair
	default:
		res.Label = LabelPoor
	}

	return res
}

// faithfulness is the fraction of answer sentences whose token set overlaps
// the combined context token set by more than 50%.
func (e *Evaluator) faithfulness(answer string, contexts []string) float64 {
	if len(contexts) == 0 || answer == "" {
		return 0.0
	}
	sentences := splitSentences(answer)
	if len(sentences) == 0 {
		return 0.0
	}

	ctxTokens := tokenSet(strings.Join(contexts, " "))

	supported := 0
	for _, sent := range sentences {
		tokens := tokenSet(sent)
		if len(tokens) == 0 {
			continue
		}
		overlap := 0
		for tok := range tokens {
			if _, ok := ctxTokens[tok]; ok {
				overlap++
			}
		}
		if float64(overlap)/float64(len(tokens)) > 0.5 {
			supported++
		}
	}

	return round4(float64(supported) / float64(len(sentences)))
}

// answerRelevancy is the stop-word-filtered token overlap between question
// and answer, divided by query token count, capped at 1 and halved for
// answers shorter than 20 characters.
func (e *Evaluator) answerRelevancy(question, answer string) float64 {
	if question == "" || answer == "" {
		return 0.0
	}

	qTokens := tokenSet(question)
	for tok := range qTokens {
		if _, ok := stopwords[tok]; ok {
			delete(qTokens, tok)
		}
	}
	if len(qTokens) == 0 {
		return 0.5
	}

	aTokens := tokenSet(answer)
	overlap := 0
	for tok := range qTokens {
		if _, ok := aTokens[tok]; ok {
			overlap++
		}
	}

	score := math.Min(float64(overlap)/float64(len(qTokens)), 1.0)
	if utf8.RuneCountInString(answer) < 20 {
		score *= 0.5
	}
	return round4(score)
}

// contextPrecision is the fraction of retrieved passages whose token overlap
// with the question exceeds 30% of the question's token count.
func (e *Evaluator) contextPrecision(question string, contexts []string) float64 {
	if len(contexts) == 0 {
		return 0.0
	}
	qTokens := tokenSet(question)
	if len(qTokens) == 0 {
		return 0.5
	}

	relevant := 0
	for _, ctx := range contexts {
		ctxTokens := tokenSet(ctx)
		overlap := 0
		for tok := range qTokens {
			if _, ok := ctxTokens[tok]; ok {
				overlap++
			}
		}
		if float64(overlap)/float64(len(qTokens)) > 0.3 {
			relevant++
		}
	}

	return round4(float64(relevant) / float64(len(contexts)))
}

// contextRecall is the fraction of ground-truth tokens present in the
// combined context, capped at 1.
func (e *Evaluator) contextRecall(contexts []string, groundTruth string) float64 {
	if groundTruth == "" || len(contexts) == 0 {
		return 0.0
	}
	gtTokens := tokenSet(groundTruth)
	if len(gtTokens) == 0 {
		return 0.5
	}

	ctxTokens := tokenSet(strings.Join(contexts, " "))
	overlap := 0
	for tok := range gtTokens {
		if _, ok := ctxTokens[tok]; ok {
			overlap++
		}
	}

	return round4(math.Min(float64(overlap)/float64(len(gtTokens)), 1.0))
}

// answerCorrectness is the token-multiset F1 between answer and ground truth.
func (e *Evaluator) answerCorrectness(answer, groundTruth string) float64 {
	if groundTruth == "" || answer == "" {
		return 0.0
	}

	aCounts := tokenCounts(answer)
	gtCounts := tokenCounts(groundTruth)

	common := 0
	aTotal := 0
	gtTotal := 0
	for _, n := range aCounts {
		aTotal += n
	}
	for tok, n := range gtCounts {
		gtTotal += n
		if m, ok := aCounts[tok]; ok {
			if m < n {
				common += m
			} else {
				common += n
			}
		}
	}
	if common == 0 {
		return 0.0
	}

	precision := float64(common) / float64(aTotal)
	recall := float64(common) / float64(gtTotal)
	return round4(2 * precision * recall / (precision + recall))
}

var tokenRe = regexp.MustCompile(`\b[a-z]{2,}\b`)

// tokenize returns the lower-cased alphabetic tokens of length ≥2.
func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

func tokenCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		counts[tok]++
	}
	return counts
}

var sentenceRe = regexp.MustCompile(`[.!?]\s+`)

// splitSentences splits text at punctuation-terminated boundaries, keeping
// the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	rest := text
	for {
		loc := sentenceRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if s := strings.TrimSpace(rest[:loc[0]+1]); s != "" {
			sentences = append(sentences, s)
		}
		rest = rest[loc[1]:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
