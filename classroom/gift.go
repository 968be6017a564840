package classroom

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoQuestions is returned when GIFT input yields no usable questions.
var ErrNoQuestions = errors.New("classroom: no questions found in GIFT input")

var (
	giftComment = regexp.MustCompile(`(?m)//.*$`)
	giftTitle   = regexp.MustCompile(`^::(.*?)::`)
	giftAnswers = regexp.MustCompile(`(?s)\{(.*?)\}`)
	giftOption  = regexp.MustCompile(`([=~])([^#=~]+)(?:#([^=~]+))?`)
	giftBlock   = regexp.MustCompile(`\n\s*\n`)
)

// ParseGIFT converts Moodle GIFT text into a quiz definition. Questions
// are blank-line separated blocks; answers sit in braces with "=" marking
// correct options, "~" wrong ones and "#" introducing per-option feedback.
// Blocks without an answer section are skipped.
func ParseGIFT(text string) (QuizDefinition, error) {
	var quiz QuizDefinition

	clean := giftComment.ReplaceAllString(text, "")
	for _, block := range giftBlock.Split(clean, -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		block = strings.TrimSpace(giftTitle.ReplaceAllString(block, ""))

		answers := giftAnswers.FindStringSubmatch(block)
		if answers == nil {
			continue
		}
		question := Question{
			Text: strings.TrimSpace(giftAnswers.ReplaceAllString(block, "")),
		}
		for _, m := range giftOption.FindAllStringSubmatch(answers[1], -1) {
			opt := Option{
				Text:      strings.TrimSpace(m[2]),
				IsCorrect: m[1] == "=",
			}
			if len(m) > 3 {
				opt.Feedback = strings.TrimSpace(m[3])
			}
			question.Options = append(question.Options, opt)
		}
		if len(question.Options) > 0 {
			quiz.Questions = append(quiz.Questions, question)
		}
	}

	if len(quiz.Questions) == 0 {
		return quiz, ErrNoQuestions
	}
	return quiz, nil
}
