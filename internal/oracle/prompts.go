package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"stepgrade/internal/taxonomy"
)

// Request is one chat completion: a system instruction and a user prompt.
type Request struct {
	Operation string
	System    string
	User      string
}

// prompts renders requests in one language.
type prompts interface {
	judge(kind JudgeKind, actual, expected string, qc Context) Request
	extract(kind ExtractKind, content string, names []string, qc Context) Request
	diagnose(reference, actual string) Request
	classify(reference, actual, explanation string, entries []taxonomy.Entry) Request
	extractAnswer(raw, question string, subQuestion int) Request
	reformat(raw string, structure map[string]string) Request
}

func promptsFor(locale Locale) prompts {
	if locale == Chinese {
		return chinesePrompts{}
	}
	return englishPrompts{}
}

func bulletList(names []string) string {
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = "- " + name
	}
	return strings.Join(lines, "\n")
}

func taxonomyList(entries []taxonomy.Entry) string {
	blocks := make([]string, len(entries))
	for i, entry := range entries {
		blocks[i] = fmt.Sprintf("%s: \n%s", entry.Category, entry.Description)
	}
	return strings.Join(blocks, "\n\n")
}

// reformatRequest is shared by both locales.
func reformatRequest(raw string, structure map[string]string) Request {
	encoded, err := json.MarshalIndent(structure, "", "  ")
	if err != nil {
		encoded = []byte("{}")
	}
	user := fmt.Sprintf(`
Given the following problem structure:
%s

Please restructure the following content into this format:
sub_question_1:
step_1: [reasoning step]
step_2: [reasoning step]
...
sub_question_1_answer: [final answer]
sub_question_2:
step_3: [reasoning step]
step_4: [reasoning step]
...
sub_question_2_answer: [final answer]

sub_question_3:
step_5: [reasoning step]
...
sub_question_3_answer: [final answer]
The step sequences of different sub_questions should be continuous.
Do not return other content.
Content to restructure:
%s
`, encoded, raw)
	return Request{Operation: OpReformat, System: "You are a helpful assistant", User: user}
}

type englishPrompts struct{}

func (englishPrompts) judge(kind JudgeKind, actual, expected string, qc Context) Request {
	switch kind {
	case JudgeAnswerStrict:
		return Request{
			Operation: OpJudgeAnswerStrict,
			System:    "You are a professional mathematical problem answer evaluation assistant",
			User: fmt.Sprintf(`Based on the following information, please determine whether the two answers are semantically equivalent:
Specific question:
%s
Actual answer:
%s
Expected answer:
%s
Please only answer "true" or "false" to indicate whether these two answers express the same meaning. When evaluating, please consider whether mathematical expressions, units, and other details are equivalent.`, qc.Question, actual, expected),
		}
	case JudgeValues:
		return Request{
			Operation: OpJudgeValues,
			System:    "You are a professional physics calculation result evaluation assistant.",
			User: fmt.Sprintf(`Please judge whether the following results are equivalent:
Expected results:
%s
Actual content:
%s
Please judge all results individually. If any one is wrong, it's considered wrong. Only answer "true" or "false". If correct, no explanation needed. If incorrect, briefly explain in one or two sentences.`, expected, actual),
		}
	case JudgeEquations:
		return Request{
			Operation: OpJudgeEquations,
			System:    "You are a professional physics formula evaluation assistant.",
			User: fmt.Sprintf(`Please judge whether the following physics formulas are equivalent, ignoring units:
Expected formulas:
%s
Actual content:
%s
Please judge all formulas, only answer "true" or "false". If correct, no explanation needed. If incorrect, briefly explain in one or two sentences.`, expected, actual),
		}
	default:
		return Request{
			Operation: OpJudgeAnswer,
			System:    "You are a professional mathematics problem answer evaluation assistant.",
			User: fmt.Sprintf(`Please judge whether the two answers are semantically equivalent based on the following information, ignoring units:
Specific question:
%s
Actual answer:
%s
Expected answer:
%s
Please only answer "true" or "false" to indicate whether these two answers express the same meaning. When judging, please mainly consider whether details like mathematical expressions are equivalent, no need to consider units.`, qc.Question, actual, expected),
		}
	}
}

func (englishPrompts) extract(kind ExtractKind, content string, names []string, qc Context) Request {
	instruction := "Please only return the relevant result content, not related formulas, and do not add any explanations."
	if kind == ExtractEquations {
		instruction = "Return the relevant formulas for obtaining the required physical quantities\nPlease only return the relevant content, do not add any explanations."
	}
	return Request{
		Operation: kind.String(),
		System:    "You are a professional physics problem analysis assistant.",
		User: fmt.Sprintf(`Based on the following solution step content, please extract content related to the following physical quantities:
Problem context: %s
Specific question: %s
Physical quantities to extract:
%s
Solution step content: %s
%s`, qc.Background, qc.Question, bulletList(names), content, instruction),
	}
}

func (englishPrompts) diagnose(reference, actual string) Request {
	return Request{
		Operation: OpDiagnose,
		System:    "You are a professional physics problem error analysis assistant.",
		User: fmt.Sprintf(`Please analyze the errors in the following solution steps:
Standard answer content:
%s
Actual content:
%s
Please briefly explain the error cause in one or two sentences, answer in English
`, reference, actual),
	}
}

func (englishPrompts) classify(reference, actual, explanation string, entries []taxonomy.Entry) Request {
	return Request{
		Operation: OpClassify,
		System:    "You are a professional physics problem error analysis assistant.",
		User: fmt.Sprintf(`Please analyze the errors in the following solution steps:
Standard answer content: %s
Actual content:
%s
Error analysis: %s
Choose one error cause from the following:
%s
Only return the error category, for example: %s
`, reference, actual, explanation, taxonomyList(entries), taxonomy.CalculationProcess),
	}
}

func (englishPrompts) extractAnswer(raw, question string, subQuestion int) Request {
	return Request{
		Operation: OpExtractAnswer,
		System:    "You are a professional answer extraction assistant. Please only return the extracted answer without adding any additional explanations.",
		User: fmt.Sprintf(`Please extract the answer for the specific question from the following output text.
Specific question:
%s

Output text:
%s

Please return the answer directly without any explanation or additional text. The answer is usually after 'sub_question_%d_answer:'.`, question, raw, subQuestion),
	}
}

func (englishPrompts) reformat(raw string, structure map[string]string) Request {
	return reformatRequest(raw, structure)
}
