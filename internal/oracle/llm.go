package oracle

import (
	"context"
	"fmt"
	"strings"

	"stepgrade/internal/taxonomy"
)

// Provider names accepted by NewFactory.
const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// NewFactory returns a CompleterFactory for a provider name.
func NewFactory(provider, model, baseURL string, client HTTPDoer) (CompleterFactory, error) {
	switch provider {
	case ProviderOpenAI, "":
		return func(cred Credential) (Completer, error) {
			return NewOpenAICompleter(model, baseURL, cred, client)
		}, nil
	case ProviderOpenRouter:
		return func(cred Credential) (Completer, error) {
			return NewOpenRouterCompleter(model, baseURL, cred, client)
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}

// LLM implements Oracle, AnswerExtractor and Reformatter on top of a Completer.
type LLM struct {
	completer Completer
	locale    Locale
	prompts   prompts
}

// NewLLM renders prompts in locale and sends them through completer.
func NewLLM(completer Completer, locale Locale) *LLM {
	return &LLM{completer: completer, locale: locale, prompts: promptsFor(locale)}
}

func (o *LLM) ask(ctx context.Context, req Request) Result[string] {
	reply, err := o.completer.Complete(ctx, req)
	if err != nil {
		return Failure[string](fmt.Errorf("%s: %w", req.Operation, err))
	}
	return Success(strings.TrimSpace(reply))
}

// JudgeEquivalent asks for a verdict and normalizes it with the locale tokens.
func (o *LLM) JudgeEquivalent(ctx context.Context, kind JudgeKind, actual, expected string, qc Context) Result[bool] {
	reply := o.ask(ctx, o.prompts.judge(kind, actual, expected, qc))
	if !reply.OK() {
		return Result[bool]{Outcome: reply.Outcome, Err: reply.Err}
	}
	return Success(o.locale.Verdict(reply.Value))
}

// ExtractRelevant pulls the content about the named quantities out of content.
func (o *LLM) ExtractRelevant(ctx context.Context, kind ExtractKind, content string, names []string, qc Context) Result[string] {
	return o.ask(ctx, o.prompts.extract(kind, content, names, qc))
}

// Diagnose explains in a sentence or two how actual departs from reference.
func (o *LLM) Diagnose(ctx context.Context, reference, actual string) Result[string] {
	return o.ask(ctx, o.prompts.diagnose(reference, actual))
}

// ClassifyError picks one taxonomy entry. A reply naming no entry fails
// permanently with taxonomy.ErrUnknownCategory.
func (o *LLM) ClassifyError(ctx context.Context, reference, actual, explanation string, entries []taxonomy.Entry) Result[taxonomy.Category] {
	reply := o.ask(ctx, o.prompts.classify(reference, actual, explanation, entries))
	if !reply.OK() {
		return Result[taxonomy.Category]{Outcome: reply.Outcome, Err: reply.Err}
	}
	category, err := taxonomy.Match(reply.Value)
	if err != nil {
		return Result[taxonomy.Category]{Outcome: PermanentFailure, Err: err}
	}
	return Success(category)
}

// ExtractAnswer asks for the final answer of one sub-question.
func (o *LLM) ExtractAnswer(ctx context.Context, raw, question string, subQuestion int) Result[string] {
	return o.ask(ctx, o.prompts.extractAnswer(raw, question, subQuestion))
}

// Reformat asks for the response rewritten into the labeled grammar.
func (o *LLM) Reformat(ctx context.Context, raw string, structure map[string]string) Result[string] {
	reply, err := o.completer.Complete(ctx, o.prompts.reformat(raw, structure))
	if err != nil {
		return Failure[string](fmt.Errorf("%s: %w", OpReformat, err))
	}
	return Success(reply)
}
