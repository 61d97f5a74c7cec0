//go:build cucumber

package parse

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

// TestParserScenarios runs the parser feature scenarios.
func TestParserScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "response-parser",
		ScenarioInitializer: InitializeParserScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{filepath.Join("testdata", "parser.feature")},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeParserScenario wires steps for parser scenarios.
func InitializeParserScenario(ctx *godog.ScenarioContext) {
	state := &parserScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^the raw response:$`, state.givenRawResponse)
	ctx.Step(`^I parse it expecting "([^"]*)"$`, state.whenIParse)
	ctx.Step(`^"([^"]+)" is complete$`, state.thenComplete)
	ctx.Step(`^"([^"]+)" is incomplete$`, state.thenIncomplete)
	ctx.Step(`^"([^"]+)" has step "([^"]+)" with text "([^"]*)"$`, state.thenStepText)
	ctx.Step(`^"([^"]+)" has final answer "([^"]*)"$`, state.thenFinalAnswer)
	ctx.Step(`^"([^"]+)" has (\d+) steps$`, state.thenStepCount)
	ctx.Step(`^formatting and parsing again yields the same tree$`, state.thenRoundTrip)
}

type parserScenarioState struct {
	raw  string
	ids  []string
	resp Response
}

// reset clears scenario state.
func (s *parserScenarioState) reset() {
	s.raw = ""
	s.ids = nil
	s.resp = Response{}
}

func (s *parserScenarioState) givenRawResponse(doc *godog.DocString) error {
	s.raw = doc.Content
	return nil
}

func (s *parserScenarioState) whenIParse(ids string) error {
	s.ids = strings.Split(ids, ",")
	s.resp = Parse(s.raw, s.ids)
	return nil
}

func (s *parserScenarioState) entry(id string) (SubQuestion, error) {
	sq, ok := s.resp.Get(id)
	if !ok {
		return SubQuestion{}, fmt.Errorf("no entry for %s", id)
	}
	return sq, nil
}

func (s *parserScenarioState) thenComplete(id string) error {
	sq, err := s.entry(id)
	if err != nil {
		return err
	}
	if !sq.IsComplete {
		return fmt.Errorf("expected %s to be complete", id)
	}
	return nil
}

func (s *parserScenarioState) thenIncomplete(id string) error {
	sq, err := s.entry(id)
	if err != nil {
		return err
	}
	if sq.IsComplete {
		return fmt.Errorf("expected %s to be incomplete", id)
	}
	return nil
}

func (s *parserScenarioState) thenStepText(id, stepID, text string) error {
	sq, err := s.entry(id)
	if err != nil {
		return err
	}
	got, ok := sq.Step(stepID)
	if !ok {
		return fmt.Errorf("expected step %s in %s", stepID, id)
	}
	if got != text {
		return fmt.Errorf("expected step text %q, got %q", text, got)
	}
	return nil
}

func (s *parserScenarioState) thenFinalAnswer(id, answer string) error {
	sq, err := s.entry(id)
	if err != nil {
		return err
	}
	if sq.FinalAnswer != answer {
		return fmt.Errorf("expected final answer %q, got %q", answer, sq.FinalAnswer)
	}
	return nil
}

func (s *parserScenarioState) thenStepCount(id string, count int) error {
	sq, err := s.entry(id)
	if err != nil {
		return err
	}
	if len(sq.Steps) != count {
		return fmt.Errorf("expected %d steps, got %d", count, len(sq.Steps))
	}
	return nil
}

func (s *parserScenarioState) thenRoundTrip() error {
	again := Parse(Format(s.resp), s.ids)
	if !reflect.DeepEqual(s.resp, again) {
		return fmt.Errorf("round trip mismatch: %+v vs %+v", s.resp, again)
	}
	return nil
}
