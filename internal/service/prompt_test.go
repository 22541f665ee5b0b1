package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"guru-chat/internal/domain"
	"guru-chat/internal/llm"
	"guru-chat/internal/news"
)

type stubNews struct {
	text     string
	question string
	calls    int
}

func (s *stubNews) Formatted(_ context.Context, question string) string {
	s.calls++
	s.question = question
	return s.text
}

var buffett = domain.Character{
	ID:          "c1",
	Name:        "Buffett",
	Description: "Value investor",
	Persona:     domain.Persona{"tone": "folksy", "signature_phrases_cold": []any{"Be patient"}},
}

func TestPromptBuilder_ColdMode(t *testing.T) {
	msgs := PromptBuilder{}.Build(buffett, "cold", "<LATEST_MARKET_NEWS>x</LATEST_MARKET_NEWS>", "User: hola", "Should I buy?")
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Fatalf("expected system+user messages, got %+v", msgs)
	}
	sys := msgs[0].Content
	for _, want := range []string{`"tone":"folksy"`, `"name":"Buffett"`, "[CURRENT MODE: COLD]", "signature_phrases_cold", "[RECENT CONVERSATION]\nUser: hola"} {
		if !strings.Contains(sys, want) {
			t.Fatalf("expected system prompt to contain %q:\n%s", want, sys)
		}
	}
	if msgs[1].Content != "News Context:\n<LATEST_MARKET_NEWS>x</LATEST_MARKET_NEWS>\n\nUser Question: Should I buy?" {
		t.Fatalf("unexpected user prompt %q", msgs[1].Content)
	}
}

func TestPromptBuilder_HotModeAndTemperature(t *testing.T) {
	b := PromptBuilder{}
	msgs := b.Build(buffett, "spicy", "", "", "yolo?")
	if !strings.Contains(msgs[0].Content, "[CURRENT MODE: HOT]") {
		t.Fatalf("expected hot mode for spicy style")
	}
	if strings.Contains(msgs[0].Content, "[RECENT CONVERSATION]") {
		t.Fatalf("expected no history section")
	}
	if !strings.Contains(msgs[1].Content, noNewsHotText) {
		t.Fatalf("expected hot news placeholder, got %q", msgs[1].Content)
	}
	if b.Temperature("cold") != 0.4 || b.Temperature("spicy") != 1.0 || b.Temperature("") != 1.0 {
		t.Fatalf("unexpected temperatures")
	}
}

func TestPersonaGenerator_ColdUsesNews(t *testing.T) {
	client := &llm.MockClient{Response: "<think>plan</think>\n```\nBe patient, friend.\n```"}
	src := &stubNews{text: "<LATEST_MARKET_NEWS>n</LATEST_MARKET_NEWS>"}
	g := NewPersonaGenerator(client, src, nil)

	out, err := g.Reply(context.Background(), llm.ReplyRequest{Character: buffett, Style: "cold", Content: "buy?"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Be patient, friend." {
		t.Fatalf("expected cleaned reply, got %q", out)
	}
	if src.calls != 1 || src.question != "buy?" {
		t.Fatalf("expected one news lookup for the question, got %d %q", src.calls, src.question)
	}
	req := client.Requests[0]
	if req.Temperature == nil || *req.Temperature != 0.4 {
		t.Fatalf("expected cold temperature")
	}
	if !strings.Contains(req.Messages[1].Content, "<LATEST_MARKET_NEWS>n") {
		t.Fatalf("expected news in user prompt")
	}
}

func TestPersonaGenerator_HotSkipsNews(t *testing.T) {
	client := &llm.MockClient{Response: "Stop gambling, kid."}
	src := &stubNews{text: "unused"}
	g := NewPersonaGenerator(client, src, nil)

	if _, err := g.Reply(context.Background(), llm.ReplyRequest{Character: buffett, Style: "spicy", Content: "yolo?"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if src.calls != 0 {
		t.Fatalf("hot mode must not fetch news")
	}
	if *client.Requests[0].Temperature != 1.0 {
		t.Fatalf("expected hot temperature")
	}
}

func TestPersonaGenerator_ColdWithoutNewsSource(t *testing.T) {
	client := &llm.MockClient{Response: "ok"}
	g := NewPersonaGenerator(client, nil, nil)
	if _, err := g.Reply(context.Background(), llm.ReplyRequest{Character: buffett, Style: "cold", Content: "q"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(client.Requests[0].Messages[1].Content, news.NoNewsText) {
		t.Fatalf("expected no-news text")
	}
}

func TestPersonaGenerator_Errors(t *testing.T) {
	g := NewPersonaGenerator(&llm.MockClient{Err: errors.New("boom")}, nil, nil)
	if _, err := g.Reply(context.Background(), llm.ReplyRequest{Character: buffett}); err == nil {
		t.Fatalf("expected client error")
	}
	g = NewPersonaGenerator(&llm.MockClient{Response: "  <think>only thoughts</think> "}, nil, nil)
	if _, err := g.Reply(context.Background(), llm.ReplyRequest{Character: buffett}); !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}
