package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_JSONWithServiceAndComponent(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	Init(Options{Level: "debug", Output: &buf, Service: "blogkeeper"})
	log := Component(ComponentArchive)
	log.Debug().Msg("post archived")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "blogkeeper" || line["component"] != "archive" {
		t.Fatalf("missing context fields: %+v", line)
	}
	if line["message"] != "post archived" {
		t.Fatalf("unexpected message: %+v", line)
	}
}

func TestTag_StampsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Tag(zerolog.New(&buf), ComponentScrubber)
	log.Info().Int("removed", 2).Msg("scrub finished")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if line["component"] != ComponentScrubber || line["removed"] != float64(2) {
		t.Fatalf("unexpected fields: %+v", line)
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Level: "info", Output: &first})
	Init(Options{Level: "debug", Output: &second})
	log := Get()
	log.Info().Msg("hello")

	if first.Len() == 0 || second.Len() != 0 {
		t.Fatalf("second Init should be ignored")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Get()
}
