package model

import (
	"encoding/json"
	"testing"
)

func TestStageString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		stage Stage
		want  string
	}{
		{StageNone, "none"},
		{StageResolve, "resolve"},
		{StageSummary, "summary"},
		{StageMetadata, "metadata"},
		{StageEntity, "entity"},
		{StageHistory, "history"},
		{StageImages, "images"},
		{Stage(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.stage.String(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseStage(t *testing.T) {
	t.Parallel()

	for _, stage := range AllStages() {
		got, err := ParseStage(stage.String())
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", stage, err)
		}
		if got != stage {
			t.Errorf("expected %v, got %v", stage, got)
		}
	}

	if _, err := ParseStage("bogus"); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestAllStagesOrder(t *testing.T) {
	t.Parallel()

	stages := AllStages()
	if len(stages) != 6 {
		t.Fatalf("expected 6 stages, got %d", len(stages))
	}
	for i := 1; i < len(stages); i++ {
		if stages[i] <= stages[i-1] {
			t.Errorf("stages out of order at %d: %v after %v", i, stages[i], stages[i-1])
		}
	}
}

func TestStagePanel(t *testing.T) {
	t.Parallel()

	want := map[Stage]Panel{
		StageResolve:  PanelNone,
		StageSummary:  PanelSummary,
		StageMetadata: PanelMetadata,
		StageEntity:   PanelEntity,
		StageHistory:  PanelHistory,
		StageImages:   PanelImages,
	}
	for stage, panel := range want {
		if got := stage.Panel(); got != panel {
			t.Errorf("%s: expected panel %s, got %s", stage, panel, got)
		}
	}
}

func TestOutcomeJSON(t *testing.T) {
	t.Parallel()

	t.Run("failed outcome keeps stage and message", func(t *testing.T) {
		t.Parallel()

		in := Failed(StageHistory, errTest)
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var out Outcome
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if out.Status != StatusFailed {
			t.Errorf("expected failed status, got %v", out.Status)
		}
		if out.FailedStage != StageHistory {
			t.Errorf("expected history stage, got %v", out.FailedStage)
		}
		if out.ErrorMessage != errTest.Error() {
			t.Errorf("expected message %q, got %q", errTest.Error(), out.ErrorMessage)
		}
	})

	t.Run("success omits failed stage", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(Succeeded())
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(data) != `{"status":"success"}` {
			t.Errorf("unexpected JSON %s", data)
		}
	})
}

func TestOutcomeMessage(t *testing.T) {
	t.Parallel()

	if got := NotFound().Message(); got != MessageNoResult {
		t.Errorf("expected %q, got %q", MessageNoResult, got)
	}
	if got := Failed(StageSummary, errTest).Message(); got != MessageFailure {
		t.Errorf("expected %q, got %q", MessageFailure, got)
	}
	if got := Succeeded().Message(); got != "" {
		t.Errorf("expected empty message, got %q", got)
	}
}
