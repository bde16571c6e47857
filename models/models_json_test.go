package models

import (
	"encoding/json"
	"testing"
)

// TestInjectionRecordReasonOmitted verifies that reason only appears on failed records
func TestInjectionRecordReasonOmitted(t *testing.T) {
	success := InjectionRecord{
		Success:    true,
		AnchorText: "content marketing strategy",
		TargetURL:  "https://example.com/content-marketing",
		Zone:       "mid-body",
	}

	jsonBytes, err := json.Marshal(success)
	if err != nil {
		t.Fatalf("Failed to marshal record: %v", err)
	}

	var unmarshaled map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if _, exists := unmarshaled["reason"]; exists {
		t.Error("reason field should be omitted when empty")
	}
	if _, exists := unmarshaled["metrics"]; !exists {
		t.Error("metrics field is missing from JSON")
	}

	failed := InjectionRecord{
		Success:    false,
		AnchorText: "content marketing strategy",
		Reason:     "anchor text not found outside existing links",
	}

	jsonBytes, err = json.Marshal(failed)
	if err != nil {
		t.Fatalf("Failed to marshal failed record: %v", err)
	}

	var unmarshaled2 map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &unmarshaled2); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if unmarshaled2["reason"] != failed.Reason {
		t.Errorf("reason = %v, want %q", unmarshaled2["reason"], failed.Reason)
	}
}

// TestInjectionResultUnderfilledOmitted verifies underfilled_zones is omitted when every zone met its minimum
func TestInjectionResultUnderfilledOmitted(t *testing.T) {
	result := InjectionResult{
		HTML:          "<p>text</p>",
		LinksInjected: 1,
		Distribution:  map[string]int{"intro": 1},
	}

	jsonBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal result: %v", err)
	}

	var unmarshaled map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &unmarshaled); err != nil {
		t.Fatalf("Failed to unmarshal JSON: %v", err)
	}

	if _, exists := unmarshaled["underfilled_zones"]; exists {
		t.Error("underfilled_zones should be omitted when nil")
	}
	dist, ok := unmarshaled["distribution"].(map[string]interface{})
	if !ok {
		t.Fatal("distribution should be a JSON object")
	}
	if dist["intro"] != float64(1) {
		t.Errorf("distribution[intro] = %v, want 1", dist["intro"])
	}
}
