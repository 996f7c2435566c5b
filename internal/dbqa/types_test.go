package dbqa

import "testing"

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name    string
		c       Condition
		wantErr bool
	}{
		{"row count", Condition{Type: CondRowCount, Operator: OpGt, Value: "0"}, false},
		{"error presence needs nothing", Condition{Type: CondErrorPresence}, false},
		{"specific value", Condition{Type: CondSpecificValue, Operator: OpLte, Value: "5", Column: "failed"}, false},
		{"unknown type", Condition{Type: "shape", Operator: OpEq, Value: "1"}, true},
		{"missing operator", Condition{Type: CondRowCount, Value: "10"}, true},
		{"missing value", Condition{Type: CondRowCount, Operator: OpEq}, true},
		{"specific value without column", Condition{Type: CondSpecificValue, Operator: OpEq, Value: "1"}, true},
	}
	for _, tt := range tests {
		if err := tt.c.Validate(); (err != nil) != tt.wantErr {
			t.Fatalf("%s: err=%v", tt.name, err)
		}
	}
}
