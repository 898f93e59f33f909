package model

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson/bsontype"
)

func TestMoneyJSONRoundsToCents(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.125", `"10.13"`},
		{"10.124", `"10.12"`},
		{"143.5", `"143.5"`},
		{"0", `"0"`},
	}

	for _, tc := range cases {
		m, err := MoneyFromString(tc.in)
		if err != nil {
			t.Fatalf("MoneyFromString(%q) unexpected error: %v", tc.in, err)
		}
		got, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("Marshal(%q) unexpected error: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Errorf("Marshal(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMoneyBSONKeepsFullPrecision(t *testing.T) {
	m, err := MoneyFromString("10.125")
	if err != nil {
		t.Fatalf("MoneyFromString() unexpected error: %v", err)
	}

	_, raw, err := m.MarshalBSONValue()
	if err != nil {
		t.Fatalf("MarshalBSONValue() unexpected error: %v", err)
	}

	var decoded Money
	if err := decoded.UnmarshalBSONValue(bsontype.String, raw); err != nil {
		t.Fatalf("UnmarshalBSONValue() unexpected error: %v", err)
	}
	if !decoded.Equal(m.Decimal) {
		t.Errorf("round trip = %s, want %s", decoded, m.Decimal)
	}
}
