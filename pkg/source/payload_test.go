package source

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

func TestDecode_ValuesPairs(t *testing.T) {
	records, err := Decode([]byte(`{"values":[["1","A"],["2","B"]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []model.OptionRecord{{Value: "1", Label: "A"}, {Value: "2", Label: "B"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_NumbersKeepLiteralText(t *testing.T) {
	records, err := Decode([]byte(`{"values":[[10,"Ten"],[2.50, 7]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []model.OptionRecord{{Value: "10", Label: "Ten"}, {Value: "2.50", Label: "7"}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_EmptyValues(t *testing.T) {
	records, err := Decode([]byte(`{"values":[]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %#v", records)
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing values": `{}`,
		"null values":    `{"values":null}`,
		"object values":  `{"values":{"1":"A"}}`,
		"short pair":     `{"values":[["1"]]}`,
		"pair not array": `{"values":["1"]}`,
		"object member":  `{"values":[[{"id":1},"A"]]}`,
		"bool member":    `{"values":[["1",true]]}`,
		"not json":       `<html></html>`,
		"top level list": `[["1","A"]]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(body)); err == nil {
				t.Fatalf("expected error for %s", body)
			}
		})
	}
}
