package sparse_test

import (
	"encoding/json"
	"testing"

	"github.com/linkhubhq/linkhub/pkg/sparse"
)

type patchDoc struct {
	Title sparse.Field[string] `json:"title"`
	Icon  sparse.Field[string] `json:"icon"`
	Count sparse.Field[int]    `json:"count"`
}

func TestFieldAbsent(t *testing.T) {
	var doc patchDoc
	if err := json.Unmarshal([]byte(`{}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Title.Set || doc.Icon.Set || doc.Count.Set {
		t.Errorf("absent keys must leave Set false: %+v", doc)
	}
}

func TestFieldPresent(t *testing.T) {
	var doc patchDoc
	if err := json.Unmarshal([]byte(`{"title":"My Site","count":3}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !doc.Title.Set || doc.Title.Value == nil || *doc.Title.Value != "My Site" {
		t.Errorf("title = %+v, want set to \"My Site\"", doc.Title)
	}
	if !doc.Count.Set || doc.Count.Get() != 3 {
		t.Errorf("count = %+v, want set to 3", doc.Count)
	}
	if doc.Icon.Set {
		t.Errorf("icon was absent but Set = true")
	}
}

func TestFieldExplicitNull(t *testing.T) {
	var doc patchDoc
	if err := json.Unmarshal([]byte(`{"icon":null}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !doc.Icon.Set {
		t.Fatal("explicit null must set the presence flag")
	}
	if doc.Icon.Value != nil {
		t.Errorf("explicit null must leave Value nil, got %v", *doc.Icon.Value)
	}
}

func TestFieldConstructors(t *testing.T) {
	f := sparse.Some("emoji")
	if !f.Set || f.Get() != "emoji" {
		t.Errorf("Some = %+v", f)
	}
	n := sparse.Null[string]()
	if !n.Set || n.Value != nil {
		t.Errorf("Null = %+v", n)
	}
	if n.Get() != "" {
		t.Errorf("Get on null should zero-value, got %q", n.Get())
	}
}
