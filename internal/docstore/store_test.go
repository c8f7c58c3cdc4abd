package docstore

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hyperjump/kaiwa/internal/models"
)

func TestStore_AppendGet(t *testing.T) {
	s := New()
	if i := s.Append(models.DocumentRecord{Content: "a"}); i != 0 {
		t.Errorf("first ordinal: got %d", i)
	}
	if i := s.Append(models.DocumentRecord{Content: "b", Metadata: map[string]interface{}{"k": "v"}}); i != 1 {
		t.Errorf("second ordinal: got %d", i)
	}
	rec, ok := s.Get(1)
	if !ok || rec.Content != "b" || rec.Metadata["k"] != "v" {
		t.Errorf("Get(1): got %+v, %v", rec, ok)
	}
	rec, _ = s.Get(0)
	if rec.Metadata == nil {
		t.Error("nil metadata should be normalized")
	}
	if _, ok := s.Get(2); ok {
		t.Error("Get out of range should fail")
	}
	if _, ok := s.Get(-1); ok {
		t.Error("Get negative should fail")
	}
}

func TestStore_JSONRoundTrip(t *testing.T) {
	s := New()
	s.Append(models.DocumentRecord{Content: "Fintech fraud detection uses anomaly scoring.", Metadata: map[string]interface{}{"title": "User Upload"}})
	s.Append(models.DocumentRecord{Content: "Zahlungsverkehr & <KYC> € ü"})

	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<KYC>") || !strings.Contains(buf.String(), "ü") {
		t.Errorf("expected unescaped output, got %s", buf.String())
	}
	loaded, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len: %d", loaded.Len())
	}
	rec, _ := loaded.Get(0)
	if rec.Content != "Fintech fraud detection uses anomaly scoring." || rec.Metadata["title"] != "User Upload" {
		t.Errorf("record 0: %+v", rec)
	}
}

func TestStore_Metadata(t *testing.T) {
	s := New()
	s.Append(models.DocumentRecord{Content: "a", Metadata: map[string]interface{}{"title": "A"}})
	s.Append(models.DocumentRecord{Content: "b"})
	meta := s.Metadata()
	if len(meta) != 2 || meta[0]["title"] != "A" || meta[1] == nil || len(meta[1]) != 0 {
		t.Errorf("Metadata: %v", meta)
	}
}

func TestReadJSON_Invalid(t *testing.T) {
	if _, err := ReadJSON(strings.NewReader("{not json")); err == nil {
		t.Error("expected decode error")
	}
}
