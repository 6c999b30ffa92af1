package json

import (
	"context"
	"testing"

	"github.com/zoobzio/shroud"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/json" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/json")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	type TestStruct struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	original := TestStruct{Name: "test", Value: 42}

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored TestStruct
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if restored.Name != original.Name || restored.Value != original.Value {
		t.Errorf("round-trip failed: got %+v, want %+v", restored, original)
	}
}

func TestMarshalNil(t *testing.T) {
	c := New()

	data, err := c.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal(nil) error: %v", err)
	}

	if string(data) != "null" {
		t.Errorf("Marshal(nil) = %q, want %q", data, "null")
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v struct{}
	err := c.Unmarshal([]byte("invalid json"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}

type contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (c contact) Clone() contact { return c }

func TestMaskBytesThroughCodec(t *testing.T) {
	phone, err := shroud.NewDigitMasker(0, 4, '*')
	if err != nil {
		t.Fatalf("NewDigitMasker: %v", err)
	}
	policy := shroud.NewPolicy().
		Bind("Phone", shroud.NewChain(shroud.TextStage(phone)))

	proc, err := shroud.NewProcessor[contact](New(), policy)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	out, rep, err := proc.MaskBytes(context.Background(), []byte(`{"name":"Ann","phone":"555-123-4567"}`))
	if err != nil {
		t.Fatalf("MaskBytes: %v", err)
	}
	if !rep.OK {
		t.Fatalf("report not OK: %v", rep.Failures)
	}

	var masked contact
	if err := New().Unmarshal(out, &masked); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if masked.Phone != "***-***-4567" {
		t.Errorf("phone = %q, want ***-***-4567", masked.Phone)
	}
	if masked.Name != "Ann" {
		t.Errorf("unmapped field changed: %q", masked.Name)
	}
}
