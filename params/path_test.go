package params

import "testing"

func TestPathExpansion(t *testing.T) {
	tmpl, err := NewPathTemplate("/v{x}/devices/{d}/messages/{m}/payloads")
	if err != nil {
		t.Fatalf("NewPathTemplate: %v", err)
	}
	got, err := tmpl.Expand(map[string]any{"x": 1, "d": 123, "m": 456})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := "/v1/devices/123/messages/456/payloads"
	if got != want {
		t.Fatalf("Expand() = %q, want %q", got, want)
	}
}

func TestPathExpansionMissingParameter(t *testing.T) {
	tmpl, err := NewPathTemplate("/devices/{id}")
	if err != nil {
		t.Fatalf("NewPathTemplate: %v", err)
	}
	_, err = tmpl.Expand(map[string]any{})
	if err == nil {
		t.Fatal("expected missing parameter error")
	}
	var mpe *MissingParameterError
	if !asMissingParameterError(err, &mpe) {
		t.Fatalf("got %v (%T), want *MissingParameterError", err, err)
	}
	if mpe.Name != "id" {
		t.Fatalf("Name = %q, want %q", mpe.Name, "id")
	}
}

func asMissingParameterError(err error, target **MissingParameterError) bool {
	if mpe, ok := err.(*MissingParameterError); ok {
		*target = mpe
		return true
	}
	return false
}

func TestPathExpansionCustomConverter(t *testing.T) {
	tmpl, err := NewPathTemplate("/things/{id}")
	if err != nil {
		t.Fatalf("NewPathTemplate: %v", err)
	}
	type customID struct{ n int }
	conv := func(v any) (string, bool, error) {
		if _, ok := v.(customID); ok {
			return "custom-42", true, nil
		}
		return "", false, nil
	}
	got, err := tmpl.Expand(map[string]any{"id": customID{n: 42}}, conv)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got != "/things/custom-42" {
		t.Fatalf("Expand() = %q", got)
	}
}

func TestPathExpansionUnsupportedType(t *testing.T) {
	tmpl, err := NewPathTemplate("/things/{id}")
	if err != nil {
		t.Fatalf("NewPathTemplate: %v", err)
	}
	_, err = tmpl.Expand(map[string]any{"id": struct{ X int }{X: 1}})
	if err == nil {
		t.Fatal("expected unsupported type error")
	}
	if _, ok := err.(*UnsupportedParameterTypeError); !ok {
		t.Fatalf("got %T, want *UnsupportedParameterTypeError", err)
	}
}
