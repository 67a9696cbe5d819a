package mediatype

import "testing"

type sample struct {
	A int    `json:"a"`
	B string `json:"b"`
}

func TestDefaultsJSONRoundTrip(t *testing.T) {
	enc, dec := Defaults()

	e, err := enc.Find(JSON)
	if err != nil {
		t.Fatalf("Find encoder: %v", err)
	}
	data, err := e.Encode(sample{A: 1, B: "x"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	d, err := dec.Find(JSON)
	if err != nil {
		t.Fatalf("Find decoder: %v", err)
	}
	var out sample
	if err := d.Decode(data, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.A != 1 || out.B != "x" {
		t.Fatalf("got %+v", out)
	}
}

func TestDefaultsCBORRoundTrip(t *testing.T) {
	enc, dec := Defaults()
	e, _ := enc.Find(CBOR)
	data, err := e.Encode(sample{A: 2, B: "y"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	d, _ := dec.Find(CBOR)
	var out sample
	if err := d.Decode(data, &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.A != 2 || out.B != "y" {
		t.Fatalf("got %+v", out)
	}
}

func TestProblemJSONReusesJSONDecoder(t *testing.T) {
	_, dec := Defaults()
	d, err := dec.Find(ProblemJSON)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	var out sample
	if err := d.Decode([]byte(`{"a":5,"b":"z"}`), &out); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.A != 5 {
		t.Fatalf("got %+v", out)
	}
}

func TestRegistryUnsupportedContentType(t *testing.T) {
	_, dec := Defaults()
	_, err := dec.Find(MustParse("application/xml"))
	if err == nil {
		t.Fatal("expected unsupported content type error")
	}
	if _, ok := err.(*ErrUnsupportedContentType); !ok {
		t.Fatalf("got %T", err)
	}
}

func TestRegistryFirstMatchWins(t *testing.T) {
	enc := NewEncoderRegistry()
	first := EncoderFunc(func(v any) ([]byte, error) { return []byte("first"), nil })
	second := EncoderFunc(func(v any) ([]byte, error) { return []byte("second"), nil })
	enc.Register(AnyText, first)
	enc.Register(TextPlain, second)

	e, err := enc.Find(TextPlain)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	data, _ := e.Encode(nil)
	if string(data) != "first" {
		t.Fatalf("expected first registration to win, got %q", data)
	}
}

func TestTextCodecTranslationNotSupported(t *testing.T) {
	_, dec := Defaults()
	d, _ := dec.Find(TextPlain)
	err := d.Decode([]byte("x"), 42)
	if err == nil {
		t.Fatal("expected error")
	}
	ce, ok := err.(*CodecError)
	if !ok {
		t.Fatalf("got %T", err)
	}
	if _, ok := ce.Inner.(*ErrTranslationNotSupported); !ok {
		t.Fatalf("inner error = %T, want *ErrTranslationNotSupported", ce.Inner)
	}
}
