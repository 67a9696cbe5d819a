package logging

import (
	"encoding/json"
	"testing"
)

func TestRedactJSONTopLevelField(t *testing.T) {
	body := []byte(`{"username":"alice","password":"hunter2"}`)
	got := RedactJSON(body)

	var out map[string]any
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["username"] != "alice" {
		t.Fatalf("username should be untouched, got %v", out["username"])
	}
	if out["password"] != "***redacted***" {
		t.Fatalf("password = %v", out["password"])
	}
}

func TestRedactJSONNestedField(t *testing.T) {
	body := []byte(`{"auth":{"access_token":"abc123","scope":"read"}}`)
	got := RedactJSON(body)

	var out map[string]map[string]any
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["auth"]["access_token"] != "***redacted***" {
		t.Fatalf("access_token = %v", out["auth"]["access_token"])
	}
	if out["auth"]["scope"] != "read" {
		t.Fatalf("scope should be untouched, got %v", out["auth"]["scope"])
	}
}

func TestRedactJSONExtraFieldNames(t *testing.T) {
	body := []byte(`{"ssn":"123-45-6789"}`)
	got := RedactJSON(body, "ssn")

	var out map[string]any
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["ssn"] != "***redacted***" {
		t.Fatalf("ssn = %v", out["ssn"])
	}
}

func TestRedactJSONNonJSONBodyUnchanged(t *testing.T) {
	body := []byte("plain text, not json")
	got := RedactJSON(body)
	if string(got) != string(body) {
		t.Fatalf("non-JSON body should pass through unchanged, got %q", got)
	}
}

func TestRedactJSONArrayOfObjects(t *testing.T) {
	body := []byte(`{"accounts":[{"token":"t1"},{"token":"t2"}]}`)
	got := RedactJSON(body)

	var out struct {
		Accounts []struct {
			Token string `json:"token"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i, a := range out.Accounts {
		if a.Token != "***redacted***" {
			t.Fatalf("accounts[%d].token = %v", i, a.Token)
		}
	}
}
